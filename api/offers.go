package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/x/escrow"
)

// Offers serves the escrow offers.
type Offers struct {
	view  Viewer
	clock Clock
}

// NewOffers returns the offers resource.
func NewOffers(view Viewer, clock Clock) *Offers {
	return &Offers{view: view, clock: clock}
}

func (o *Offers) handleGetOffer(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil || id == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "offer id %q", mux.Vars(req)["id"])
	}
	var offer *escrow.Offer
	err = o.view.View(func(db ledger.ReadOnlyKVStore) error {
		var err error
		offer, err = escrow.OfferByID(db, id)
		return err
	})
	if err != nil {
		return err
	}
	JSONResp(w, http.StatusOK, offer)
	return nil
}

// handleListOffers lists active offers, or offers in the status given by
// the "status" query parameter.
func (o *Offers) handleListOffers(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	status := query.Get("status")
	if active := query.Get("active"); active != "" {
		ok, err := strconv.ParseBool(active)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "active %q", active)
		}
		if !ok {
			return errors.Wrap(errors.ErrInvalidInput, "use status to list offers that are not active")
		}
		status = ""
	}

	offers := make([]*escrow.Offer, 0)
	err := o.view.View(func(db ledger.ReadOnlyKVStore) error {
		var (
			found []*escrow.Offer
			err   error
		)
		if status == "" {
			found, err = escrow.ActiveOffers(db, ledger.AsUnixTime(o.clock()))
		} else {
			var s escrow.OfferStatus
			if err := s.UnmarshalText([]byte(status)); err != nil {
				return err
			}
			found, err = escrow.OffersByStatus(db, s)
		}
		offers = append(offers, found...)
		return err
	})
	if err != nil {
		return err
	}
	JSONResp(w, http.StatusOK, offers)
	return nil
}

// Mount registers the resource routes under given prefix.
func (o *Offers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(o.handleListOffers))
	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(o.handleGetOffer))
}
