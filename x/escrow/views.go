package escrow

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// OfferByID returns the offer with given ID or ErrNotFound.
func OfferByID(db ledger.ReadOnlyKVStore, id uint64) (*Offer, error) {
	return loadOffer(db, NewOfferBucket(), id)
}

// ActiveOffers returns all active offers that are not expired at given
// time, ordered by ID. Offers past their expiration time but not yet swept
// by the cleanup are left out.
func ActiveOffers(db ledger.ReadOnlyKVStore, now ledger.UnixTime) ([]*Offer, error) {
	var active []*Offer
	if _, err := NewOfferBucket().ByIndex(db, "status", statusKey(OfferActive), &active); err != nil {
		return nil, errors.Wrap(err, "active offers")
	}
	res := active[:0]
	for _, o := range active {
		if o.ExpiresAt > now {
			res = append(res, o)
		}
	}
	return res, nil
}

// OffersByStatus returns all offers in given status, ordered by ID.
func OffersByStatus(db ledger.ReadOnlyKVStore, status OfferStatus) ([]*Offer, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	var offers []*Offer
	if _, err := NewOfferBucket().ByIndex(db, "status", statusKey(status), &offers); err != nil {
		return nil, errors.Wrapf(err, "%s offers", status)
	}
	return offers, nil
}

// FeePercent returns the currently configured platform fee.
func FeePercent(db ledger.ReadOnlyKVStore) (int64, error) {
	conf, err := loadConf(db)
	if err != nil {
		return 0, err
	}
	return conf.FeePercent, nil
}
