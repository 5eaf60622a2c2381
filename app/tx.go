package app

import (
	"encoding/json"
	"reflect"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// Tx is a call carrying a single message. Identity is not part of the
// transaction, the runtime supplies the caller separately.
type Tx struct {
	Msg ledger.Msg
}

var _ ledger.Tx = (*Tx)(nil)

// GetMsg returns the carried message.
func (tx *Tx) GetMsg() (ledger.Msg, error) {
	return tx.Msg, nil
}

// wireTx is the JSON representation of a transaction.
//
//   {"path": "escrow/cancel_offer", "msg": {"offer_id": 1}}
type wireTx struct {
	Path string          `json:"path"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// EncodeTx serializes a message into the JSON wire form understood by
// Router.Decode.
func EncodeTx(m ledger.Msg) ([]byte, error) {
	if m == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "message")
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidMsg, err.Error())
	}
	raw, err := json.Marshal(wireTx{Path: m.Path(), Msg: body})
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidMsg, err.Error())
	}
	return raw, nil
}

// Decode parses the JSON wire form of a transaction. The message type is
// looked up by path among the registered routes. Decode can be used as a
// ledger.TxDecoder.
func (r *Router) Decode(raw []byte) (ledger.Tx, error) {
	var w wireTx
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if w.Path == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "path")
	}
	t, ok := r.types[w.Path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", w.Path)
	}

	ptr := reflect.New(t)
	if len(w.Msg) > 0 && string(w.Msg) != "null" {
		if err := json.Unmarshal(w.Msg, ptr.Interface()); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidMsg, "%s: %s", w.Path, err)
		}
	}
	msg, ok := ptr.Interface().(ledger.Msg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T is not a message", ptr.Interface())
	}
	return &Tx{Msg: msg}, nil
}
