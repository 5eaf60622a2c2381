// Package bech32 converts raw bytes, usually addresses, to and from the
// human friendly bech32 representation.
package bech32

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/tokenvault/ledger/errors"
)

// Decode converts given bech32 encoded representation into raw payload and a
// human readable part.
func Decode(raw string) (string, []byte, error) {
	hrp, payload, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInvalidInput, "bech32 decode: %s", err)
	}
	payload, err = bech32.ConvertBits(payload, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInvalidInput, "convert bits: %s", err)
	}
	return hrp, payload, nil
}

// DecodeWithPrefix works like Decode but fails if the human readable part
// is not the expected one.
func DecodeWithPrefix(hrp, raw string) ([]byte, error) {
	got, payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if got != hrp {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "want %q prefix, got %q", hrp, got)
	}
	return payload, nil
}

// Encode converts given bytes into bech32 encoded representation.
func Encode(hrp string, payload []byte) ([]byte, error) {
	payload, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "convert bits: %s", err)
	}
	raw, err := bech32.Encode(hrp, payload)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bech32 encode: %s", err)
	}
	return []byte(raw), nil
}
