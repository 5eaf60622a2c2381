package oracle

import (
	"bytes"
	"context"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

// Reader returns the value attested by an oracle under given data key.
type Reader interface {
	Read(db ledger.ReadOnlyKVStore, oracle ledger.Address, dataKey []byte) ([]byte, error)
}

// StoreReader reads attestations published with PublishMsg.
type StoreReader struct {
	bucket orm.ModelBucket
}

var _ Reader = StoreReader{}

// NewStoreReader returns a reader using the default attestation bucket.
func NewStoreReader() StoreReader {
	return StoreReader{bucket: NewAttestationBucket()}
}

// Read returns ErrNotFound if nothing was attested under given key.
func (r StoreReader) Read(db ledger.ReadOnlyKVStore, oracle ledger.Address, dataKey []byte) ([]byte, error) {
	var a Attestation
	if err := r.bucket.One(db, attestationKey(oracle, dataKey), &a); err != nil {
		return nil, err
	}
	return a.Value, nil
}

// Verifier checks that an oracle attested an expected value.
type Verifier struct {
	reader Reader
}

// NewVerifier returns a verifier reading attestations with given reader.
func NewVerifier(r Reader) Verifier {
	return Verifier{reader: r}
}

// Check fails with ErrCondition if the value attested by the oracle under
// given data key is not exactly the expected one, or cannot be read.
func (v Verifier) Check(ctx context.Context, db ledger.ReadOnlyKVStore, oracle ledger.Address, dataKey, expected []byte) error {
	got, err := v.reader.Read(db, oracle, dataKey)
	if err != nil {
		ledger.GetLogger(ctx).Debug("oracle read failed",
			"oracle", oracle, "key", string(dataKey), "err", err)
		return errors.Wrapf(errors.ErrCondition, "read %q from %s: %s", dataKey, oracle, err)
	}
	if !bytes.Equal(got, expected) {
		return errors.Wrapf(errors.ErrCondition, "%s attested %q under %q", oracle, got, dataKey)
	}
	return nil
}
