package oracle

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/orm"
)

const (
	// BucketName is where all attestations are stored.
	BucketName = "attest"

	maxKeySize   = 128
	maxValueSize = 1024
)

// Attestation is a value published by an oracle account under a data key.
type Attestation struct {
	Oracle    ledger.Address  `json:"oracle"`
	DataKey   []byte          `json:"data_key"`
	Value     []byte          `json:"value"`
	UpdatedAt ledger.UnixTime `json:"updated_at"`
}

var _ orm.Model = (*Attestation)(nil)

// Validate returns an error if the attestation cannot be stored.
func (a *Attestation) Validate() error {
	var err error
	err = errors.AppendField(err, "Oracle", a.Oracle.Validate())
	err = errors.AppendField(err, "DataKey", validateDataKey(a.DataKey))
	if len(a.Value) > maxValueSize {
		err = errors.AppendField(err, "Value", errors.ErrInvalidInput)
	}
	err = errors.AppendField(err, "UpdatedAt", a.UpdatedAt.Validate())
	return err
}

func validateDataKey(key []byte) error {
	switch n := len(key); {
	case n == 0:
		return errors.ErrEmpty
	case n > maxKeySize:
		return errors.Wrapf(errors.ErrInvalidInput, "key longer than %d bytes", maxKeySize)
	}
	return nil
}

// NewAttestationBucket returns a bucket storing attestations.
func NewAttestationBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Attestation{})
}

// attestationKey returns the primary key of an attestation. Addresses have
// a fixed length so the data key can be appended as it is.
func attestationKey(oracle ledger.Address, dataKey []byte) []byte {
	key := make([]byte, 0, len(oracle)+len(dataKey))
	key = append(key, oracle...)
	return append(key, dataKey...)
}
