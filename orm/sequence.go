package orm

import (
	"encoding/binary"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// Sequence maintains a counter, and generates a
// series of keys. Each key is greater than the last,
// both NextInt() as well as bytes.Compare() on NextVal().
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	id := "_s." + bucket + ":" + name
	return Sequence{
		id: []byte(id),
	}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s *Sequence) NextVal(db ledger.KVStore) ([]byte, error) {
	_, bz, err := s.increment(db, 1)
	return bz, err
}

// NextInt increments the sequence and returns its state as int.
func (s *Sequence) NextInt(db ledger.KVStore) (uint64, error) {
	val, _, err := s.increment(db, 1)
	return val, err
}

// Latest returns the recently returned value of the sequence. This method does
// not modify the sequence state.
func (s *Sequence) Latest(db ledger.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, err
	}
	return DecodeSequence(raw)
}

func (s *Sequence) increment(db ledger.KVStore, inc uint64) (uint64, []byte, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, nil, err
	}
	val, err := DecodeSequence(raw)
	if err != nil {
		return 0, nil, err
	}
	if val+inc < val {
		return 0, nil, errors.Wrap(errors.ErrOverflow, "sequence")
	}
	val += inc
	raw = EncodeSequence(val)
	err = db.Set(s.id, raw)
	return val, raw, err
}

// DecodeSequence reads a value encoded by EncodeSequence. A nil value
// decodes to zero.
func DecodeSequence(bz []byte) (uint64, error) {
	if bz == nil {
		return 0, nil
	}
	if len(bz) != 8 {
		return 0, errors.Wrap(errors.ErrInvalidInput, "sequence value must be 8 bytes")
	}
	return binary.BigEndian.Uint64(bz), nil
}

// EncodeSequence encodes the value as 8 bytes big endian so that the byte
// order matches the numeric order.
func EncodeSequence(val uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, val)
	return bz
}
