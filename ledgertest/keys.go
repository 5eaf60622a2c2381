package ledgertest

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/tokenvault/ledger"
	"golang.org/x/crypto/ed25519"
)

// NewCondition returns a condition of a freshly generated ed25519 key.
func NewCondition() ledger.Condition {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return ledger.NewCondition("sigs", "ed25519", pub)
}

// SequenceID returns an ID encoded as if it was generated by the bucket
// sequence.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
