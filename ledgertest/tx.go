package ledgertest

import "github.com/tokenvault/ledger"

// Tx represents a ledger transaction.
// Transaction represents a single message that is to be processed within this
// transaction.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg ledger.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ ledger.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (ledger.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a ledger message.
type Msg struct {
	// RoutePath returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by the Validate method.
	Err error
}

var _ ledger.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
