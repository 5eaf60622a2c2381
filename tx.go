package ledger

import (
	"reflect"

	"github.com/tokenvault/ledger/errors"
)

// Msg is message for the ledger to take an action
// (Make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	// Return the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one test does not pass and message is considered
	// invalid.
	// This validation performs only tests that do not require access to
	// the store.
	Validate() error
}

// Tx represent the data sent from the user to the ledger.
// It includes the actual message, along with information needed
// to authenticate the sender.
type Tx interface {
	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}

	if msg == nil {
		return errors.Wrap(errors.ErrEmpty, "transaction without a message")
	}

	// Destination must be a pointer to a structure that implements Msg.
	if reflect.TypeOf(destination).Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrHuman, "destination must be a pointer")
	}

	dest := reflect.ValueOf(destination)
	src := reflect.ValueOf(msg)
	if src.Kind() == reflect.Ptr {
		if src.IsNil() {
			return errors.Wrap(errors.ErrEmpty, "nil message")
		}
		src = src.Elem()
	}
	if !src.Type().AssignableTo(dest.Elem().Type()) {
		return errors.Wrapf(errors.ErrInvalidType, "want %T message, got %T", destination, msg)
	}

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}

	dest.Elem().Set(src)
	return nil
}
