package ledger

import (
	"fmt"

	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error result of a check call.
type CheckResult struct {
	// Log is human-readable informational string
	Log string
}

// DeliverResult captures any non-error result of a deliver call.
type DeliverResult struct {
	// Data is a machine-parseable return value, like the id of a created
	// offer.
	Data []byte
	// Log is human-readable informational string
	Log string
	// Events are the notifications emitted by the call. They are
	// published to the sink only once the call state is committed.
	Events []Event
}

// TickResult is a result of the Ticker execution.
type TickResult struct {
	// Events are the notifications emitted during the tick.
	Events []Event
}

// Event is a named notification with a payload describing the state
// transition that happened.
type Event struct {
	// Name of the event, for example offer_created.
	Name string `json:"name"`
	// Attributes are flat key/value pairs that can be used for indexing and
	// filtering.
	Attributes common.KVPairs `json:"attributes"`
	// Payload is the JSON serializable body of the event.
	Payload interface{} `json:"payload"`
}

// NewEvent returns an event with given name and payload. Attributes are
// given as pairs of key and value.
func NewEvent(name string, payload interface{}, kv ...string) Event {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("odd number of attribute arguments: %d", len(kv)))
	}
	var attrs common.KVPairs
	for i := 0; i < len(kv); i += 2 {
		attrs = append(attrs, common.KVPair{Key: []byte(kv[i]), Value: []byte(kv[i+1])})
	}
	return Event{Name: name, Attributes: attrs, Payload: payload}
}

// Attribute returns the value of the first attribute with given key.
func (e Event) Attribute(key string) (string, bool) {
	for _, kv := range e.Attributes {
		if string(kv.Key) == key {
			return string(kv.Value), true
		}
	}
	return "", false
}
