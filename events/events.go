/*
Package events forwards notifications emitted by handlers to the outside
world.

The runtime wraps every ledger.Event of a committed call into an Envelope
and hands it to a Sink. Events of failed calls never reach a sink.
*/
package events

import (
	"strings"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
)

// Envelope is a published event together with the call that produced it.
type Envelope struct {
	// Height is the sequence number of the call that emitted the event.
	Height int64 `json:"height"`
	// Time is the block time of the call.
	Time ledger.UnixTime `json:"time"`
	// Path is the message path of the call, or "tick" for events emitted
	// by the ticker.
	Path       string            `json:"path"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Payload    interface{}       `json:"payload,omitempty"`
}

// NewEnvelope wraps an event emitted during the call at given height.
func NewEnvelope(height int64, t ledger.UnixTime, path string, ev ledger.Event) Envelope {
	var attrs map[string]string
	if len(ev.Attributes) > 0 {
		attrs = make(map[string]string, len(ev.Attributes))
		for _, kv := range ev.Attributes {
			attrs[string(kv.Key)] = string(kv.Value)
		}
	}
	return Envelope{
		Height:     height,
		Time:       t,
		Path:       path,
		Name:       ev.Name,
		Attributes: attrs,
		Payload:    ev.Payload,
	}
}

// Filter selects envelopes by event name. An empty filter matches all
// events, otherwise names are separated by comma.
type Filter string

// Match returns true if the envelope is selected by this filter.
func (f Filter) Match(e Envelope) bool {
	if f == "" {
		return true
	}
	for _, name := range strings.Split(string(f), ",") {
		if strings.TrimSpace(name) == e.Name {
			return true
		}
	}
	return false
}

// Sink receives envelopes of committed calls. Publish must not block the
// caller for long, as it is called while the ledger is locked.
type Sink interface {
	Publish(Envelope)
}

// SinkFunc allows to use a function as a Sink.
type SinkFunc func(Envelope)

// Publish calls the function.
func (fn SinkFunc) Publish(e Envelope) {
	fn(e)
}

// MultiSink publishes to all sinks in order.
type MultiSink []Sink

var _ Sink = MultiSink(nil)

// Publish forwards the envelope to every sink.
func (m MultiSink) Publish(e Envelope) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

// LogSink writes every published event to the logger.
type LogSink struct {
	logger log.Logger
}

var _ Sink = LogSink{}

// NewLogSink returns a sink logging with given logger.
func NewLogSink(logger log.Logger) LogSink {
	return LogSink{logger: logger.With("module", "events")}
}

// Publish logs the envelope at info level.
func (s LogSink) Publish(e Envelope) {
	keyvals := []interface{}{"height", e.Height, "path", e.Path}
	for k, v := range e.Attributes {
		keyvals = append(keyvals, k, v)
	}
	s.logger.Info(e.Name, keyvals...)
}
