package events

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
)

func TestNewEnvelope(t *testing.T) {
	ev := ledger.NewEvent("offer_created", map[string]int{"id": 1}, "offer_id", "1", "status", "active")
	env := NewEnvelope(7, 100, "escrow/create_offer", ev)

	assert.Equal(t, int64(7), env.Height)
	assert.Equal(t, ledger.UnixTime(100), env.Time)
	assert.Equal(t, "offer_created", env.Name)
	assert.Equal(t, map[string]string{"offer_id": "1", "status": "active"}, env.Attributes)

	bare := NewEnvelope(1, 1, "tick", ledger.NewEvent("offer_expired", nil))
	assert.Nil(t, bare.Attributes)
}

func TestFilter(t *testing.T) {
	env := Envelope{Name: "stake"}
	cases := map[string]struct {
		filter Filter
		want   bool
	}{
		"empty matches all": {filter: "", want: true},
		"exact name":        {filter: "stake", want: true},
		"one of many":       {filter: "offer_created, stake", want: true},
		"other name":        {filter: "claim_rewards", want: false},
		"prefix only":       {filter: "sta", want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Match(env))
		})
	}
}

func TestMultiSink(t *testing.T) {
	var got []string
	a := SinkFunc(func(e Envelope) { got = append(got, "a:"+e.Name) })
	b := SinkFunc(func(e Envelope) { got = append(got, "b:"+e.Name) })

	MultiSink{a, nil, b}.Publish(Envelope{Name: "stake"})
	assert.Equal(t, []string{"a:stake", "b:stake"}, got)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(log.NewTMLogger(&buf))
	sink.Publish(Envelope{Height: 3, Path: "staking/stake", Name: "stake", Attributes: map[string]string{"owner": "abc"}})

	out := buf.String()
	assert.Contains(t, out, "stake")
	assert.Contains(t, out, "height=3")
	assert.Contains(t, out, "owner=abc")
}

func TestHubStreamsMatchingEvents(t *testing.T) {
	hub := NewHub(log.NewNopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?name=offer_created"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(Envelope{Height: 1, Name: "stake"})
	hub.Publish(Envelope{Height: 2, Name: "offer_created", Attributes: map[string]string{"offer_id": "1"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, int64(2), got.Height)
	assert.Equal(t, "offer_created", got.Name)
	assert.Equal(t, "1", got.Attributes["offer_id"])
}

func TestHubForgetsClosedSubscribers(t *testing.T) {
	hub := NewHub(log.NewNopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)

	// publishing without subscribers is a no-op
	hub.Publish(Envelope{Name: "stake"})
}
