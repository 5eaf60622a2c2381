/*
Package api exposes a read only HTTP view of the ledger state and streams
published events over websocket.

  GET /status
  GET /offers?active=1
  GET /offers?status=completed
  GET /offers/{id}
  GET /stakes/{address}
  GET /wallets/{address}
  GET /metrics
  GET /events?name=offer_created,offer_completed
*/
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/x/cash"
)

// Viewer gives read access to the committed state.
type Viewer interface {
	View(fn func(db ledger.ReadOnlyKVStore) error) error
}

// Status describes the runtime state.
type Status interface {
	Viewer
	ChainID() string
	Height() int64
	LastTime() ledger.UnixTime
}

// Clock returns the current time used to evaluate expirations and pending
// rewards.
type Clock func() time.Time

// Options configure the API.
type Options struct {
	// AllowedOrigins is a comma separated list of CORS origins.
	AllowedOrigins string
	// EnableReqLogger logs every served request.
	EnableReqLogger bool
	// Registry if set, collects HTTP metrics and is exposed under
	// /metrics.
	Registry *prometheus.Registry
	// Events if set, is served under /events.
	Events http.Handler
	// Clock defaults to time.Now.
	Clock  Clock
	Logger log.Logger
}

// New return api router
func New(l Status, opts Options) (http.Handler, error) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	router := mux.NewRouter()
	router.Path("/status").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(statusHandler(l)))

	NewOffers(l, clock).Mount(router, "/offers")
	NewStakes(l, clock).Mount(router, "/stakes")
	NewWallets(l, cash.NewController()).Mount(router, "/wallets")

	if opts.Events != nil {
		router.Path("/events").Methods(http.MethodGet).Handler(opts.Events)
	}
	if opts.Registry != nil {
		m, err := newHTTPMetrics(opts.Registry)
		if err != nil {
			return nil, err
		}
		router.Use(m.middleware)
		router.Path("/metrics").Methods(http.MethodGet).Handler(
			promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger.With("module", "api"))
	}
	return handler, nil
}

func statusHandler(l Status) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		JSONResp(w, http.StatusOK, struct {
			ChainID  string          `json:"chain_id"`
			Height   int64           `json:"height"`
			LastTime ledger.UnixTime `json:"last_time"`
		}{
			ChainID:  l.ChainID(),
			Height:   l.Height(),
			LastTime: l.LastTime(),
		})
		return nil
	}
}
