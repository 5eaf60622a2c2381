package app

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
//
// Besides dispatching, the router remembers the type of the message
// registered for every path, so that it can decode calls.
type Router struct {
	routes map[string]ledger.Handler
	types  map[string]reflect.Type
}

var (
	_ ledger.Registry = (*Router)(nil)
	_ ledger.Handler  = (*Router)(nil)
)

// NewRouter returns a new empty router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]ledger.Handler, 16),
		types:  make(map[string]reflect.Type, 16),
	}
}

// Handle adds a new Handler for the path of given message. This method
// panics if a handler for the path is already registered, or if the path
// is malformed.
func (r *Router) Handle(m ledger.Msg, h ledger.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h

	t := reflect.TypeOf(m)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.types[path] = t
}

// handler returns the registered Handler for this path. If no path is
// found, returns a noSuchPath Handler. Always returns a non-nil Handler.
func (r *Router) handler(path string) ledger.Handler {
	h, ok := r.routes[path]
	if !ok {
		return noSuchPathHandler(path)
	}
	return h
}

// Paths returns all registered paths in lexical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Check dispatches to the proper handler based on path.
func (r *Router) Check(ctx context.Context, store ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "no message")
	}
	return r.handler(msg.Path()).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path.
func (r *Router) Deliver(ctx context.Context, store ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "no message")
	}
	return r.handler(msg.Path()).Deliver(ctx, store, tx)
}

// noSuchPathHandler returns a handler that always fails with not found.
func noSuchPathHandler(path string) ledger.Handler {
	return noSuchPath{path: path}
}

type noSuchPath struct {
	path string
}

var _ ledger.Handler = noSuchPath{}

func (h noSuchPath) Check(context.Context, ledger.KVStore, ledger.Tx) (*ledger.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", h.path)
}

func (h noSuchPath) Deliver(context.Context, ledger.KVStore, ledger.Tx) (*ledger.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", h.path)
}
