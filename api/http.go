package api

import (
	"encoding/json"
	"net/http"

	"github.com/tokenvault/ledger/errors"
)

// HandlerFunc like http.HandlerFunc, but it returns an error.
// The error is translated into a JSON error response with a status code
// derived from the error code.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			JSONErr(w, statusCode(err), err.Error())
		}
	}
}

// statusCode maps registered error codes to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrInvalidInput.Is(err),
		errors.ErrInvalidType.Is(err),
		errors.ErrEmpty.Is(err):
		return http.StatusBadRequest
	case errors.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// JSONResp write content as JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["Internal Server Error"]}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// JSONErr write single error as JSON encoded response.
func JSONErr(w http.ResponseWriter, code int, errText string) {
	resp := struct {
		Errors []string `json:"errors"`
	}{
		Errors: []string{errText},
	}
	JSONResp(w, code, resp)
}
