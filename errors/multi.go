package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If all errors are nil, then nil is returned. If only one error is not
// nil, it is returned as it is.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// multiErr represents a group of errors. The first one is considered the
// cause so that error code based tests behave in a fail fast manner.
type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m), strings.Join(points, "\n\t"))
}

// Cause returns the first error.
func (m multiErr) Cause() error {
	return m[0]
}

// Unpack returns all aggregated errors.
func (m multiErr) Unpack() []error {
	return []error(m)
}

type unpacker interface {
	Unpack() []error
}
