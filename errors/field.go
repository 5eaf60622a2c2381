package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field attaches the name of the invalid message or model field to err. It
// returns nil if err is nil.
//
// Field errors nest: a list validated on its own reports its elements by
// index, and attaching that result to the list field gives paths such as
// Payment.1 or Conditions.0.DataKey. FieldErrors looks errors up by such a
// path.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField adds the field error of fieldErrOrNil, if any, to
// errorsOrNil.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

// Error prints the full path of directly nested field errors, for example
// `field "Expected.0": invalid amount`.
func (err *fieldError) Error() string {
	path, desc, inner := err.field, err.desc, err.parent
	for desc == "" {
		nested, ok := inner.(*fieldError)
		if !ok {
			break
		}
		path += "." + nested.field
		desc, inner = nested.desc, nested.parent
	}
	if desc == "" {
		return fmt.Sprintf("field %q: %s", path, inner)
	}
	return fmt.Sprintf("field %q: %s: %s", path, desc, inner)
}

// Cause implements the causer interface.
func (err *fieldError) Cause() error {
	return err.parent
}

// FieldErrors returns the field errors found under the given dotted path.
func FieldErrors(err error, path string) []error {
	if isNilErr(err) {
		return nil
	}
	return fieldErrors(err, "", path)
}

func fieldErrors(err error, prefix, path string) []error {
	for err != nil {
		if f, ok := err.(*fieldError); ok {
			full := f.field
			if prefix != "" {
				full = prefix + "." + f.field
			}
			switch {
			case full == path:
				return []error{err}
			case strings.HasPrefix(path, full+"."):
				return fieldErrors(f.parent, full, path)
			default:
				return nil
			}
		}
		if u, ok := err.(unpacker); ok {
			var res []error
			for _, e := range u.Unpack() {
				res = append(res, fieldErrors(e, prefix, path)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}
