// Package errors derives low-cardinality labels from errors for logs and metric tags.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

// Classify names the innermost concrete type in err's chain, e.g. "auth_flowerror"
// or "net_operror". Joined errors follow their first member. nil yields "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	err = innermost(err)

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}

func innermost(err error) error {
	for {
		var next error
		switch e := err.(type) { //nolint:errorlint // walking the chain by hand
		case interface{ Unwrap() []error }:
			if errs := e.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		default:
			next = goerrors.Unwrap(err)
		}
		if next == nil {
			return err
		}
		err = next
	}
}
