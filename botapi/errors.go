package botapi

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// APIError is a well-formed response with ok == false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// TransportError covers connection failures, timeouts and undecodable responses.
// Err never carries the request URL since it contains the token.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram %s: %v", e.Method, e.Err)
}

// Cause returns the underlying error.
func (e *TransportError) Cause() error {
	return e.Err
}

// AddressingError is returned by EditMessageText when the target names no message.
type AddressingError struct{}

func (e *AddressingError) Error() string {
	return "ambiguous or missing target: need inline message id, message, or chat id and message id"
}

func transportError(method string, err error) error {
	if uerr, ok := errors.Cause(err).(*url.Error); ok {
		err = uerr.Err
	}
	return &TransportError{Method: method, Err: err}
}
