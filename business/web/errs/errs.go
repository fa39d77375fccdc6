// Package errs provides types and support for the errors the web api
// returns to its callers.
package errs

import (
	"errors"
	"net/http"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/state"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

// Response is the form used for API responses from failures in the API.
// Message repeats Error for browser clients that read that key.
type Response struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewResponse constructs the response for the message.
func NewResponse(message string, fields map[string]string) Response {
	return Response{
		Error:   message,
		Message: message,
		Fields:  fields,
	}
}

// Trusted is used to pass an error during the request through the
// application with web specific context. The message of a trusted error
// is safe to show the caller.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// FromDomain converts the blockchain errors a caller can act on into
// trusted errors. Trusted errors and any other error are returned untouched.
func FromDomain(err error) error {
	switch {
	case err == nil, IsTrusted(err):
		return err

	case errors.Is(err, mempool.ErrDuplicateTransaction),
		errors.Is(err, state.ErrAlreadyMining),
		errors.Is(err, state.ErrNotMining):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, database.ErrInvalidTransaction),
		errors.Is(err, database.ErrInsufficientBalance),
		errors.Is(err, database.ErrInvalidAmount),
		errors.Is(err, database.ErrInvalidAccountID),
		errors.Is(err, wallet.ErrInvalidKey):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)
	}

	return err
}
