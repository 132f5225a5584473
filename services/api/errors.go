package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the storefront UI.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindServer     Kind = "server"
	KindUnknown    Kind = "unknown"
)

// ValidationError is a client-side precondition failure; no call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// NetworkError means the call could not complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError means the credential was missing, invalid or expired.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ServerError is a non-2xx answer from a service, carrying its message.
type ServerError struct {
	Status  int
	Message string
	Details []string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// ClientRejected reports a 4xx answer.
func (e *ServerError) ClientRejected() bool {
	return e.Status >= 400 && e.Status < 500
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		ne *NetworkError
		ae *AuthError
		se *ServerError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &ne):
		return KindNetwork
	case errors.As(err, &se):
		return KindServer
	default:
		return KindUnknown
	}
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNetwork(err error) bool    { return KindOf(err) == KindNetwork }
func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsServer(err error) bool     { return KindOf(err) == KindServer }
