package booking

import (
	"errors"
	"net/http"

	"travelstore/services/api"
)

var (
	// ErrDraftNotFound means the draft was submitted, cancelled or reset.
	ErrDraftNotFound = errors.New("booking draft not found")

	// ErrStaleValidation means a promo result arrived for input the draft no
	// longer holds and was discarded.
	ErrStaleValidation = errors.New("promo validation superseded")

	// ErrLoginRequired is returned by Submit when no user is signed in. No
	// booking call is made.
	ErrLoginRequired error = &api.AuthError{Status: http.StatusUnauthorized, Message: msgLoginRequired}
)

const msgLoginRequired = "You need to login to access this feature."

// SubmitInProgressError is returned when a draft is submitted twice concurrently.
type SubmitInProgressError struct {
	DraftID string
}

func (e *SubmitInProgressError) Error() string {
	return "booking draft " + e.DraftID + " is already being submitted"
}
