package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all the companion endpoint handlers into one struct.
type HandlerBundle struct {
	// ProtectedAction builds the gate middleware for a guarded route; reason
	// is shown on the login prompt.
	ProtectedAction func(reason string) gin.HandlerFunc

	// Session endpoints
	GetSessionHandler     gin.HandlerFunc
	LoginHandler          gin.HandlerFunc
	RegisterHandler       gin.HandlerFunc
	LogoutHandler         gin.HandlerFunc
	ForgotPasswordHandler gin.HandlerFunc
	ResetPasswordHandler  gin.HandlerFunc
	UpdateProfileHandler  gin.HandlerFunc

	// Draft endpoints
	OpenDraftHandler     gin.HandlerFunc
	GetDraftHandler      gin.HandlerFunc
	UpdateDraftHandler   gin.HandlerFunc
	ValidatePromoHandler gin.HandlerFunc
	CancelDraftHandler   gin.HandlerFunc
	SubmitDraftHandler   gin.HandlerFunc

	// Booking history endpoints
	ListBookingsHandler  gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc
	CancelBookingHandler gin.HandlerFunc
}
