package handlers

import (
	"context"

	"travelstore/models"
	"travelstore/services/booking"

	"github.com/shopspring/decimal"
)

// SessionService is the session cache as the session endpoints use it.
type SessionService interface {
	CheckStatus(ctx context.Context, force bool) models.Status
	Login(ctx context.Context, email, password string) (models.Session, error)
	Register(ctx context.Context, req models.RegistrationRequest) (models.Session, error)
	UpdateProfile(ctx context.Context, patch models.UserUpdateRequest) (*models.User, error)
	Logout(ctx context.Context) error
}

// RecoveryService runs password recovery against the auth service.
type RecoveryService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.PasswordResetRequest) error
}

// DraftService is the booking orchestrator as the draft endpoints use it.
type DraftService interface {
	Open(itemID string, unitPrice decimal.Decimal) (booking.Quote, error)
	Get(id string) (booking.Quote, error)
	Update(id string, patch booking.DraftPatch) (booking.Quote, error)
	ValidatePromo(ctx context.Context, id string) (booking.Quote, error)
	Submit(ctx context.Context, id string) (*models.Booking, error)
	Cancel(id string) error
}

// HistoryService lists and cancels the signed-in user's bookings.
type HistoryService interface {
	ListBookings(ctx context.Context, page, limit int, status string) (*models.BookingList, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) (string, error)
}
