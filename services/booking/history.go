package booking

import (
	"context"
	"strings"

	"travelstore/models"
	"travelstore/services/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListBookings returns a page of the signed-in user's bookings, optionally
// filtered by status.
func (o *Orchestrator) ListBookings(ctx context.Context, page, limit int, status string) (*models.BookingList, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		return nil, api.NewValidationError("limit", "limit must not exceed 100")
	}
	return o.bookings.ListBookings(ctx, page, limit, strings.ToLower(strings.TrimSpace(status)))
}

// GetBooking fetches one of the user's bookings.
func (o *Orchestrator) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, api.NewValidationError("id", "booking id is required")
	}
	return o.bookings.GetBooking(ctx, id)
}

// CancelBooking cancels one of the user's bookings and returns the service's message.
func (o *Orchestrator) CancelBooking(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", api.NewValidationError("id", "booking id is required")
	}
	return o.bookings.CancelBooking(ctx, id)
}
