package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"travelstore/models"
)

type createBookingBody struct {
	PackageID   string      `json:"package_id"`
	TotalAmount json.Number `json:"total_amount"`
	PromoCode   string      `json:"promo_code,omitempty"`
}

// CreateBooking submits req. idempotencyKey lets the service recognise a
// retried submission of the same draft.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest, idempotencyKey string) (*models.Booking, error) {
	body := createBookingBody{PackageID: req.Item(), TotalAmount: json.Number(req.Total().String())}
	switch r := req.(type) {
	case models.PromoBooking:
		body.PromoCode = r.Code
	case models.PlainBooking:
	default:
		return nil, fmt.Errorf("create booking: unsupported request %T", req)
	}

	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var out models.Booking
	err := c.do(ctx, call{op: "create booking", method: http.MethodPost, path: PathBookings, body: body, headers: headers}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings returns one page of the signed-in user's bookings.
func (c *Client) ListBookings(ctx context.Context, page, limit int, status string) (*models.BookingList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if status != "" {
		q.Set("status", status)
	}
	var out models.BookingList
	if err := c.do(ctx, call{op: "list bookings", method: http.MethodGet, path: PathBookings, query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBooking fetches one booking by id.
func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := c.do(ctx, call{op: "get booking", method: http.MethodGet, path: bookingPath(url.PathEscape(id))}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelBooking cancels a booking and returns the service's message.
func (c *Client) CancelBooking(ctx context.Context, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, call{op: "cancel booking", method: http.MethodPost, path: cancelBookingPath(url.PathEscape(id))}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
