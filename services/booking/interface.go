package booking

import (
	"context"

	"travelstore/models"

	"github.com/shopspring/decimal"
)

// BookingAPI is the booking service as the orchestrator uses it.
type BookingAPI interface {
	CreateBooking(ctx context.Context, req models.BookingRequest, idempotencyKey string) (*models.Booking, error)
	ListBookings(ctx context.Context, page, limit int, status string) (*models.BookingList, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) (string, error)
}

// PromoValidator checks a code against a base amount.
type PromoValidator interface {
	Validate(ctx context.Context, code string, baseAmount decimal.Decimal, itemID string) (models.PromoValidationResult, error)
}

// DraftPatch is a partial update of a draft; nil fields are left unchanged.
type DraftPatch struct {
	Headcount    *int    `json:"headcount"`
	PromoCode    *string `json:"promoCode"`
	HasPromoCode *bool   `json:"hasPromoCode"`
}

// Quote is a draft together with what it currently costs.
type Quote struct {
	Draft        models.BookingDraft `json:"draft"`
	BaseTotal    decimal.Decimal     `json:"baseTotal"`
	Discount     decimal.Decimal     `json:"discount"`
	Total        decimal.Decimal     `json:"total"`
	PromoApplied bool                `json:"promoApplied"`
}

// ComputeTotal is the payable amount of d: the validated final amount when an
// attached, valid promo was computed for the draft's current code and base
// total, otherwise unitPrice x headcount.
func ComputeTotal(d models.BookingDraft) decimal.Decimal {
	return d.Total()
}

func quote(d models.BookingDraft) Quote {
	base := d.BaseTotal()
	total := ComputeTotal(d)
	_, applied := d.AppliedPromo()
	return Quote{
		Draft:        d,
		BaseTotal:    base,
		Discount:     base.Sub(total),
		Total:        total,
		PromoApplied: applied,
	}
}
