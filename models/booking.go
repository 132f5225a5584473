package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a booking record created by the booking service.
type Booking struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"package_id"`
	UserID         string          `json:"user_id,omitempty"`
	PromoCodeID    string          `json:"promo_code_id,omitempty"`
	PromoCode      string          `json:"promo_code,omitempty"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	BookingDate    string          `json:"booking_date,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

// BookingList is one page of the signed-in user's bookings.
type BookingList struct {
	Bookings   []Booking `json:"bookings"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// PromoOutcome is a validation result tagged with the input that produced it.
type PromoOutcome struct {
	Code       string                `json:"code"`
	BaseAmount decimal.Decimal       `json:"baseAmount"`
	Result     PromoValidationResult `json:"result"`
}

// BookingDraft is the in-progress, unpersisted booking input of one dialog.
type BookingDraft struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"itemId"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Headcount     int             `json:"headcount"`
	PromoCode     string          `json:"promoCode,omitempty"`
	PromoAttached bool            `json:"hasPromoCode"`
	Validation    *PromoOutcome   `json:"validation,omitempty"`
	OpenedAt      time.Time       `json:"openedAt"`
}

// BaseTotal is unitPrice x headcount.
func (d BookingDraft) BaseTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Headcount)))
}

// AppliedPromo returns the validation that currently prices the draft: attached,
// valid, and computed for the draft's current code text and base total.
func (d BookingDraft) AppliedPromo() (PromoOutcome, bool) {
	v := d.Validation
	if !d.PromoAttached || v == nil || !v.Result.Valid {
		return PromoOutcome{}, false
	}
	if d.PromoCode == "" || v.Code != d.PromoCode || !v.BaseAmount.Equal(d.BaseTotal()) {
		return PromoOutcome{}, false
	}
	return *v, true
}

// Total is the payable amount: the validated final amount when a promo
// applies, otherwise the base total.
func (d BookingDraft) Total() decimal.Decimal {
	if p, ok := d.AppliedPromo(); ok {
		return p.Result.FinalAmount
	}
	return d.BaseTotal()
}
