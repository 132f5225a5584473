package models

import "github.com/shopspring/decimal"

// BookingRequest is what the storefront asks the booking service to create.
// It is either a PlainBooking or a PromoBooking; a promo code can only travel
// inside a PromoBooking, so an attached-but-empty code cannot be expressed.
type BookingRequest interface {
	Item() string
	Total() decimal.Decimal
	isBookingRequest()
}

// PlainBooking books an item at its undiscounted total.
type PlainBooking struct {
	ItemID      string
	TotalAmount decimal.Decimal
}

func (b PlainBooking) Item() string           { return b.ItemID }
func (b PlainBooking) Total() decimal.Decimal { return b.TotalAmount }
func (PlainBooking) isBookingRequest()        {}

// PromoBooking books an item with a validated promo code applied.
type PromoBooking struct {
	ItemID      string
	TotalAmount decimal.Decimal
	Code        string
}

func (b PromoBooking) Item() string           { return b.ItemID }
func (b PromoBooking) Total() decimal.Decimal { return b.TotalAmount }
func (PromoBooking) isBookingRequest()        {}

// NewBookingRequest builds the request for a draft: a PromoBooking only when a
// validated promo currently applies.
func NewBookingRequest(d BookingDraft) BookingRequest {
	if p, ok := d.AppliedPromo(); ok {
		return PromoBooking{ItemID: d.ItemID, TotalAmount: p.Result.FinalAmount, Code: p.Code}
	}
	return PlainBooking{ItemID: d.ItemID, TotalAmount: d.BaseTotal()}
}
