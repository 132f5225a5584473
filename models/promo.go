package models

import "github.com/shopspring/decimal"

// PromoValidationResult is the pricing authority's verdict on a promo code.
type PromoValidationResult struct {
	Valid          bool            `json:"isValid"`
	PromoCodeID    string          `json:"promoCodeId,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	Message        string          `json:"message"`
}

// PromoValidationRequest names the code to check against an amount.
type PromoValidationRequest struct {
	Code          string
	BookingAmount decimal.Decimal
	ItemID        string
}
