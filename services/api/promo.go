package api

import (
	"context"
	"net/http"
	"net/url"

	"travelstore/models"

	"github.com/shopspring/decimal"
)

type promoValidationResponse struct {
	Valid          *bool           `json:"valid"`
	IsValid        *bool           `json:"is_valid"`
	PromoCodeID    string          `json:"promo_code_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Message        string          `json:"message"`
}

// ValidatePromo asks the pricing authority whether a code applies to an
// amount. An inapplicable code is a normal answer (Valid false), not an error.
func (c *Client) ValidatePromo(ctx context.Context, req models.PromoValidationRequest) (models.PromoValidationResult, error) {
	q := url.Values{}
	if req.Code != "" {
		q.Set("code", req.Code)
	}
	q.Set("booking_amount", req.BookingAmount.String())
	if req.ItemID != "" {
		q.Set("package_id", req.ItemID)
	}

	var out promoValidationResponse
	err := c.do(ctx, call{op: "validate promo", method: http.MethodPost, path: PathValidatePromo, query: q}, &out)
	if err != nil {
		return models.PromoValidationResult{}, err
	}

	valid := false
	switch {
	case out.Valid != nil:
		valid = *out.Valid
	case out.IsValid != nil:
		valid = *out.IsValid
	}
	return models.PromoValidationResult{
		Valid:          valid,
		PromoCodeID:    out.PromoCodeID,
		DiscountAmount: out.DiscountAmount,
		FinalAmount:    out.FinalAmount,
		Message:        out.Message,
	}, nil
}
