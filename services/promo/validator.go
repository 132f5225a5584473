package promo

import (
	"context"
	"errors"
	"strings"

	"travelstore/models"
	"travelstore/services/api"
	"travelstore/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PricingAuthority decides whether a promo code applies and what it is worth.
type PricingAuthority interface {
	ValidatePromo(ctx context.Context, req models.PromoValidationRequest) (models.PromoValidationResult, error)
}

// Validator checks promo codes against the pricing authority, one call per
// invocation and no retries.
type Validator struct {
	authority PricingAuthority
	logger    *zap.Logger
}

func NewValidator(authority PricingAuthority, logger *zap.Logger) *Validator {
	return &Validator{authority: authority, logger: utils.OrNop(logger)}
}

// NormalizeCode trims and upper-cases a code the way the storefront shows it.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks code against baseAmount for itemID.
//
// An empty code or a non-positive amount is a *api.ValidationError and no
// call is made. An inapplicable code is a normal result with Valid false.
// If the call fails, the result is still definitive (Valid false, with an
// explanatory message) and the transport or server error is returned
// alongside it so the caller can notify the user.
func (v *Validator) Validate(ctx context.Context, code string, baseAmount decimal.Decimal, itemID string) (models.PromoValidationResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return models.PromoValidationResult{}, api.NewValidationError("promoCode", "Please enter a promo code")
	}
	return v.validate(ctx, models.PromoValidationRequest{Code: code, BookingAmount: baseAmount, ItemID: itemID})
}

func (v *Validator) validate(ctx context.Context, req models.PromoValidationRequest) (models.PromoValidationResult, error) {
	if !req.BookingAmount.IsPositive() {
		return models.PromoValidationResult{}, api.NewValidationError("bookingAmount", "booking amount must be greater than zero")
	}

	res, err := v.authority.ValidatePromo(ctx, req)
	if err != nil {
		v.logger.Warn("promo validation failed",
			zap.String("code", req.Code),
			zap.String("kind", string(api.KindOf(err))),
			zap.Error(err),
		)
		return failedResult(req.BookingAmount, err), err
	}
	return v.sanitize(req, res), nil
}

// sanitize keeps the result internally consistent: a valid discount lies in
// [0, base] and finalAmount = base - discount; an invalid result discounts nothing.
func (v *Validator) sanitize(req models.PromoValidationRequest, res models.PromoValidationResult) models.PromoValidationResult {
	base := req.BookingAmount
	if !res.Valid {
		res.DiscountAmount = decimal.Zero
		res.FinalAmount = base
		if res.Message == "" {
			res.Message = "Invalid promo code"
		}
		return res
	}

	discount := res.DiscountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	final := base.Sub(discount)
	if !final.Equal(res.FinalAmount) {
		v.logger.Warn("promo final amount disagrees with discount, recomputed",
			zap.String("code", req.Code),
			zap.String("base", base.String()),
			zap.String("discount", discount.String()),
			zap.String("reportedFinal", res.FinalAmount.String()),
		)
	}
	res.DiscountAmount = discount
	res.FinalAmount = final
	if res.Message == "" {
		res.Message = "Promo code applied!"
	}
	return res
}

func failedResult(base decimal.Decimal, err error) models.PromoValidationResult {
	msg := "Failed to validate promo code"
	var (
		se *api.ServerError
		ae *api.AuthError
	)
	switch {
	case errors.As(err, &se):
		msg = se.Message
	case errors.As(err, &ae):
		msg = ae.Message
	case api.IsNetwork(err):
		msg = "Failed to validate promo code: the pricing service could not be reached"
	}
	return models.PromoValidationResult{
		Valid:          false,
		DiscountAmount: decimal.Zero,
		FinalAmount:    base,
		Message:        msg,
	}
}
