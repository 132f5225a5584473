package promo

import (
	"context"
	"errors"
	"testing"

	"travelstore/models"
	"travelstore/services/api"

	"github.com/shopspring/decimal"
)

type fakeAuthority struct {
	result models.PromoValidationResult
	err    error
	calls  []models.PromoValidationRequest
}

func (f *fakeAuthority) ValidatePromo(ctx context.Context, req models.PromoValidationRequest) (models.PromoValidationResult, error) {
	f.calls = append(f.calls, req)
	return f.result, f.err
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateAppliesDiscount(t *testing.T) {
	authority := &fakeAuthority{result: models.PromoValidationResult{
		Valid:          true,
		DiscountAmount: dec("30"),
		FinalAmount:    dec("270"),
		Message:        "10% off",
	}}
	v := NewValidator(authority, nil)

	res, err := v.Validate(context.Background(), " save10 ", dec("300"), "pkg-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid || !res.FinalAmount.Equal(dec("270")) || !res.DiscountAmount.Equal(dec("30")) {
		t.Fatalf("result = %+v, want valid 30 off 300", res)
	}
	if len(authority.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(authority.calls))
	}
	got := authority.calls[0]
	if got.Code != "SAVE10" || got.ItemID != "pkg-1" || !got.BookingAmount.Equal(dec("300")) {
		t.Fatalf("request = %+v", got)
	}
}

func TestValidateInvalidCodeIsNotAnError(t *testing.T) {
	authority := &fakeAuthority{result: models.PromoValidationResult{
		Valid:          false,
		DiscountAmount: dec("50"),
		Message:        "Promo code has expired",
	}}
	v := NewValidator(authority, nil)

	res, err := v.Validate(context.Background(), "BADCODE", dec("300"), "pkg-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !res.DiscountAmount.IsZero() || !res.FinalAmount.Equal(dec("300")) {
		t.Fatalf("result = %+v, want no discount", res)
	}
	if res.Message != "Promo code has expired" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestValidateRejectsBadInputWithoutCalling(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		base  decimal.Decimal
		field string
	}{
		{name: "empty code", code: "", base: dec("100"), field: "promoCode"},
		{name: "blank code", code: "   ", base: dec("100"), field: "promoCode"},
		{name: "zero amount", code: "SAVE10", base: decimal.Zero, field: "bookingAmount"},
		{name: "negative amount", code: "SAVE10", base: dec("-5"), field: "bookingAmount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authority := &fakeAuthority{}
			v := NewValidator(authority, nil)

			_, err := v.Validate(context.Background(), tt.code, tt.base, "pkg-1")
			var ve *api.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %q, want %q", ve.Field, tt.field)
			}
			if len(authority.calls) != 0 {
				t.Fatalf("calls = %d, want 0", len(authority.calls))
			}
		})
	}
}

func TestValidateFailureYieldsDefinitiveResult(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "network",
			err:     &api.NetworkError{Op: "validate promo", Err: errors.New("connection refused")},
			message: "Failed to validate promo code: the pricing service could not be reached",
		},
		{
			name:    "server",
			err:     &api.ServerError{Status: 500, Message: "Error validating promo code: boom"},
			message: "Error validating promo code: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&fakeAuthority{err: tt.err}, nil)

			res, err := v.Validate(context.Background(), "SAVE10", dec("300"), "pkg-1")
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if res.Valid || !res.FinalAmount.Equal(dec("300")) {
				t.Fatalf("result = %+v, want invalid at base amount", res)
			}
			if res.Message != tt.message {
				t.Fatalf("message = %q, want %q", res.Message, tt.message)
			}
		})
	}
}

func TestValidateKeepsAmountsConsistent(t *testing.T) {
	tests := []struct {
		name         string
		discount     string
		final        string
		wantDiscount string
		wantFinal    string
	}{
		{name: "final disagrees", discount: "30", final: "200", wantDiscount: "30", wantFinal: "270"},
		{name: "discount above base", discount: "500", final: "0", wantDiscount: "300", wantFinal: "0"},
		{name: "negative discount", discount: "-10", final: "310", wantDiscount: "0", wantFinal: "300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&fakeAuthority{result: models.PromoValidationResult{
				Valid:          true,
				DiscountAmount: dec(tt.discount),
				FinalAmount:    dec(tt.final),
			}}, nil)

			res, err := v.Validate(context.Background(), "SAVE", dec("300"), "pkg-1")
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !res.DiscountAmount.Equal(dec(tt.wantDiscount)) || !res.FinalAmount.Equal(dec(tt.wantFinal)) {
				t.Fatalf("discount, final = %s, %s; want %s, %s", res.DiscountAmount, res.FinalAmount, tt.wantDiscount, tt.wantFinal)
			}
		})
	}
}
