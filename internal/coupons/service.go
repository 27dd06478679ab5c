package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reason identifies why a coupon failed validation.
type Reason string

const (
	ReasonNotFound          Reason = "not_found"
	ReasonInactive          Reason = "inactive"
	ReasonNotYetStarted     Reason = "not_yet_started"
	ReasonExpired           Reason = "expired"
	ReasonUsageLimitReached Reason = "usage_limit_reached"
	ReasonBelowMinimum      Reason = "below_minimum"
)

// Validation is the outcome of checking a coupon against an order amount.
// An invalid coupon is a normal outcome, not an error; Reason and Message
// say why, the discount is zero and FinalAmount echoes the order amount.
type Validation struct {
	Code           string          `json:"code"`
	Valid          bool            `json:"is_valid"`
	Reason         Reason          `json:"reason,omitempty"`
	Message        string          `json:"message"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// Err converts an invalid validation into its taxonomy error. Losing the
// usage-limit race is a conflict; every other reason is the caller's input.
func (v *Validation) Err() error {
	if v.Valid {
		return nil
	}
	if v.Reason == ReasonUsageLimitReached {
		return pkgerrors.New(pkgerrors.CodeConflict, v.Message)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, v.Message)
}

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Service exposes coupon validation. Redemption stays on the repository so
// checkout can run it inside its own transaction.
type Service interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal, now time.Time) (*Validation, error)
}

type service struct {
	repo couponFinder
}

// NewService constructs a coupon service instance.
func NewService(repo couponFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// Validate checks the coupon against the promotion-discounted order amount.
// The check order is fixed because the first failing check owns the
// user-facing message. Pure: calling it never changes ledger state.
func (s *service) Validate(ctx context.Context, code string, orderAmount decimal.Decimal, now time.Time) (*Validation, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid(code, orderAmount, ReasonNotFound, "coupon code not found"), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}

	if !coupon.IsActive {
		return invalid(code, orderAmount, ReasonInactive, "coupon is no longer active"), nil
	}
	if now.Before(coupon.StartDate) {
		return invalid(code, orderAmount, ReasonNotYetStarted, "coupon is not yet active"), nil
	}
	if now.After(coupon.EndDate) {
		return invalid(code, orderAmount, ReasonExpired, "coupon has expired"), nil
	}
	if coupon.UsageLimit != nil && coupon.TimesUsed >= *coupon.UsageLimit {
		return invalid(code, orderAmount, ReasonUsageLimitReached, "coupon usage limit reached"), nil
	}
	if orderAmount.LessThan(coupon.MinimumOrderAmount) {
		msg := fmt.Sprintf("order must be at least %s to use this coupon", coupon.MinimumOrderAmount.StringFixed(2))
		return invalid(code, orderAmount, ReasonBelowMinimum, msg), nil
	}

	discount := discountFor(coupon, orderAmount)
	return &Validation{
		Code:           coupon.Code,
		Valid:          true,
		Message:        "coupon applied",
		DiscountAmount: discount,
		FinalAmount:    money.FloorZero(orderAmount.Sub(discount)),
	}, nil
}

func discountFor(coupon *models.Coupon, orderAmount decimal.Decimal) decimal.Decimal {
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		return money.ApplyPercent(orderAmount, coupon.DiscountAmount)
	case enums.DiscountTypeFixedAmount:
		return money.Min(coupon.DiscountAmount, orderAmount)
	default:
		return decimal.Zero
	}
}

func invalid(code string, orderAmount decimal.Decimal, reason Reason, message string) *Validation {
	return &Validation{
		Code:           code,
		Valid:          false,
		Reason:         reason,
		Message:        message,
		DiscountAmount: decimal.Zero,
		FinalAmount:    orderAmount,
	}
}
