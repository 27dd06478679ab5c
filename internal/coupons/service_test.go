package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubCouponFinder struct {
	coupon *models.Coupon
	err    error
}

func (s stubCouponFinder) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.coupon, nil
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func intPtr(v int) *int {
	return &v
}

func testCoupon(mutate func(*models.Coupon)) *models.Coupon {
	coupon := &models.Coupon{
		ID:                 uuid.New(),
		Code:               "SAVE10",
		DiscountType:       enums.DiscountTypePercentage,
		DiscountAmount:     d("10"),
		MinimumOrderAmount: d("20"),
		StartDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		IsActive:           true,
	}
	if mutate != nil {
		mutate(coupon)
	}
	return coupon
}

func mustService(t *testing.T, finder couponFinder) Service {
	t.Helper()
	svc, err := NewService(finder)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestValidatePercentageCoupon(t *testing.T) {
	svc := mustService(t, stubCouponFinder{coupon: testCoupon(nil)})
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	result, err := svc.Validate(context.Background(), "SAVE10", d("25.00"), now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got reason %s", result.Reason)
	}
	if !result.DiscountAmount.Equal(d("2.50")) {
		t.Fatalf("expected discount 2.50, got %s", result.DiscountAmount)
	}
	if !result.FinalAmount.Equal(d("22.50")) {
		t.Fatalf("expected final 22.50, got %s", result.FinalAmount)
	}
}

func TestValidateFixedAmountClampsToOrder(t *testing.T) {
	coupon := testCoupon(func(c *models.Coupon) {
		c.DiscountType = enums.DiscountTypeFixedAmount
		c.DiscountAmount = d("30")
		c.MinimumOrderAmount = d("0")
	})
	svc := mustService(t, stubCouponFinder{coupon: coupon})
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	result, err := svc.Validate(context.Background(), "SAVE10", d("12.00"), now)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.DiscountAmount.Equal(d("12.00")) {
		t.Fatalf("expected discount clamped to 12.00, got %s", result.DiscountAmount)
	}
	if !result.FinalAmount.IsZero() {
		t.Fatalf("expected final 0, got %s", result.FinalAmount)
	}
}

func TestValidateFailureReasons(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		finder stubCouponFinder
		amount string
		reason Reason
	}{
		{
			name:   "unknown code",
			finder: stubCouponFinder{err: gorm.ErrRecordNotFound},
			amount: "25.00",
			reason: ReasonNotFound,
		},
		{
			name: "inactive wins over expired",
			finder: stubCouponFinder{coupon: testCoupon(func(c *models.Coupon) {
				c.IsActive = false
				c.EndDate = now.Add(-time.Hour)
			})},
			amount: "25.00",
			reason: ReasonInactive,
		},
		{
			name: "not yet started",
			finder: stubCouponFinder{coupon: testCoupon(func(c *models.Coupon) {
				c.StartDate = now.Add(time.Hour)
			})},
			amount: "25.00",
			reason: ReasonNotYetStarted,
		},
		{
			name: "expired",
			finder: stubCouponFinder{coupon: testCoupon(func(c *models.Coupon) {
				c.EndDate = now.Add(-time.Hour)
			})},
			amount: "25.00",
			reason: ReasonExpired,
		},
		{
			name: "usage limit wins over minimum",
			finder: stubCouponFinder{coupon: testCoupon(func(c *models.Coupon) {
				c.UsageLimit = intPtr(5)
				c.TimesUsed = 5
			})},
			amount: "10.00",
			reason: ReasonUsageLimitReached,
		},
		{
			name:   "below minimum",
			finder: stubCouponFinder{coupon: testCoupon(nil)},
			amount: "19.99",
			reason: ReasonBelowMinimum,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mustService(t, tc.finder)
			result, err := svc.Validate(context.Background(), "SAVE10", d(tc.amount), now)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if result.Valid {
				t.Fatalf("expected invalid result")
			}
			if result.Reason != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, result.Reason)
			}
			if !result.DiscountAmount.IsZero() {
				t.Fatalf("expected zero discount, got %s", result.DiscountAmount)
			}
			if !result.FinalAmount.Equal(d(tc.amount)) {
				t.Fatalf("expected final to echo order amount, got %s", result.FinalAmount)
			}
		})
	}
}

func TestValidateIsPure(t *testing.T) {
	coupon := testCoupon(func(c *models.Coupon) {
		c.UsageLimit = intPtr(10)
		c.TimesUsed = 3
	})
	svc := mustService(t, stubCouponFinder{coupon: coupon})
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := svc.Validate(context.Background(), "SAVE10", d("25.00"), now)
	if err != nil {
		t.Fatalf("first validate: %v", err)
	}
	second, err := svc.Validate(context.Background(), "SAVE10", d("25.00"), now)
	if err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if coupon.TimesUsed != 3 {
		t.Fatalf("validate mutated usage counter: %d", coupon.TimesUsed)
	}
	if !first.DiscountAmount.Equal(second.DiscountAmount) || first.Valid != second.Valid {
		t.Fatalf("repeated validation diverged: %+v vs %+v", first, second)
	}
}

func TestValidationErrMapping(t *testing.T) {
	limit := &Validation{Valid: false, Reason: ReasonUsageLimitReached, Message: "coupon usage limit reached"}
	typed := pkgerrors.As(limit.Err())
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for usage limit, got %v", limit.Err())
	}

	expired := &Validation{Valid: false, Reason: ReasonExpired, Message: "coupon has expired"}
	typed = pkgerrors.As(expired.Err())
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", expired.Err())
	}

	valid := &Validation{Valid: true}
	if valid.Err() != nil {
		t.Fatalf("expected nil for valid coupon")
	}
}
