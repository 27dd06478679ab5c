package controllers

import (
	"net/http"
	"time"

	"github.com/cocoaloft/storefront-backend/api/responses"
	"github.com/cocoaloft/storefront-backend/api/validators"
	couponsvc "github.com/cocoaloft/storefront-backend/internal/coupons"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

type validateCouponRequest struct {
	Code        string          `json:"code" validate:"required,min=1,max=64"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"required"`
}

// ValidateCoupon checks a coupon against an order amount without touching
// the usage counter. An invalid coupon is a 200 with is_valid=false, not an
// error; the caller renders the message inline.
func ValidateCoupon(svc couponsvc.Service, m *metrics.StorefrontMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		validation, err := svc.Validate(r.Context(), payload.Code, payload.OrderAmount, time.Now())
		if err != nil {
			if m != nil {
				m.IncCouponValidation("error")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if m != nil {
			outcome := "valid"
			if !validation.Valid {
				outcome = string(validation.Reason)
			}
			m.IncCouponValidation(outcome)
		}

		responses.WriteSuccess(w, validation)
	}
}
