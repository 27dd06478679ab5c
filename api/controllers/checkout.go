package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cocoaloft/storefront-backend/api/middleware"
	"github.com/cocoaloft/storefront-backend/api/responses"
	"github.com/cocoaloft/storefront-backend/api/validators"
	checkoutsvc "github.com/cocoaloft/storefront-backend/internal/checkout"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	SavedAddressID  *uuid.UUID      `json:"saved_address_id,omitempty"`
	ShippingAddress *types.Address  `json:"shipping_address,omitempty"`
	CouponCode      *string         `json:"coupon_code,omitempty" validate:"omitempty,min=1,max=64"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	ExpectedTotal   decimal.Decimal `json:"expected_total" validate:"required"`
}

func (p checkoutRequest) toInput() (checkoutsvc.ConfirmInput, error) {
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return checkoutsvc.ConfirmInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return checkoutsvc.ConfirmInput{
		SavedAddressID:  p.SavedAddressID,
		ShippingAddress: p.ShippingAddress,
		CouponCode:      p.CouponCode,
		PaymentMethod:   method,
		ExpectedTotal:   p.ExpectedTotal,
	}, nil
}

// Checkout confirms the caller's cart into an immutable order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), middleware.IdentityFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
