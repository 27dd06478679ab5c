package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cocoaloft/storefront-backend/api/middleware"
	"github.com/cocoaloft/storefront-backend/api/responses"
	"github.com/cocoaloft/storefront-backend/api/validators"
	ordersvc "github.com/cocoaloft/storefront-backend/internal/orders"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/types"
)

type orderItemResponse struct {
	ProductID           *uuid.UUID      `json:"product_id,omitempty"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	UnitOriginalPrice   decimal.Decimal `json:"unit_original_price"`
	UnitDiscountedPrice decimal.Decimal `json:"unit_discounted_price"`
	PromotionID         *uuid.UUID      `json:"promotion_applied_id,omitempty"`
	LineSubtotal        decimal.Decimal `json:"line_subtotal"`
	IsGiftWrapped       bool            `json:"is_gift_wrapped"`
	GiftMessage         *string         `json:"gift_message,omitempty"`
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Status            string              `json:"status"`
	PaymentMethod     string              `json:"payment_method"`
	Items             []orderItemResponse `json:"items"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	PromotionDiscount decimal.Decimal     `json:"promotion_discount"`
	CouponCode        *string             `json:"coupon_code,omitempty"`
	CouponDiscount    decimal.Decimal     `json:"coupon_discount"`
	Tax               decimal.Decimal     `json:"tax"`
	ShippingCost      decimal.Decimal     `json:"shipping_cost"`
	GrandTotal        decimal.Decimal     `json:"grand_total"`
	ShippingAddress   types.Address       `json:"shipping_address"`
	CreatedAt         time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:           item.ProductID,
			Name:                item.Name,
			Quantity:            item.Quantity,
			UnitOriginalPrice:   item.UnitOriginalPrice,
			UnitDiscountedPrice: item.UnitDiscountedPrice,
			PromotionID:         item.PromotionID,
			LineSubtotal:        item.LineSubtotal,
			IsGiftWrapped:       item.IsGiftWrapped,
			GiftMessage:         item.GiftMessage,
		})
	}

	return orderResponse{
		ID:                order.ID,
		Status:            order.Status.String(),
		PaymentMethod:     order.PaymentMethod.String(),
		Items:             items,
		Subtotal:          order.Subtotal,
		PromotionDiscount: order.PromotionDiscount,
		CouponCode:        order.CouponCode,
		CouponDiscount:    order.CouponDiscount,
		Tax:               order.Tax,
		ShippingCost:      order.ShippingCost,
		GrandTotal:        order.GrandTotal,
		ShippingAddress:   order.ShippingAddress(),
		CreatedAt:         order.CreatedAt,
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListOrders pages through the caller's order history.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.List(r.Context(), middleware.IdentityFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := orderListResponse{Orders: make([]orderResponse, 0, len(rows)), NextCursor: next}
		for i := range rows {
			out.Orders = append(out.Orders, newOrderResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetOrder returns one order receipt after its totals pass the integrity
// recompute.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), middleware.IdentityFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
