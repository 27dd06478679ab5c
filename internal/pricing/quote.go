package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteLine is one priced cart line. UnitDiscountedPrice equals
// UnitOriginalPrice when no promotion resolved for the product.
type QuoteLine struct {
	ProductID           uuid.UUID       `json:"product_id"`
	ItemID              uuid.UUID       `json:"item_id"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	UnitOriginalPrice   decimal.Decimal `json:"unit_original_price"`
	UnitDiscountedPrice decimal.Decimal `json:"unit_discounted_price"`
	PromotionID         *uuid.UUID      `json:"promotion_applied_id,omitempty"`
	LineSubtotal        decimal.Decimal `json:"line_subtotal"`
	IsGiftWrapped       bool            `json:"is_gift_wrapped"`
	GiftMessage         *string         `json:"gift_message,omitempty"`
}

// Quote is the ephemeral priced view of a cart, recomputed on every read.
// Subtotal is the pre-promotion goods total, so the identity
//
//	GrandTotal = Subtotal + Tax + ShippingCost - PromotionDiscount - CouponDiscount
//
// holds exactly and can be re-verified from the persisted order snapshot.
type Quote struct {
	CartID            uuid.UUID       `json:"cart_id"`
	Lines             []QuoteLine     `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount_total"`
	CouponCode        *string         `json:"coupon_code,omitempty"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount_total"`
	Tax               decimal.Decimal `json:"tax"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
}

// GoodsTotal is the promotion-discounted merchandise total, the amount
// coupon minimums and percentages are checked against.
func (q *Quote) GoodsTotal() decimal.Decimal {
	return q.Subtotal.Sub(q.PromotionDiscount)
}
