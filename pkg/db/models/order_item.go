package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one priced cart line, keeping both the original and the
// promotion-discounted unit price.
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name                string          `gorm:"column:name;not null"`
	Quantity            int             `gorm:"column:quantity;not null"`
	UnitOriginalPrice   decimal.Decimal `gorm:"column:unit_original_price;type:numeric(10,2);not null"`
	UnitDiscountedPrice decimal.Decimal `gorm:"column:unit_discounted_price;type:numeric(10,2);not null"`
	PromotionID         *uuid.UUID      `gorm:"column:promotion_id;type:uuid"`
	LineSubtotal        decimal.Decimal `gorm:"column:line_subtotal;type:numeric(10,2);not null"`
	IsGiftWrapped       bool            `gorm:"column:is_gift_wrapped;not null;default:false"`
	GiftMessage         *string         `gorm:"column:gift_message"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
