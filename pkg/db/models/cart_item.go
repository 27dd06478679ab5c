package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line in a cart. A cart holds at most one line per
// (product, gift-wrap state); adding the same combination again is additive.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_line"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_line"`
	Quantity      int       `gorm:"column:quantity;not null"`
	IsGiftWrapped bool      `gorm:"column:is_gift_wrapped;not null;default:false;uniqueIndex:idx_cart_items_line"`
	GiftMessage   *string   `gorm:"column:gift_message"`
	Product       *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
