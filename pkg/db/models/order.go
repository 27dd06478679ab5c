package models

import (
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the immutable snapshot written at checkout confirmation. Every
// monetary component is copied so the grand total can be recomputed and
// verified from stored values alone.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKind         enums.IdentityKind  `gorm:"column:owner_kind;not null;index:idx_orders_owner"`
	OwnerID           uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index:idx_orders_owner"`
	CartID            *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'placed'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	PromotionDiscount decimal.Decimal     `gorm:"column:promotion_discount;type:numeric(10,2);not null;default:0"`
	CouponDiscount    decimal.Decimal     `gorm:"column:coupon_discount;type:numeric(10,2);not null;default:0"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null;default:0"`
	ShippingCost      decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(10,2);not null;default:0"`
	GrandTotal        decimal.Decimal     `gorm:"column:grand_total;type:numeric(10,2);not null"`
	ShipFullName      string              `gorm:"column:ship_full_name;not null"`
	ShipLine1         string              `gorm:"column:ship_line1;not null"`
	ShipLine2         *string             `gorm:"column:ship_line2"`
	ShipCity          string              `gorm:"column:ship_city;not null"`
	ShipState         string              `gorm:"column:ship_state;not null"`
	ShipPostalCode    string              `gorm:"column:ship_postal_code;not null"`
	ShipCountry       string              `gorm:"column:ship_country;not null"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// ShippingAddress reassembles the snapshot columns into the shared payload.
func (o *Order) ShippingAddress() types.Address {
	return types.Address{
		FullName:   o.ShipFullName,
		Line1:      o.ShipLine1,
		Line2:      o.ShipLine2,
		City:       o.ShipCity,
		State:      o.ShipState,
		PostalCode: o.ShipPostalCode,
		Country:    o.ShipCountry,
	}
}
