package models

import (
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// ShippingAddress is a saved postal address scoped to one owner identity.
// At most one address per owner carries is_default.
type ShippingAddress struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKind  enums.IdentityKind `gorm:"column:owner_kind;not null;index:idx_shipping_addresses_owner"`
	OwnerID    uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;index:idx_shipping_addresses_owner"`
	FullName   string             `gorm:"column:full_name;not null"`
	Line1      string             `gorm:"column:line1;not null"`
	Line2      *string            `gorm:"column:line2"`
	City       string             `gorm:"column:city;not null"`
	State      string             `gorm:"column:state;not null"`
	PostalCode string             `gorm:"column:postal_code;not null"`
	Country    string             `gorm:"column:country;not null"`
	IsDefault  bool               `gorm:"column:is_default;not null;default:false"`
	UseCount   int                `gorm:"column:use_count;not null;default:0"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}
