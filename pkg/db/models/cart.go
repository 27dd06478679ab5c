package models

import (
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// Cart is the mutable shopping aggregate for a single owner identity.
// At most one active cart exists per (owner_kind, owner_id).
type Cart struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKind enums.IdentityKind `gorm:"column:owner_kind;not null;uniqueIndex:idx_carts_owner_active,where:status = 'active'"`
	OwnerID   uuid.UUID          `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_carts_owner_active,where:status = 'active'"`
	Status    enums.CartStatus   `gorm:"column:status;not null;default:'active'"`
	Items     []CartItem         `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string {
	return "carts"
}
