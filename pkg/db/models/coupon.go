package models

import (
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a code-activated discount with a validity window, an optional
// usage limit and a monotonically increasing usage counter. TimesUsed is only
// ever mutated through the ledger's conditional redemption update.
type Coupon struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string             `gorm:"column:code;not null;uniqueIndex:idx_coupons_code_lower"`
	DiscountType       enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountAmount     decimal.Decimal    `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	MinimumOrderAmount decimal.Decimal    `gorm:"column:minimum_order_amount;type:numeric(10,2);not null;default:0"`
	StartDate          time.Time          `gorm:"column:start_date;not null"`
	EndDate            time.Time          `gorm:"column:end_date;not null"`
	UsageLimit         *int               `gorm:"column:usage_limit"`
	TimesUsed          int                `gorm:"column:times_used;not null;default:0"`
	IsActive           bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Coupon) TableName() string {
	return "coupons"
}
