package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion is an admin-defined percentage discount over a product set,
// bounded by a time window. Read-only to the pricing engine.
type Promotion struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	StartDate          time.Time       `gorm:"column:start_date;not null"`
	EndDate            time.Time       `gorm:"column:end_date;not null"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	Products           []Product       `gorm:"many2many:promotion_products"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Promotion) TableName() string {
	return "promotions"
}
