package coupons

import (
	"context"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository owns coupon reads and the single mutation the ledger allows,
// the conditional redemption increment.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode looks a coupon up case-insensitively.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).
		Where("lower(code) = lower(?)", code).
		First(&coupon).
		Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Redeem consumes one unit of the coupon's usage allowance. The whole check
// runs inside one conditional UPDATE so two checkouts racing for the last
// unit cannot both succeed; the loser sees zero rows affected. times_used is
// never mutated anywhere else.
func (r *Repository) Redeem(ctx context.Context, code string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("lower(code) = lower(?)", code).
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Where("usage_limit IS NULL OR times_used < usage_limit").
		UpdateColumn("times_used", gorm.Expr("times_used + 1"))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "redeeming coupon")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached")
	}
	return nil
}
