package addresses

import (
	"context"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns shipping address persistence.
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

// ListByOwner returns the owner's addresses, default first, then most
// recently used.
func (r *Repository) ListByOwner(ctx context.Context, owner types.Identity) ([]models.ShippingAddress, error) {
	var rows []models.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID).
		Order("is_default DESC").
		Order("use_count DESC").
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// FindByIDAndOwner loads one address, scoped to its owner.
func (r *Repository) FindByIDAndOwner(ctx context.Context, id uuid.UUID, owner types.Identity) (*models.ShippingAddress, error) {
	var row models.ShippingAddress
	if err := r.db.WithContext(ctx).
		First(&row, "id = ? AND owner_kind = ? AND owner_id = ?", id, owner.Kind, owner.ID).
		Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new address row.
func (r *Repository) Create(ctx context.Context, row *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update saves an existing address row.
func (r *Repository) Update(ctx context.Context, row *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes an address row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ShippingAddress{}).Error
}

// ClearDefault drops the default flag from every address the owner holds.
func (r *Repository) ClearDefault(ctx context.Context, owner types.Identity) error {
	return r.db.WithContext(ctx).
		Model(&models.ShippingAddress{}).
		Where("owner_kind = ? AND owner_id = ? AND is_default = ?", owner.Kind, owner.ID, true).
		Update("is_default", false).
		Error
}

// HasDefault reports whether the owner already holds a default address.
func (r *Repository) HasDefault(ctx context.Context, owner types.Identity) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ShippingAddress{}).
		Where("owner_kind = ? AND owner_id = ? AND is_default = ?", owner.Kind, owner.ID, true).
		Count(&count).
		Error
	return count > 0, err
}

// IncrementUseCount bumps the address's checkout usage counter.
func (r *Repository) IncrementUseCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShippingAddress{}).
		Where("id = ?", id).
		UpdateColumn("use_count", gorm.Expr("use_count + 1")).
		Error
}
