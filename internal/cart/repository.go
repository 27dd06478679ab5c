package cart

import (
	"context"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository implements CartRepository on GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// FindActiveByOwner loads the owner's active cart with its lines. Items come
// back oldest-first so quote line order is stable across reads.
func (r *Repository) FindActiveByOwner(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("owner_kind = ? AND owner_id = ? AND status = ?",
			owner.Kind, owner.ID, enums.CartStatusActive).
		First(&cart).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItem loads one line of the given cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).
		Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine loads the line for a (product, gift-wrap state) pair, if present.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID, isGiftWrapped bool) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		First(&item, "cart_id = ? AND product_id = ? AND is_gift_wrapped = ?",
			cartID, productID, isGiftWrapped).
		Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem saves an existing cart line.
func (r *Repository) UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes one line from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).
		Error
}

// UpdateStatus moves the cart through its lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).
		Error
}

// AdoptOwner re-owns the cart, used when a guest identity merges into a
// registered user.
func (r *Repository) AdoptOwner(ctx context.Context, cartID uuid.UUID, owner types.Identity) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"owner_kind": owner.Kind,
			"owner_id":   owner.ID,
		}).
		Error
}
