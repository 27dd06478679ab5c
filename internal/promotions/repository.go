package promotions

import (
	"context"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository resolves which promotion applies to a product. The promotion
// tables are admin-maintained; nothing here writes to them.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const activePromotionQuery = `
SELECT p.id, p.name, p.discount_percentage, p.start_date, p.end_date,
       p.is_active, p.created_at, p.updated_at, pp.product_id
FROM promotions p
JOIN promotion_products pp ON pp.promotion_id = p.id
WHERE pp.product_id IN ?
  AND p.is_active = true
  AND p.start_date <= ?
  AND p.end_date >= ?
ORDER BY p.created_at ASC, p.id ASC
`

// ResolveActiveForProducts returns, for each product with at least one
// eligible promotion, the winning promotion. When windows overlap the oldest
// promotion wins, with id as the final tie-break, so the result is stable
// across replicas and restarts.
func (r *Repository) ResolveActiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]models.Promotion, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]models.Promotion{}, nil
	}

	type row struct {
		models.Promotion
		ProductID uuid.UUID
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Raw(activePromotionQuery, productIDs, now, now).
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}

	winners := make(map[uuid.UUID]models.Promotion, len(rows))
	for _, row := range rows {
		if _, taken := winners[row.ProductID]; taken {
			continue
		}
		winners[row.ProductID] = row.Promotion
	}
	return winners, nil
}

// ResolveActive resolves the promotion for a single product, or nil when no
// eligible promotion exists.
func (r *Repository) ResolveActive(ctx context.Context, productID uuid.UUID, now time.Time) (*models.Promotion, error) {
	winners, err := r.ResolveActiveForProducts(ctx, []uuid.UUID{productID}, now)
	if err != nil {
		return nil, err
	}
	promo, ok := winners[productID]
	if !ok {
		return nil, nil
	}
	return &promo, nil
}
