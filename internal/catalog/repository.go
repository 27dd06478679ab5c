package catalog

import (
	"context"
	"strings"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot is the point-in-time product view the pricing and cart layers
// consume. It is read once per operation so a quote never mixes two
// generations of the same product row.
type Snapshot struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	StockQty  int
	IsActive  bool
}

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).
		Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Snapshots loads the pricing snapshots for the requested products. Products
// missing from the result were deleted; callers decide how to surface that.
func (r *Repository) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Snapshot, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Snapshot{}, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Select("id", "name", "price", "stock_qty", "is_active").
		Where("id IN ?", ids).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	snapshots := make(map[uuid.UUID]Snapshot, len(rows))
	for _, row := range rows {
		snapshots[row.ID] = Snapshot{
			ProductID: row.ID,
			Name:      row.Name,
			UnitPrice: row.Price,
			StockQty:  row.StockQty,
			IsActive:  row.IsActive,
		}
	}
	return snapshots, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

type productListQuery struct {
	Pagination   pagination.Params
	CategorySlug string
	Search       string
}

// ListProducts pages through active products newest-first with a keyset
// cursor.
func (r *Repository) ListProducts(ctx context.Context, query productListQuery) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Where("products.is_active = ?", true)

	if slug := strings.TrimSpace(query.CategorySlug); slug != "" {
		qb = qb.Joins("JOIN categories c ON c.id = products.category_id").
			Where("c.slug = ?", slug)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(products.name) LIKE ?", pattern)
	}
	if cursor != nil {
		qb = qb.Where(
			"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	if err := qb.
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
