package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:catalog_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	row := &models.Category{ID: uuid.New(), Name: name, Slug: slug}
	require.NoError(t, db.Create(row).Error)
	return row
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name, slug string, active bool, createdAt time.Time) *models.Product {
	t.Helper()
	row := &models.Product{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       name,
		Slug:       slug,
		Price:      decimal.RequireFromString("7.99"),
		StockQty:   25,
		IsActive:   active,
	}
	require.NoError(t, db.Create(row).Error)
	// autoCreateTime stamps "now"; pin the keyset column explicitly.
	require.NoError(t, db.Model(row).UpdateColumn("created_at", createdAt).Error)
	row.CreatedAt = createdAt
	return row
}

func TestGetProductHidesInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := seedCategory(t, db, "Truffles", "truffles-get")
	active := seedProduct(t, db, category.ID, "Dark Truffle Box", "dark-truffle-box-get", true, time.Now().UTC())
	retired := seedProduct(t, db, category.ID, "Retired Bar", "retired-bar-get", false, time.Now().UTC())

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	dto, err := svc.GetProduct(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dark Truffle Box", dto.Name)

	_, err = svc.GetProduct(context.Background(), retired.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = svc.GetProduct(context.Background(), uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListProductsPagesNewestFirst(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := seedCategory(t, db, "Bars", "bars-page")
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var names []string
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("Paged Bar %d", i)
		seedProduct(t, db, category.ID, name, fmt.Sprintf("paged-bar-%d", i), true, base.Add(time.Duration(i)*time.Hour))
		names = append(names, name)
	}

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	first, err := svc.ListProducts(context.Background(), ListProductsInput{
		Pagination:   pagination.Params{Limit: 2},
		CategorySlug: "bars-page",
	})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.Equal(t, names[4], first.Products[0].Name)
	assert.Equal(t, names[3], first.Products[1].Name)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListProducts(context.Background(), ListProductsInput{
		Pagination:   pagination.Params{Limit: 2, Cursor: first.NextCursor},
		CategorySlug: "bars-page",
	})
	require.NoError(t, err)
	require.Len(t, second.Products, 2)
	assert.Equal(t, names[2], second.Products[0].Name)
	assert.Equal(t, names[1], second.Products[1].Name)
	require.NotEmpty(t, second.NextCursor)

	last, err := svc.ListProducts(context.Background(), ListProductsInput{
		Pagination:   pagination.Params{Limit: 2, Cursor: second.NextCursor},
		CategorySlug: "bars-page",
	})
	require.NoError(t, err)
	require.Len(t, last.Products, 1)
	assert.Equal(t, names[0], last.Products[0].Name)
	assert.Empty(t, last.NextCursor)
}

func TestListProductsSearchIsCaseInsensitive(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := seedCategory(t, db, "Caramels", "caramels-search")
	seedProduct(t, db, category.ID, "Sea Salt Caramels", "sea-salt-caramels-search", true, time.Now().UTC())
	seedProduct(t, db, category.ID, "Plain Bar", "plain-bar-search", true, time.Now().UTC())

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	result, err := svc.ListProducts(context.Background(), ListProductsInput{
		Pagination:   pagination.Params{Limit: 10},
		CategorySlug: "caramels-search",
		Search:       "sea salt",
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Sea Salt Caramels", result.Products[0].Name)
}

func TestListProductsBadCursorIsValidationError(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.ListProducts(context.Background(), ListProductsInput{
		Pagination: pagination.Params{Limit: 10, Cursor: "!!not-a-cursor!!"},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSnapshotsReturnsOnlyExistingProducts(t *testing.T) {
	db := setupCatalogTestDB(t)
	category := seedCategory(t, db, "Snap", "snap-cat")
	product := seedProduct(t, db, category.ID, "Snapshot Bar", "snapshot-bar", true, time.Now().UTC())
	missing := uuid.New()

	repo := NewRepository(db)
	snapshots, err := repo.Snapshots(context.Background(), []uuid.UUID{product.ID, missing})
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	snap := snapshots[product.ID]
	assert.Equal(t, "Snapshot Bar", snap.Name)
	assert.True(t, snap.UnitPrice.Equal(decimal.RequireFromString("7.99")))
	assert.Equal(t, 25, snap.StockQty)
	_, found := snapshots[missing]
	assert.False(t, found)
}
