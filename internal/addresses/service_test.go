package addresses

import (
	"context"
	"testing"

	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupAddressTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:addresses_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS shipping_addresses (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' ||
    substr(lower(hex(randomblob(2))), 2) || '-a' || substr(lower(hex(randomblob(2))), 2) || '-' ||
    lower(hex(randomblob(6)))),
  owner_kind TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  full_name TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  use_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func buildAddressService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func testAddress(fullName string) types.Address {
	return types.Address{
		FullName:   fullName,
		Line1:      "4 Cacao Way",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
		Country:    "US",
	}
}

func TestAddressService_CreateMarksDefault(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())

	dto, err := svc.Create(context.Background(), owner, CreateAddressInput{
		Address:   testAddress("Robin Lane"),
		IsDefault: true,
	})
	require.NoError(t, err)
	assert.True(t, dto.IsDefault)
	assert.Equal(t, "Robin Lane", dto.Address.FullName)
	assert.Equal(t, 0, dto.UseCount)
}

func TestAddressService_NewDefaultClearsPrevious(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())

	first, err := svc.Create(context.Background(), owner, CreateAddressInput{
		Address:   testAddress("Robin Lane"),
		IsDefault: true,
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), owner, CreateAddressInput{
		Address:   testAddress("Sam Field"),
		IsDefault: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	rows, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Default sorts first; the older default must have been cleared.
	assert.Equal(t, second.ID, rows[0].ID)
	assert.True(t, rows[0].IsDefault)
	assert.Equal(t, first.ID, rows[1].ID)
	assert.False(t, rows[1].IsDefault)
}

func TestAddressService_ListScopedToOwner(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())
	other := types.Guest(uuid.New())

	_, err := svc.Create(context.Background(), owner, CreateAddressInput{Address: testAddress("Robin Lane")})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other, CreateAddressInput{Address: testAddress("Drifter")})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Robin Lane", rows[0].Address.FullName)
}

func TestAddressService_Delete(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())

	dto, err := svc.Create(context.Background(), owner, CreateAddressInput{Address: testAddress("Robin Lane")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), owner, dto.ID))

	rows, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAddressService_DeleteUnknownNotFound(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())

	err := svc.Delete(context.Background(), owner, uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestAddressService_DeleteOtherOwnersAddress(t *testing.T) {
	db := setupAddressTestDB(t)
	svc := buildAddressService(t, db)
	owner := types.User(uuid.New())
	stranger := types.User(uuid.New())

	dto, err := svc.Create(context.Background(), owner, CreateAddressInput{Address: testAddress("Robin Lane")})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), stranger, dto.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	// Still present for the real owner.
	rows, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
