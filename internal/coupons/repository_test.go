package coupons

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCouponTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:coupons_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_type TEXT NOT NULL,
  discount_amount NUMERIC NOT NULL,
  minimum_order_amount NUMERIC NOT NULL DEFAULT 0,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  usage_limit INTEGER,
  times_used INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, code string, usageLimit *int, timesUsed int) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:                 uuid.New(),
		Code:               code,
		DiscountType:       enums.DiscountTypePercentage,
		DiscountAmount:     d("10"),
		MinimumOrderAmount: d("0"),
		StartDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		UsageLimit:         usageLimit,
		TimesUsed:          timesUsed,
		IsActive:           true,
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestRepositoryFindByCodeCaseInsensitive(t *testing.T) {
	db := setupCouponTestDB(t)
	repo := NewRepository(db)
	seeded := seedCoupon(t, db, "WeLcOmE", nil, 0)

	found, err := repo.FindByCode(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRedeemIncrementsCounter(t *testing.T) {
	db := setupCouponTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, db, "REDEEM-OK", intPtr(2), 0)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Redeem(context.Background(), "redeem-ok", now))
	require.NoError(t, repo.Redeem(context.Background(), "REDEEM-OK", now))

	var reloaded models.Coupon
	require.NoError(t, db.Where("code = ?", "REDEEM-OK").First(&reloaded).Error)
	assert.Equal(t, 2, reloaded.TimesUsed)

	// Third redemption loses the conditional update.
	err := repo.Redeem(context.Background(), "REDEEM-OK", now)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	require.NoError(t, db.Where("code = ?", "REDEEM-OK").First(&reloaded).Error)
	assert.Equal(t, 2, reloaded.TimesUsed)
}

func TestRepositoryRedeemConcurrentStopsAtLimit(t *testing.T) {
	db := setupCouponTestDB(t)

	// sqlite permits one writer at a time; a single pooled connection keeps
	// the racing goroutines from hitting its lock errors.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewRepository(db)
	seedCoupon(t, db, "RACE-3", intPtr(3), 0)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	const racers = 10
	var (
		wg        sync.WaitGroup
		successes int32
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Redeem(context.Background(), "RACE-3", now)
			if err == nil {
				atomic.AddInt32(&successes, 1)
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeConflict {
				t.Errorf("unexpected redeem error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&successes))

	var reloaded models.Coupon
	require.NoError(t, db.Where("code = ?", "RACE-3").First(&reloaded).Error)
	assert.Equal(t, 3, reloaded.TimesUsed)
}

func TestRepositoryRedeemRespectsWindowAndActivity(t *testing.T) {
	db := setupCouponTestDB(t)
	repo := NewRepository(db)

	cases := []struct {
		name   string
		mutate func(*models.Coupon)
	}{
		{"inactive", func(c *models.Coupon) { c.IsActive = false }},
		{"before window", func(c *models.Coupon) { c.StartDate = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }},
		{"after window", func(c *models.Coupon) { c.EndDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }},
	}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := fmt.Sprintf("WINDOW-%d", i)
			coupon := seedCoupon(t, db, code, nil, 0)
			tc.mutate(coupon)
			require.NoError(t, db.Save(coupon).Error)

			err := repo.Redeem(context.Background(), code, now)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
		})
	}
}

func TestRepositoryRedeemUnlimitedCoupon(t *testing.T) {
	db := setupCouponTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, db, "NO-LIMIT", nil, 40)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Redeem(context.Background(), "NO-LIMIT", now))

	var reloaded models.Coupon
	require.NoError(t, db.Where("code = ?", "NO-LIMIT").First(&reloaded).Error)
	assert.Equal(t, 41, reloaded.TimesUsed)
}
