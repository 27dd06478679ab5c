package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/cocoaloft/storefront-backend/internal/catalog"
	"github.com/cocoaloft/storefront-backend/pkg/config"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubSnapshotLoader struct {
	snapshots map[uuid.UUID]catalog.Snapshot
	err       error
}

func (s stubSnapshotLoader) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots, nil
}

type stubPromotionResolver struct {
	winners map[uuid.UUID]models.Promotion
	err     error
}

func (s stubPromotionResolver) ResolveActiveForProducts(ctx context.Context, ids []uuid.UUID, now time.Time) (map[uuid.UUID]models.Promotion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.winners, nil
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var pricingCfg = config.PricingConfig{
	TaxRatePercent:        "8.25",
	ShippingCost:          "5.99",
	FreeShippingThreshold: "50.00",
}

func buildEngine(t *testing.T, snapshots map[uuid.UUID]catalog.Snapshot, winners map[uuid.UUID]models.Promotion) *Engine {
	t.Helper()
	engine, err := NewEngine(stubSnapshotLoader{snapshots: snapshots}, stubPromotionResolver{winners: winners}, pricingCfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func cartWith(items ...models.CartItem) *models.Cart {
	return &models.Cart{ID: uuid.New(), Items: items}
}

func TestPriceCartEmptyCartIsAllZero(t *testing.T) {
	engine := buildEngine(t, nil, nil)

	quote, err := engine.PriceCart(context.Background(), cartWith(), time.Now())
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}
	if !quote.Subtotal.IsZero() || !quote.GrandTotal.IsZero() || !quote.ShippingCost.IsZero() {
		t.Fatalf("expected all-zero quote, got %+v", quote)
	}
	if len(quote.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(quote.Lines))
	}
}

func TestPriceCartWithoutPromotions(t *testing.T) {
	productID := uuid.New()
	snapshots := map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Dark Truffle Box", UnitPrice: d("7.99"), StockQty: 50, IsActive: true},
	}
	engine := buildEngine(t, snapshots, nil)

	quote, err := engine.PriceCart(context.Background(), cartWith(
		models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: 2},
	), time.Now())
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}

	if !quote.Subtotal.Equal(d("15.98")) {
		t.Fatalf("expected subtotal 15.98, got %s", quote.Subtotal)
	}
	if !quote.PromotionDiscount.IsZero() {
		t.Fatalf("expected no promotion discount, got %s", quote.PromotionDiscount)
	}
	if !quote.Tax.Equal(d("1.32")) {
		t.Fatalf("expected tax 1.32, got %s", quote.Tax)
	}
	if !quote.ShippingCost.Equal(d("5.99")) {
		t.Fatalf("expected shipping 5.99, got %s", quote.ShippingCost)
	}
	// With no discounts the total is exactly goods + tax + shipping.
	if !quote.GrandTotal.Equal(d("23.29")) {
		t.Fatalf("expected grand total 23.29, got %s", quote.GrandTotal)
	}
}

func TestPriceCartAppliesWinningPromotion(t *testing.T) {
	productID := uuid.New()
	promoID := uuid.New()
	snapshots := map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Dark Truffle Box", UnitPrice: d("7.99"), StockQty: 50, IsActive: true},
	}
	winners := map[uuid.UUID]models.Promotion{
		productID: {ID: promoID, Name: "Spring Sale", DiscountPercentage: d("30")},
	}
	engine := buildEngine(t, snapshots, winners)

	quote, err := engine.PriceCart(context.Background(), cartWith(
		models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: 3},
	), time.Now())
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}

	line := quote.Lines[0]
	if line.PromotionID == nil || *line.PromotionID != promoID {
		t.Fatalf("expected promotion %s on line, got %v", promoID, line.PromotionID)
	}
	if !line.UnitDiscountedPrice.Equal(d("5.59")) {
		t.Fatalf("expected discounted unit 5.59, got %s", line.UnitDiscountedPrice)
	}
	if !line.LineSubtotal.Equal(d("16.77")) {
		t.Fatalf("expected line subtotal 16.77, got %s", line.LineSubtotal)
	}

	if !quote.Subtotal.Equal(d("23.97")) {
		t.Fatalf("expected subtotal 23.97, got %s", quote.Subtotal)
	}
	if !quote.PromotionDiscount.Equal(d("7.20")) {
		t.Fatalf("expected promotion discount 7.20, got %s", quote.PromotionDiscount)
	}
	if !quote.GoodsTotal().Equal(d("16.77")) {
		t.Fatalf("expected goods total 16.77, got %s", quote.GoodsTotal())
	}
	// Tax applies to the promotion-discounted goods.
	if !quote.Tax.Equal(d("1.38")) {
		t.Fatalf("expected tax 1.38, got %s", quote.Tax)
	}

	assertIdentity(t, quote)
}

func TestPriceCartWaivesShippingAtThreshold(t *testing.T) {
	productID := uuid.New()
	snapshots := map[uuid.UUID]catalog.Snapshot{
		productID: {ProductID: productID, Name: "Gift Assortment", UnitPrice: d("25.00"), StockQty: 50, IsActive: true},
	}
	engine := buildEngine(t, snapshots, nil)

	quote, err := engine.PriceCart(context.Background(), cartWith(
		models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: 2},
	), time.Now())
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}
	if !quote.ShippingCost.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", quote.ShippingCost)
	}
}

func TestPriceCartMissingSnapshotFailsQuote(t *testing.T) {
	engine := buildEngine(t, map[uuid.UUID]catalog.Snapshot{}, nil)

	_, err := engine.PriceCart(context.Background(), cartWith(
		models.CartItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1},
	), time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyCouponClampsToGoodsTotal(t *testing.T) {
	engine := buildEngine(t, nil, nil)
	quote := &Quote{
		Subtotal:          d("20.00"),
		PromotionDiscount: d("5.00"),
		Tax:               d("1.24"),
		ShippingCost:      d("5.99"),
	}
	quote.GrandTotal = d("22.23")

	engine.ApplyCoupon(quote, "BIGSAVE", d("100.00"))

	if !quote.CouponDiscount.Equal(d("15.00")) {
		t.Fatalf("expected coupon clamped to goods total 15.00, got %s", quote.CouponDiscount)
	}
	if quote.CouponCode == nil || *quote.CouponCode != "BIGSAVE" {
		t.Fatalf("expected coupon code recorded")
	}
	// Goods fully discounted: only tax and shipping remain.
	if !quote.GrandTotal.Equal(d("7.23")) {
		t.Fatalf("expected grand total 7.23, got %s", quote.GrandTotal)
	}
	assertIdentity(t, quote)
}

func assertIdentity(t *testing.T, q *Quote) {
	t.Helper()
	recomputed := q.Subtotal.Add(q.Tax).Add(q.ShippingCost).Sub(q.PromotionDiscount).Sub(q.CouponDiscount)
	if recomputed.IsNegative() {
		recomputed = decimal.Zero
	}
	if !recomputed.Equal(q.GrandTotal) {
		t.Fatalf("total identity broken: recomputed %s, stored %s", recomputed, q.GrandTotal)
	}
}
