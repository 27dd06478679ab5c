package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/cocoaloft/storefront-backend/internal/catalog"
	"github.com/cocoaloft/storefront-backend/pkg/config"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type snapshotLoader interface {
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error)
}

type promotionResolver interface {
	ResolveActiveForProducts(ctx context.Context, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]models.Promotion, error)
}

// Engine prices carts. It never checks stock and never mutates anything;
// quantity validation lives at the cart mutation boundary and redemption in
// the coupon ledger.
type Engine struct {
	catalog    snapshotLoader
	promotions promotionResolver

	taxRatePercent        decimal.Decimal
	shippingCost          decimal.Decimal
	freeShippingThreshold decimal.Decimal
}

// NewEngine builds the pricing engine from the configured rates.
func NewEngine(catalogRepo snapshotLoader, promotionRepo promotionResolver, cfg config.PricingConfig) (*Engine, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog snapshot loader required")
	}
	if promotionRepo == nil {
		return nil, fmt.Errorf("promotion resolver required")
	}

	taxRate, err := decimal.NewFromString(cfg.TaxRatePercent)
	if err != nil {
		return nil, fmt.Errorf("parsing tax rate %q: %w", cfg.TaxRatePercent, err)
	}
	shipping, err := decimal.NewFromString(cfg.ShippingCost)
	if err != nil {
		return nil, fmt.Errorf("parsing shipping cost %q: %w", cfg.ShippingCost, err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parsing free shipping threshold %q: %w", cfg.FreeShippingThreshold, err)
	}

	return &Engine{
		catalog:               catalogRepo,
		promotions:            promotionRepo,
		taxRatePercent:        taxRate,
		shippingCost:          shipping,
		freeShippingThreshold: threshold,
	}, nil
}

// PriceCart produces a full quote for the cart at the given instant. The
// promotion pass runs first; coupon amounts are folded in afterwards via
// ApplyCoupon. An unreachable catalog fails the whole quote, nothing partial
// comes back.
func (e *Engine) PriceCart(ctx context.Context, cart *models.Cart, now time.Time) (*Quote, error) {
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}

	quote := &Quote{
		CartID:            cart.ID,
		Lines:             []QuoteLine{},
		Subtotal:          decimal.Zero,
		PromotionDiscount: decimal.Zero,
		CouponDiscount:    decimal.Zero,
		Tax:               decimal.Zero,
		ShippingCost:      decimal.Zero,
		GrandTotal:        decimal.Zero,
	}
	if len(cart.Items) == 0 {
		return quote, nil
	}

	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	snapshots, err := e.catalog.Snapshots(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product snapshots")
	}
	winners, err := e.promotions.ResolveActiveForProducts(ctx, productIDs, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving promotions")
	}

	for _, item := range cart.Items {
		snapshot, ok := snapshots[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", item.ProductID))
		}

		line := QuoteLine{
			ProductID:           item.ProductID,
			ItemID:              item.ID,
			Name:                snapshot.Name,
			Quantity:            item.Quantity,
			UnitOriginalPrice:   snapshot.UnitPrice,
			UnitDiscountedPrice: snapshot.UnitPrice,
			IsGiftWrapped:       item.IsGiftWrapped,
			GiftMessage:         item.GiftMessage,
		}

		if promo, ok := winners[item.ProductID]; ok {
			promoID := promo.ID
			line.PromotionID = &promoID
			line.UnitDiscountedPrice = money.DiscountUnit(snapshot.UnitPrice, promo.DiscountPercentage)
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		line.LineSubtotal = line.UnitDiscountedPrice.Mul(qty)

		quote.Lines = append(quote.Lines, line)
		quote.Subtotal = quote.Subtotal.Add(line.UnitOriginalPrice.Mul(qty))
		quote.PromotionDiscount = quote.PromotionDiscount.Add(
			line.UnitOriginalPrice.Sub(line.UnitDiscountedPrice).Mul(qty))
	}

	goods := quote.GoodsTotal()
	quote.Tax = money.ApplyPercent(goods, e.taxRatePercent)
	if goods.LessThan(e.freeShippingThreshold) {
		quote.ShippingCost = e.shippingCost
	}
	quote.GrandTotal = grandTotal(quote)
	return quote, nil
}

// ApplyCoupon folds an already-validated coupon discount into the quote.
// Tax and shipping are unchanged; the coupon comes off at the end.
func (e *Engine) ApplyCoupon(quote *Quote, code string, discount decimal.Decimal) {
	if quote == nil {
		return
	}
	quote.CouponCode = &code
	quote.CouponDiscount = money.Min(discount, quote.GoodsTotal())
	quote.GrandTotal = grandTotal(quote)
}

func grandTotal(q *Quote) decimal.Decimal {
	return money.FloorZero(
		q.Subtotal.
			Add(q.Tax).
			Add(q.ShippingCost).
			Sub(q.PromotionDiscount).
			Sub(q.CouponDiscount))
}
