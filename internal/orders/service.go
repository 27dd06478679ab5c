package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/money"
	"github.com/cocoaloft/storefront-backend/pkg/pagination"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes order reads. Order creation happens inside checkout.
type Service interface {
	Get(ctx context.Context, owner types.Identity, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, owner types.Identity, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	repo *Repository
}

// NewService constructs an order service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

// Get loads a single order and re-derives its grand total from the stored
// components. A stored total is never trusted blindly; drift means the row
// was tampered with or a write bug slipped through, and the read fails loudly.
func (s *service) Get(ctx context.Context, owner types.Identity, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}

	if err := VerifyTotal(order); err != nil {
		return nil, err
	}

	goods := order.Subtotal.Sub(order.PromotionDiscount)
	if !SumLines(order.Items).Equal(goods) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order line integrity check failed").
			WithDetails(map[string]string{"order_id": order.ID.String()})
	}
	return order, nil
}

// List pages through the owner's order history.
func (s *service) List(ctx context.Context, owner types.Identity, params pagination.Params) ([]models.Order, string, error) {
	rows, next, err := s.repo.ListByOwner(ctx, owner, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return rows, next, nil
}

// VerifyTotal recomputes subtotal + tax + shipping - promotion - coupon and
// compares it to the stored grand total.
func VerifyTotal(order *models.Order) error {
	recomputed := money.FloorZero(
		order.Subtotal.
			Add(order.Tax).
			Add(order.ShippingCost).
			Sub(order.PromotionDiscount).
			Sub(order.CouponDiscount))
	if !recomputed.Equal(order.GrandTotal) {
		return pkgerrors.New(pkgerrors.CodeInternal, "order total integrity check failed").
			WithDetails(map[string]string{
				"order_id":   order.ID.String(),
				"stored":     order.GrandTotal.StringFixed(2),
				"recomputed": recomputed.StringFixed(2),
			})
	}
	return nil
}

// SumLines recomputes the goods total from the stored line snapshots.
func SumLines(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineSubtotal)
	}
	return total
}
