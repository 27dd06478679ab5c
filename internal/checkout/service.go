package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cocoaloft/storefront-backend/internal/addresses"
	"github.com/cocoaloft/storefront-backend/internal/cart"
	"github.com/cocoaloft/storefront-backend/internal/coupons"
	"github.com/cocoaloft/storefront-backend/internal/orders"
	"github.com/cocoaloft/storefront-backend/internal/pricing"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/metrics"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pricer interface {
	PriceCart(ctx context.Context, c *models.Cart, now time.Time) (*pricing.Quote, error)
	ApplyCoupon(quote *pricing.Quote, code string, discount decimal.Decimal)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal, now time.Time) (*coupons.Validation, error)
}

// Service turns a priced cart into an immutable order.
type Service interface {
	Confirm(ctx context.Context, owner types.Identity, input ConfirmInput) (*models.Order, error)
}

// ConfirmInput is the validated checkout payload. Exactly one of
// SavedAddressID and ShippingAddress is set; ExpectedTotal echoes the grand
// total the client last saw.
type ConfirmInput struct {
	SavedAddressID  *uuid.UUID
	ShippingAddress *types.Address
	CouponCode      *string
	PaymentMethod   enums.PaymentMethod
	ExpectedTotal   decimal.Decimal
}

type service struct {
	cartRepo    cart.CartRepository
	addressRepo *addresses.Repository
	couponRepo  *coupons.Repository
	coupons     couponValidator
	pricer      pricer
	orderRepo   *orders.Repository
	tx          txRunner
	metrics     *metrics.StorefrontMetrics
	now         func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(
	cartRepo cart.CartRepository,
	addressRepo *addresses.Repository,
	couponRepo *coupons.Repository,
	couponSvc couponValidator,
	engine pricer,
	orderRepo *orders.Repository,
	tx txRunner,
	m *metrics.StorefrontMetrics,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if addressRepo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics required")
	}
	return &service{
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		couponRepo:  couponRepo,
		coupons:     couponSvc,
		pricer:      engine,
		orderRepo:   orderRepo,
		tx:          tx,
		metrics:     m,
		now:         time.Now,
	}, nil
}

// Confirm reprices the cart at confirmation time, verifies the client still
// agrees with the total, then writes the order, redeems the coupon, and
// converts the cart in one transaction. A redemption race lost after the
// order insert rolls the whole thing back; the caller never gets an order at
// a price they did not confirm.
func (s *service) Confirm(ctx context.Context, owner types.Identity, input ConfirmInput) (*models.Order, error) {
	order, err := s.confirm(ctx, owner, input)
	s.metrics.IncCheckout(outcomeFor(err))
	return order, err
}

func (s *service) confirm(ctx context.Context, owner types.Identity, input ConfirmInput) (*models.Order, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	activeCart, err := s.cartRepo.FindActiveByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	if len(activeCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	shipTo, savedAddressID, err := s.resolveAddress(ctx, owner, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quote, err := s.pricer.PriceCart(ctx, activeCart, now)
	if err != nil {
		return nil, err
	}

	if input.CouponCode != nil {
		validation, err := s.coupons.Validate(ctx, *input.CouponCode, quote.GoodsTotal(), now)
		if err != nil {
			return nil, err
		}
		if err := validation.Err(); err != nil {
			return nil, err
		}
		s.pricer.ApplyCoupon(quote, validation.Code, validation.DiscountAmount)
	}

	if !quote.GrandTotal.Equal(input.ExpectedTotal) {
		return nil, pkgerrors.New(pkgerrors.CodeStaleQuote,
			"cart total changed since the quote was shown").
			WithDetails(map[string]string{
				"expected": input.ExpectedTotal.StringFixed(2),
				"current":  quote.GrandTotal.StringFixed(2),
			})
	}

	order := orderFromQuote(owner, activeCart.ID, quote, shipTo, input.PaymentMethod)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting order")
		}
		if quote.CouponCode != nil {
			if err := s.couponRepo.WithTx(tx).Redeem(ctx, *quote.CouponCode, now); err != nil {
				return err
			}
		}
		if savedAddressID != nil {
			if err := s.addressRepo.WithTx(tx).IncrementUseCount(ctx, *savedAddressID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating address usage")
			}
		}
		if err := s.cartRepo.WithTx(tx).UpdateStatus(ctx, activeCart.ID, enums.CartStatusConverted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "converting cart")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirming checkout")
	}

	return order, nil
}

func (s *service) resolveAddress(ctx context.Context, owner types.Identity, input ConfirmInput) (types.Address, *uuid.UUID, error) {
	if input.SavedAddressID != nil && input.ShippingAddress != nil {
		return types.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation,
			"provide either saved_address_id or shipping_address, not both")
	}

	if input.SavedAddressID != nil {
		saved, err := s.addressRepo.FindByIDAndOwner(ctx, *input.SavedAddressID, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.Address{}, nil, pkgerrors.New(pkgerrors.CodeNotFound, "saved address not found")
			}
			return types.Address{}, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading saved address")
		}
		return types.Address{
			FullName:   saved.FullName,
			Line1:      saved.Line1,
			Line2:      saved.Line2,
			City:       saved.City,
			State:      saved.State,
			PostalCode: saved.PostalCode,
			Country:    saved.Country,
		}, input.SavedAddressID, nil
	}

	if input.ShippingAddress == nil {
		return types.Address{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	return *input.ShippingAddress, nil, nil
}

func orderFromQuote(owner types.Identity, cartID uuid.UUID, quote *pricing.Quote, shipTo types.Address, payment enums.PaymentMethod) *models.Order {
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ProductID:           &productID,
			Name:                line.Name,
			Quantity:            line.Quantity,
			UnitOriginalPrice:   line.UnitOriginalPrice,
			UnitDiscountedPrice: line.UnitDiscountedPrice,
			PromotionID:         line.PromotionID,
			LineSubtotal:        line.LineSubtotal,
			IsGiftWrapped:       line.IsGiftWrapped,
			GiftMessage:         line.GiftMessage,
		})
	}

	return &models.Order{
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		CartID:            &cartID,
		Status:            enums.OrderStatusPlaced,
		PaymentMethod:     payment,
		Subtotal:          quote.Subtotal,
		PromotionDiscount: quote.PromotionDiscount,
		CouponDiscount:    quote.CouponDiscount,
		CouponCode:        quote.CouponCode,
		Tax:               quote.Tax,
		ShippingCost:      quote.ShippingCost,
		GrandTotal:        quote.GrandTotal,
		ShipFullName:      shipTo.FullName,
		ShipLine1:         shipTo.Line1,
		ShipLine2:         shipTo.Line2,
		ShipCity:          shipTo.City,
		ShipState:         shipTo.State,
		ShipPostalCode:    shipTo.PostalCode,
		ShipCountry:       shipTo.Country,
		Items:             items,
	}
}

func outcomeFor(err error) string {
	if err == nil {
		return "confirmed"
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	switch typed.Code() {
	case pkgerrors.CodeStaleQuote:
		return "stale_quote"
	case pkgerrors.CodeConflict:
		return "usage_limit"
	case pkgerrors.CodeValidation:
		return "rejected"
	default:
		return "error"
	}
}
