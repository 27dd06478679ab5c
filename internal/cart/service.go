package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cocoaloft/storefront-backend/internal/catalog"
	"github.com/cocoaloft/storefront-backend/internal/pricing"
	"github.com/cocoaloft/storefront-backend/pkg/db"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/metrics"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxLineQuantity caps a single cart line.
	MaxLineQuantity = 100
	// MaxGiftMessageLen caps the gift message attached to a wrapped line.
	MaxGiftMessageLen = 200
)

type pricer interface {
	PriceCart(ctx context.Context, cart *models.Cart, now time.Time) (*pricing.Quote, error)
}

type snapshotLoader interface {
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error)
}

// Service exposes cart reads and mutations. Every operation answers with a
// freshly priced quote.
type Service interface {
	GetQuote(ctx context.Context, owner types.Identity) (*pricing.Quote, error)
	AddItem(ctx context.Context, owner types.Identity, input AddItemInput) (*pricing.Quote, error)
	UpdateItemQty(ctx context.Context, owner types.Identity, itemID uuid.UUID, quantity int) (*pricing.Quote, error)
	RemoveItem(ctx context.Context, owner types.Identity, itemID uuid.UUID) (*pricing.Quote, error)
}

// AddItemInput captures the payload to add or top up a cart line.
type AddItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	IsGiftWrapped bool
	GiftMessage   *string
}

type service struct {
	repo    CartRepository
	catalog snapshotLoader
	pricer  pricer
	metrics *metrics.StorefrontMetrics
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, catalogRepo snapshotLoader, engine pricer, m *metrics.StorefrontMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog snapshot loader required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics required")
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		pricer:  engine,
		metrics: m,
		now:     time.Now,
	}, nil
}

// GetQuote prices the owner's active cart, creating an empty one on first
// touch.
func (s *service) GetQuote(ctx context.Context, owner types.Identity) (*pricing.Quote, error) {
	cart, err := s.loadOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, cart)
}

// AddItem adds a line, or tops up the existing line for the same product and
// gift-wrap state. Stock is checked here, against the line's total quantity,
// never inside the pricing pass.
func (s *service) AddItem(ctx context.Context, owner types.Identity, input AddItemInput) (*pricing.Quote, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if err := validateGiftMessage(input.IsGiftWrapped, input.GiftMessage); err != nil {
		return nil, err
	}

	cart, err := s.loadOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindLine(ctx, cart.ID, input.ProductID, input.IsGiftWrapped)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}

	targetQty := input.Quantity
	if existing != nil {
		targetQty += existing.Quantity
	}
	if targetQty > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity per line is capped at %d", MaxLineQuantity))
	}
	if err := s.checkStock(ctx, input.ProductID, targetQty); err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Quantity = targetQty
		if input.GiftMessage != nil {
			existing.GiftMessage = input.GiftMessage
		}
		if _, err := s.repo.UpdateItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
		}
	} else {
		item := &models.CartItem{
			CartID:        cart.ID,
			ProductID:     input.ProductID,
			Quantity:      input.Quantity,
			IsGiftWrapped: input.IsGiftWrapped,
			GiftMessage:   input.GiftMessage,
		}
		if _, err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart line")
		}
	}

	return s.requote(ctx, owner)
}

// UpdateItemQty replaces a line's quantity.
func (s *service) UpdateItemQty(ctx context.Context, owner types.Identity, itemID uuid.UUID, quantity int) (*pricing.Quote, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}

	if err := s.checkStock(ctx, item.ProductID, quantity); err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if _, err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
	}

	return s.requote(ctx, owner)
}

// RemoveItem drops a line from the cart.
func (s *service) RemoveItem(ctx context.Context, owner types.Identity, itemID uuid.UUID) (*pricing.Quote, error) {
	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}

	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting cart line")
	}

	return s.requote(ctx, owner)
}

func (s *service) loadOrCreate(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}

	cart, err := s.repo.FindActiveByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		Status:    enums.CartStatusActive,
	})
	if err != nil {
		// The one-active-cart index rejects the insert when a concurrent
		// request for the same owner won the create race; use that cart.
		if errors.Is(err, gorm.ErrDuplicatedKey) || db.IsUniqueViolation(err, "idx_carts_owner_active") {
			existing, findErr := s.repo.FindActiveByOwner(ctx, owner)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart")
	}
	return created, nil
}

func (s *service) activeCart(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	cart, err := s.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	return cart, nil
}

func (s *service) requote(ctx context.Context, owner types.Identity) (*pricing.Quote, error) {
	cart, err := s.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading cart")
	}
	return s.quote(ctx, cart)
}

func (s *service) quote(ctx context.Context, cart *models.Cart) (*pricing.Quote, error) {
	quote, err := s.pricer.PriceCart(ctx, cart, s.now())
	if err != nil {
		return nil, err
	}
	s.metrics.IncQuote()
	return quote, nil
}

func (s *service) checkStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	snapshots, err := s.catalog.Snapshots(ctx, []uuid.UUID{productID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product snapshot")
	}
	snapshot, ok := snapshots[productID]
	if !ok || !snapshot.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if quantity > snapshot.StockQty {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only %d of %s in stock", snapshot.StockQty, strings.TrimSpace(snapshot.Name)))
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity))
	}
	return nil
}

func validateGiftMessage(isGiftWrapped bool, message *string) error {
	if message == nil {
		return nil
	}
	if !isGiftWrapped {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift message requires gift wrap")
	}
	if len([]rune(*message)) > MaxGiftMessageLen {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("gift message is capped at %d characters", MaxGiftMessageLen))
	}
	return nil
}
