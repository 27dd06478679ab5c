package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cocoaloft/storefront-backend/internal/addresses"
	"github.com/cocoaloft/storefront-backend/internal/cart"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/cocoaloft/storefront-backend/pkg/enums"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles a guest identity into a registered user.
type Service interface {
	MergeGuestIntoUser(ctx context.Context, guestID, userID uuid.UUID) error
}

type service struct {
	repo        *Repository
	addressRepo *addresses.Repository
	cartRepo    cart.CartRepository
	tx          txRunner
}

// NewService constructs an identity reconciliation service.
func NewService(repo *Repository, addressRepo *addresses.Repository, cartRepo cart.CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merged-guest repository required")
	}
	if addressRepo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, addressRepo: addressRepo, cartRepo: cartRepo, tx: tx}, nil
}

// MergeGuestIntoUser moves the guest's addresses and active cart to the user
// and marks the guest merged, all in one transaction. A second call for the
// same guest is a no-op, so the middleware can fire it on every request that
// carries both identities.
func (s *service) MergeGuestIntoUser(ctx context.Context, guestID, userID uuid.UUID) error {
	if guestID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest and user ids are required")
	}

	merged, err := s.repo.IsMerged(ctx, guestID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking merge state")
	}
	if merged {
		return nil
	}

	guest := types.Guest(guestID)
	user := types.User(userID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.WithTx(tx).MarkMerged(ctx, guestID, userID)
		if err != nil {
			return err
		}
		if !claimed {
			// Another request finished the merge first.
			return nil
		}
		if err := s.mergeAddresses(ctx, tx, guest, user); err != nil {
			return err
		}
		return s.mergeCart(ctx, tx, guest, user)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merging guest identity")
	}
	return nil
}

// mergeAddresses re-owns guest addresses. A user already holding an identical
// address keeps a single copy, and a guest default never displaces an
// existing user default.
func (s *service) mergeAddresses(ctx context.Context, tx *gorm.DB, guest, user types.Identity) error {
	repo := s.addressRepo.WithTx(tx)

	guestRows, err := repo.ListByOwner(ctx, guest)
	if err != nil {
		return err
	}
	if len(guestRows) == 0 {
		return nil
	}

	userRows, err := repo.ListByOwner(ctx, user)
	if err != nil {
		return err
	}

	userHasDefault := false
	seen := make(map[string]struct{}, len(userRows))
	for _, row := range userRows {
		if row.IsDefault {
			userHasDefault = true
		}
		seen[addressKey(&row)] = struct{}{}
	}

	for i := range guestRows {
		row := &guestRows[i]
		if _, dup := seen[addressKey(row)]; dup {
			if err := repo.Delete(ctx, row.ID); err != nil {
				return err
			}
			continue
		}

		row.OwnerKind = user.Kind
		row.OwnerID = user.ID
		if row.IsDefault && userHasDefault {
			row.IsDefault = false
		}
		if row.IsDefault {
			userHasDefault = true
		}
		if _, err := repo.Update(ctx, row); err != nil {
			return err
		}
		seen[addressKey(row)] = struct{}{}
	}
	return nil
}

// mergeCart adopts the guest's active cart when the user has none; otherwise
// the guest cart is abandoned rather than merged line by line.
func (s *service) mergeCart(ctx context.Context, tx *gorm.DB, guest, user types.Identity) error {
	repo := s.cartRepo.WithTx(tx)

	guestCart, err := repo.FindActiveByOwner(ctx, guest)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	_, err = repo.FindActiveByOwner(ctx, user)
	if err == nil {
		return repo.UpdateStatus(ctx, guestCart.ID, enums.CartStatusAbandoned)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return repo.AdoptOwner(ctx, guestCart.ID, user)
}

func addressKey(row *models.ShippingAddress) string {
	line2 := ""
	if row.Line2 != nil {
		line2 = *row.Line2
	}
	parts := []string{
		row.FullName, row.Line1, line2,
		row.City, row.State, row.PostalCode, row.Country,
	}
	return strings.ToLower(strings.Join(parts, "|"))
}
