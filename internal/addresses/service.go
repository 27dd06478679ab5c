package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes saved shipping address operations.
type Service interface {
	List(ctx context.Context, owner types.Identity) ([]AddressDTO, error)
	Create(ctx context.Context, owner types.Identity, input CreateAddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, owner types.Identity, id uuid.UUID) error
}

// CreateAddressInput captures a validated address payload.
type CreateAddressInput struct {
	Address   types.Address
	IsDefault bool
}

// AddressDTO is the API-facing saved address payload.
type AddressDTO struct {
	ID        uuid.UUID     `json:"id"`
	Address   types.Address `json:"address"`
	IsDefault bool          `json:"is_default"`
	UseCount  int           `json:"use_count"`
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs an address service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// List returns the owner's saved addresses.
func (s *service) List(ctx context.Context, owner types.Identity) ([]AddressDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// Create saves a new address. Marking it default clears any previous default
// in the same transaction, keeping at most one per owner.
func (s *service) Create(ctx context.Context, owner types.Identity, input CreateAddressInput) (*AddressDTO, error) {
	row := fromAddress(owner, input.Address)
	row.IsDefault = input.IsDefault

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, owner); err != nil {
				return err
			}
		}
		_, err := repo.Create(ctx, row)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving address")
	}

	dto := toDTO(row)
	return &dto, nil
}

// Delete removes one of the owner's addresses.
func (s *service) Delete(ctx context.Context, owner types.Identity, id uuid.UUID) error {
	if _, err := s.repo.FindByIDAndOwner(ctx, id, owner); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading address")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting address")
	}
	return nil
}

func toDTO(row *models.ShippingAddress) AddressDTO {
	return AddressDTO{
		ID: row.ID,
		Address: types.Address{
			FullName:   row.FullName,
			Line1:      row.Line1,
			Line2:      row.Line2,
			City:       row.City,
			State:      row.State,
			PostalCode: row.PostalCode,
			Country:    row.Country,
		},
		IsDefault: row.IsDefault,
		UseCount:  row.UseCount,
	}
}

func fromAddress(owner types.Identity, addr types.Address) *models.ShippingAddress {
	return &models.ShippingAddress{
		OwnerKind:  owner.Kind,
		OwnerID:    owner.ID,
		FullName:   addr.FullName,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
}
