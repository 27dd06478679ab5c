package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/cocoaloft/storefront-backend/internal/catalog"
	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
	"github.com/cocoaloft/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

type snapshotLoader interface {
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Snapshot, error)
}

// Service exposes product review operations. Only registered users write
// reviews; the controller enforces that before calling Create.
type Service interface {
	List(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error)
	Create(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*models.Review, error)
}

// CreateReviewInput captures a validated review payload.
type CreateReviewInput struct {
	Rating int
	Title  *string
	Body   string
}

type service struct {
	repo    *Repository
	catalog snapshotLoader
}

// NewService constructs a review service instance.
func NewService(repo *Repository, catalogRepo snapshotLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog snapshot loader required")
	}
	return &service{repo: repo, catalog: catalogRepo}, nil
}

// List pages through the product's reviews.
func (s *service) List(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error) {
	rows, next, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, "", err
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing reviews")
	}
	return rows, next, nil
}

// Create stores a review after checking the product still exists.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, input CreateReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review body is required")
	}

	snapshots, err := s.catalog.Snapshots(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if _, ok := snapshots[productID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     input.Title,
		Body:      strings.TrimSpace(input.Body),
	}
	if _, err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving review")
	}
	return review, nil
}
