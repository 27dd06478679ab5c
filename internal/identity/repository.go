package identity

import (
	"context"

	"github.com/cocoaloft/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository tracks which guest identities have already been merged.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// IsMerged reports whether the guest has already been reconciled.
func (r *Repository) IsMerged(ctx context.Context, guestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MergedGuest{}).
		Where("guest_id = ?", guestID).
		Count(&count).
		Error
	return count > 0, err
}

// MarkMerged records the reconciliation. The guest id is the primary key and
// the insert is ON CONFLICT DO NOTHING, so exactly one concurrent caller
// claims the merge; the rest see claimed == false.
func (r *Repository) MarkMerged(ctx context.Context, guestID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.MergedGuest{
			GuestID: guestID,
			UserID:  userID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
