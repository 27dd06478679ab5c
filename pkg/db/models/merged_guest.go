package models

import (
	"time"

	"github.com/google/uuid"
)

// MergedGuest records that a guest identity has already been reconciled into
// a user account, making the merge idempotent.
type MergedGuest struct {
	GuestID  uuid.UUID `gorm:"column:guest_id;type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	MergedAt time.Time `gorm:"column:merged_at;autoCreateTime"`
}

func (MergedGuest) TableName() string {
	return "merged_guests"
}
