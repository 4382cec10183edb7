package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the fields shared by every company-scoped, soft-deletable entity.
// DeleteAt set means the record is deleted.
type Base struct {
	ID        string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	CompanyID string         `json:"companyId" gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeleteAt  gorm.DeletedAt `json:"deleteAt" gorm:"index"`
}

// EnsureID assigns a new identifier when none is set
func (b *Base) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
}

// BeforeCreate gives gorm-created rows an identifier
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// IsDeleted reports whether the record carries a deletion timestamp
func (b *Base) IsDeleted() bool {
	return b.DeleteAt.Valid
}

// DeletedAt returns the deletion timestamp, or nil for live records
func (b *Base) DeletedAt() *time.Time {
	if !b.DeleteAt.Valid {
		return nil
	}
	t := b.DeleteAt.Time
	return &t
}
