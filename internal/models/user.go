package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleStoreOwner = "store_owner"
	RoleStaff      = "staff"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:255;not null"`
	Email        string    `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:50;not null"`
	IsActive     bool      `gorm:"not null"`
	IsStaff      bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (u User) Key() uuid.UUID { return u.ID }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleStaff
	}
	return nil
}

// AuthToken is the single live bearer token of a user. Only the hash of the
// issued string is stored.
type AuthToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	KeyHash   string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (t AuthToken) Key() uuid.UUID { return t.ID }

func (t *AuthToken) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (t AuthToken) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && !now.Before(t.CreatedAt.Add(ttl))
}
