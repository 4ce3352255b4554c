package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

type PromoCode struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code               string          `gorm:"size:50;uniqueIndex;not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MaxUsage           int             `gorm:"not null"`
	CurrentUsage       int             `gorm:"not null"`
	ValidFrom          time.Time       `gorm:"not null"`
	ValidUntil         time.Time       `gorm:"not null"`
	CreatedAt          time.Time       `gorm:"not null"`
}

func (p PromoCode) Key() uuid.UUID { return p.ID }

func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *PromoCode) BeforeSave(tx *gorm.DB) error {
	p.DiscountPercentage = p.DiscountPercentage.Round(2)
	return nil
}

// IsValid: inside [ValidFrom, ValidUntil] and usage left.
func (p PromoCode) IsValid(now time.Time) bool {
	return !now.Before(p.ValidFrom) && !now.After(p.ValidUntil) && p.CurrentUsage < p.MaxUsage
}

type Subscription struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE"`
	StoreID     *uuid.UUID `gorm:"type:uuid;index"`
	Store       *Store     `gorm:"constraint:OnDelete:CASCADE"`
	StartDate   time.Time  `gorm:"not null"`
	EndDate     time.Time  `gorm:"not null"`
	IsTrial     bool       `gorm:"not null"`
	PromoCodeID *uuid.UUID `gorm:"type:uuid;index"`
	PromoCode   *PromoCode `gorm:"constraint:OnDelete:SET NULL"`
	Status      string     `gorm:"size:20;not null"`
	CreatedAt   time.Time  `gorm:"not null"`
}

func (s Subscription) Key() uuid.UUID { return s.ID }

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	if s.StartDate.IsZero() {
		s.StartDate = tx.NowFunc()
	}
	return nil
}

func (s *Subscription) BeforeSave(tx *gorm.DB) error {
	s.DeriveStatus(tx.NowFunc())
	return nil
}

// DeriveStatus: a lapsed subscription is expired; otherwise a cancellation
// sticks and anything else is active.
func (s *Subscription) DeriveStatus(now time.Time) {
	switch {
	case s.EndDate.Before(now):
		s.Status = SubscriptionExpired
	case s.Status == SubscriptionCanceled:
	default:
		s.Status = SubscriptionActive
	}
}
