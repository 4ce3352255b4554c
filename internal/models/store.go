package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StaffManager      = "manager"
	StaffConfirmation = "confirmation"
	StaffDispatch     = "dispatch"
	StaffDelivery     = "delivery"
)

type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner     *User     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null"`
}

func (s Store) Key() uuid.UUID { return s.ID }

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Staff struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index"`
	Store   *Store    `gorm:"constraint:OnDelete:CASCADE"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index"`
	User    *User     `gorm:"constraint:OnDelete:CASCADE"`
	Role    string    `gorm:"size:50;not null"`
	AddedAt time.Time `gorm:"autoCreateTime;not null"`
}

func (Staff) TableName() string { return "staff" }

func (s Staff) Key() uuid.UUID { return s.ID }

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Store       *Store          `gorm:"constraint:OnDelete:CASCADE"`
	Name        string          `gorm:"size:255;not null"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null;check:stock >= 0"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (p Product) Key() uuid.UUID { return p.ID }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Price = p.Price.Round(2)
	return nil
}
