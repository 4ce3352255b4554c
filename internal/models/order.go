package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderPending        = "pending"
	OrderInConfirmation = "in_confirmation"
	OrderInDispatch     = "in_dispatch"
	OrderInDelivery     = "in_delivery"
	OrderDelivered      = "delivered"
	OrderReturned       = "returned"
	OrderCanceled       = "canceled"
)

var orderTransitions = map[string][]string{
	OrderPending:        {OrderInConfirmation, OrderCanceled},
	OrderInConfirmation: {OrderInDispatch, OrderCanceled},
	OrderInDispatch:     {OrderInDelivery, OrderCanceled},
	OrderInDelivery:     {OrderDelivered, OrderReturned},
	OrderDelivered:      {OrderReturned},
}

// CanTransition reports whether an order may move from one status to another.
// Staying in place is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	StoreID       uuid.UUID   `gorm:"type:uuid;not null;index"`
	Store         *Store      `gorm:"constraint:OnDelete:CASCADE"`
	CustomerName  string      `gorm:"size:255;not null"`
	CustomerEmail string      `gorm:"size:254;not null"`
	Status        string      `gorm:"size:20;not null;index"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time   `gorm:"not null"`
	UpdatedAt     time.Time   `gorm:"not null"`
}

func (o Order) Key() uuid.UUID { return o.ID }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = OrderPending
	}
	return nil
}

type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Product    *Product        `gorm:"constraint:OnDelete:CASCADE"`
	Quantity   int             `gorm:"not null;check:quantity > 0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i OrderItem) Key() uuid.UUID { return i.ID }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// BeforeSave runs for inserts and updates alike.
func (i *OrderItem) BeforeSave(tx *gorm.DB) error {
	i.DeriveTotal()
	return nil
}

// Total is Quantity x UnitPrice at cent precision.
func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Round(2).Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// DeriveTotal overwrites TotalPrice with Quantity x UnitPrice.
func (i *OrderItem) DeriveTotal() {
	i.UnitPrice = i.UnitPrice.Round(2)
	i.TotalPrice = i.Total()
}

type OrderLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Order       *Order    `gorm:"constraint:OnDelete:CASCADE"`
	Status      string    `gorm:"size:20;not null"`
	ChangedByID uuid.UUID `gorm:"type:uuid;not null;index"`
	ChangedBy   *User     `gorm:"foreignKey:ChangedByID;constraint:OnDelete:CASCADE"`
	ChangedAt   time.Time `gorm:"autoCreateTime;not null"`
}

func (l OrderLog) Key() uuid.UUID { return l.ID }

func (l *OrderLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
