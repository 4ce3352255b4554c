package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity is what the generic repository and handlers need from a row.
type Entity interface {
	Key() uuid.UUID
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&AuthToken{},
		&Store{},
		&Staff{},
		&Product{},
		&Order{},
		&OrderItem{},
		&OrderLog{},
		&PromoCode{},
		&Subscription{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
