package repo

import "gorm.io/gorm"

// GormRepo holds the queries that do not fit the generic Table: account
// lookups and bearer token bookkeeping.
type GormRepo struct {
	DB *gorm.DB
}
