// Package testdb opens a throwaway in-memory database with the full schema.
package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/pkg/db"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
