// Package dbtest opens throwaway databases for package tests
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/database"
)

// NewDB opens a migrated in-memory sqlite database private to the test
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Source: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
