// Package storetest opens throwaway SQLite-backed stores for tests
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/ff-market-indexer/internal/store"
)

var seq atomic.Int64

// NewDB opens a migrated in-memory SQLite database private to the test.
// A single connection serializes writers like row locks would in PostgreSQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, store.Migrate(db))
	return db
}

// NewStore opens a migrated in-memory store private to the test
func NewStore(t *testing.T) store.Store {
	t.Helper()
	return store.NewStore(NewDB(t))
}
