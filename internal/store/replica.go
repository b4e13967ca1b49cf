package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// RegisterReadReplica routes queries to replica and keeps writes and transactions on the primary.
// Replica pool settings go through NormalizeConnectionPoolSettings like the primary's.
func RegisterReadReplica(db *gorm.DB, replica gorm.Dialector, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: []gorm.Dialector{replica},
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(maxOpenConns).
		SetMaxIdleConns(maxIdleConns).
		SetConnMaxLifetime(connMaxLifetime).
		SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.Use(resolver); err != nil {
		return fmt.Errorf("failed to register read replica: %w", err)
	}
	return nil
}
