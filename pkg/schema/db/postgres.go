package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var (
	pgDB   *sqlx.DB
	pgOnce sync.Once
	pgMu   sync.RWMutex
)

// InitPostgres opens the shared PostgreSQL connection pool. Later calls return
// the result of the first one.
func InitPostgres(ctx context.Context, uri string) error {
	var initErr error
	pgOnce.Do(func() {
		if uri == "" {
			initErr = fmt.Errorf("POSTGRES_URI is required for the postgres corpus backend")
			return
		}

		db, err := sqlx.ConnectContext(ctx, "postgres", uri)
		if err != nil {
			initErr = fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			return
		}

		// The corpus is read once at startup, so a small pool is enough
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)

		pgMu.Lock()
		pgDB = db
		pgMu.Unlock()
		logrus.Info("connected to PostgreSQL")
	})
	return initErr
}

// GetPostgres returns the PostgreSQL database instance
func GetPostgres() *sqlx.DB {
	pgMu.RLock()
	defer pgMu.RUnlock()
	return pgDB
}

// ClosePostgres closes the PostgreSQL database connection
func ClosePostgres() error {
	pgMu.Lock()
	defer pgMu.Unlock()
	if pgDB != nil {
		err := pgDB.Close()
		pgDB = nil
		return err
	}
	return nil
}
