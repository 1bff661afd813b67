package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-attendance/internal/config"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	maxConnectAttempts = 5
	connectBackoff     = 2 * time.Second
)

// Open connects to the configured database, retrying while it comes up.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	driverName := sqliteshim.ShimName
	if cfg.Driver == "postgres" {
		driverName = "postgres"
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < maxConnectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", cfg.Driver, i+1, maxConnectAttempts))
		sqldb, err = sql.Open(driverName, cfg.DSN)
		if err == nil {
			err = sqldb.PingContext(ctx)
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		if sqldb != nil {
			sqldb.Close()
		}
		if i < maxConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, maxConnectAttempts, err)
	}

	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if cfg.Driver == "postgres" {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		log.Info("DATABASE", "✅ PostgreSQL connection successful")
		return &DB{
			Bun:       bun.NewDB(sqldb, pgdialect.New()),
			TxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
		}, nil
	}

	// sqlite allows a single writer.
	sqldb.SetMaxOpenConns(1)
	log.Info("DATABASE", "✅ SQLite connection successful")
	return &DB{Bun: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

// CreateSchema creates the accounts table when it does not exist yet.
func CreateSchema(ctx context.Context, b *bun.DB) error {
	_, err := b.NewCreateTable().
		Model((*models.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	_, err = b.NewCreateIndex().
		Model((*models.Account)(nil)).
		Index("accounts_owner_kind_idx").
		Column("owner", "kind").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create accounts index: %w", err)
	}
	return nil
}
