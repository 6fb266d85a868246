/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.RoundStore.
var _ store.RoundStore = (*Service)(nil)

type Service struct {
	db          *sql.DB
	gracePeriod time.Duration
	now         func() time.Time
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	if cfg.RoundGracePeriod < 0 {
		return nil, fmt.Errorf("round grace period cannot be negative, got %v", cfg.RoundGracePeriod)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newService(db, cfg.RoundGracePeriod)
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully",
		zap.Duration("round_grace_period", cfg.RoundGracePeriod))
	return service, nil
}

func newService(db *sql.DB, gracePeriod time.Duration) *Service {
	return &Service{
		db:          db,
		gracePeriod: gracePeriod,
		now:         time.Now,
	}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping verifies the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Wallets: address-keyed identities, optionally linked to an off-chain user
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		user_id TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets(user_id);

	-- Raffle rounds: one row per on-chain round id
	CREATE TABLE IF NOT EXISTS raffle_rounds (
		id TEXT PRIMARY KEY,
		round_id INTEGER NOT NULL UNIQUE,
		prize_amount TEXT NOT NULL DEFAULT '0',
		winner TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_raffle_rounds_created_at ON raffle_rounds(created_at);

	-- Wagers: insert-only record of confirmed entry transactions
	CREATE TABLE IF NOT EXISTS wagers (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
		raffle_round_id TEXT NOT NULL REFERENCES raffle_rounds(id) ON DELETE CASCADE,
		wager_amount TEXT NOT NULL,
		tx_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wagers_round_created_at ON wagers(raffle_round_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_wagers_wallet_created_at ON wagers(wallet_id, created_at);
	-- A transaction hash identifies at most one wager; empty hashes are not deduplicated
	CREATE UNIQUE INDEX IF NOT EXISTS idx_wagers_tx_hash ON wagers(tx_hash) WHERE tx_hash != '';
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
