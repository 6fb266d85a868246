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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"raffle-sync-go/internal/models"
)

// maxReorgDepth keeps the rescan window below the 5000-block eth_getLogs range
const maxReorgDepth = 4999

type durationSetting struct {
	key          string
	defaultValue time.Duration
	target       *time.Duration
}

func Load() (*models.Config, error) {
	cfg := &models.Config{}

	durations := []durationSetting{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"DB_BUSY_TIMEOUT", 5 * time.Second, &cfg.Database.BusyTimeout},
		{"ROUND_GRACE_PERIOD", 5 * time.Minute, &cfg.Database.RoundGracePeriod},
		{"CHAIN_POLLING_INTERVAL", 5 * time.Second, &cfg.Chain.PollingInterval},
		{"CHAIN_EVENT_POLLING_INTERVAL", 4 * time.Second, &cfg.Chain.EventPollingInterval},
		{"CHAIN_EVENT_RETENTION", time.Hour, &cfg.Chain.EventRetention},
		{"CHAIN_CLEANUP_INTERVAL", 5 * time.Minute, &cfg.Chain.CleanupInterval},
		{"CHAIN_CALL_TIMEOUT", 10 * time.Second, &cfg.Chain.CallTimeout},
		{"RECONCILER_TICK_INTERVAL", time.Second, &cfg.Reconciler.TickInterval},
		{"COUNTDOWN_TOLERANCE", 1500 * time.Millisecond, &cfg.Reconciler.CountdownTolerance},
		{"WINNER_DISPLAY_WINDOW", 30 * time.Second, &cfg.Reconciler.WinnerDisplayWindow},
		{"CALCULATION_STALL_TIMEOUT", 5 * time.Minute, &cfg.Reconciler.CalculationStallTimeout},
		{"SERVER_CACHE_TTL", 5 * time.Second, &cfg.Server.CacheTTL},
	}

	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultValue)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	reorgDepth, err := getEnvUint("CHAIN_REORG_DEPTH", 12)
	if err != nil {
		return nil, err
	}
	if reorgDepth > maxReorgDepth {
		return nil, fmt.Errorf("CHAIN_REORG_DEPTH must be at most %d, got %d", maxReorgDepth, reorgDepth)
	}

	cfg.Database.Path = getEnvString("DATABASE_PATH", "raffle.db")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)

	cfg.Chain.RpcUrl = getEnvString("CHAIN_RPC_URL", "http://127.0.0.1:8545")
	cfg.Chain.ContractsFile = getEnvString("RAFFLE_CONTRACTS_FILE", "contracts.yaml")
	cfg.Chain.Deployment = getEnvString("RAFFLE_DEPLOYMENT", "sepolia")
	cfg.Chain.ReorgDepth = reorgDepth

	cfg.Reconciler.WalletAddress = getEnvString("RAFFLE_WALLET_ADDRESS", "")

	cfg.Server.Addr = getEnvString("SERVER_ADDR", ":8080")
	cfg.Server.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid unsigned integer for %s: %q (%w)", key, value, err)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
