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

package api

import (
	"context"
	"fmt"

	"raffle-sync-go/internal/store"

	"github.com/shopspring/decimal"
)

// ChainGateway is the contract access the service needs beyond the reconciler.
type ChainGateway interface {
	RoundIdAt(ctx context.Context, blockNumber uint64) (uint64, error)
	EntranceFee(ctx context.Context) (decimal.Decimal, error)
	PreflightEnter(ctx context.Context, from string, amount decimal.Decimal) error
}

// RaffleService provides the round, wager and wallet operations behind the HTTP API and CLIs
type RaffleService struct {
	db    store.RoundStore
	chain ChainGateway
}

// NewRaffleService creates the service. chain may be nil for database-only tools.
func NewRaffleService(db store.RoundStore, chain ChainGateway) *RaffleService {
	return &RaffleService{
		db:    db,
		chain: chain,
	}
}

func (s *RaffleService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
