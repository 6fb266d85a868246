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
	"errors"
	"fmt"
	"sort"
	"strings"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const topWagersLimit = 10

// CreateWager records a confirmed entry against an existing round.
func (s *Service) CreateWager(ctx context.Context, params store.CreateWagerParams) (*models.Wager, error) {
	if params.WalletId == "" {
		return nil, fmt.Errorf("wallet id cannot be empty")
	}
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("wager amount must be positive: %s", params.Amount.String())
	}

	txHash := strings.ToLower(strings.TrimSpace(params.TxHash))
	zap.L().Info("Recording wager",
		zap.String("wallet_id", params.WalletId),
		zap.Uint64("round_id", params.RoundId),
		zap.String("amount", params.Amount.String()),
		zap.String("tx_hash", txHash))

	wagerId := uuid.New().String()
	result, err := s.db.ExecContext(ctx, queryInsertWager,
		wagerId,
		params.WalletId,
		params.Amount.String(),
		txHash,
		formatTimestamp(s.now()),
		params.RoundId)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique:
				zap.L().Info("Duplicate wager ignored", zap.String("tx_hash", txHash))
				return nil, fmt.Errorf("%w: %s", store.ErrDuplicateWager, txHash)
			case sqlite3.ErrConstraintForeignKey:
				return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, params.WalletId)
			}
		}
		zap.L().Error("Failed to insert wager", zap.String("wallet_id", params.WalletId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert wager: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %d", store.ErrRoundNotFound, params.RoundId)
	}

	wager, err := s.getWagerById(ctx, wagerId)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Wager recorded", zap.String("id", wager.Id), zap.String("raffle_round_id", wager.RaffleRoundId))
	return wager, nil
}

func (s *Service) getWagerById(ctx context.Context, wagerId string) (*models.Wager, error) {
	var (
		wager     models.Wager
		amount    string
		createdAt sqlTimestamp
	)
	err := s.db.QueryRowContext(ctx, queryGetWagerById, wagerId).Scan(
		&wager.Id, &wager.WalletId, &wager.RaffleRoundId, &wager.RoundId, &amount, &wager.TxHash, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("unable to query wager %s: %w", wagerId, err)
	}

	if wager.WagerAmount, err = parseAmount("wager amount", amount); err != nil {
		return nil, err
	}
	wager.CreatedAt = createdAt.Time
	return &wager, nil
}

// GetTop10Wagers sums wagers per wallet for a round. Ties on the total go to the
// most recent wager, then to the wallet id.
func (s *Service) GetTop10Wagers(ctx context.Context, roundId uint64) ([]models.TopWager, error) {
	rows, err := s.db.QueryContext(ctx, queryGetRoundWagers, roundId)
	if err != nil {
		zap.L().Error("Failed to query round wagers", zap.Uint64("round_id", roundId), zap.Error(err))
		return nil, fmt.Errorf("unable to query round wagers: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	byWallet := make(map[string]*models.TopWager)
	for rows.Next() {
		var (
			walletId, address, userId, amountStr string
			createdAt                            sqlTimestamp
		)
		if err := rows.Scan(&walletId, &address, &userId, &amountStr, &createdAt); err != nil {
			zap.L().Error("Failed to scan wager row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan wager row: %w", err)
		}

		amount, err := parseAmount("wager amount", amountStr)
		if err != nil {
			return nil, err
		}

		entry, ok := byWallet[walletId]
		if !ok {
			entry = &models.TopWager{
				WalletId:   walletId,
				Address:    address,
				UserId:     userId,
				TotalWager: decimal.Zero,
			}
			byWallet[walletId] = entry
		}
		entry.TotalWager = entry.TotalWager.Add(amount)
		entry.WagerCount++
		if createdAt.Time.After(entry.TimeLastWager) {
			entry.TimeLastWager = createdAt.Time
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wager rows: %w", err)
	}

	top := make([]models.TopWager, 0, len(byWallet))
	for _, entry := range byWallet {
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		if c := top[i].TotalWager.Cmp(top[j].TotalWager); c != 0 {
			return c > 0
		}
		if !top[i].TimeLastWager.Equal(top[j].TimeLastWager) {
			return top[i].TimeLastWager.After(top[j].TimeLastWager)
		}
		return top[i].WalletId < top[j].WalletId
	})
	if len(top) > topWagersLimit {
		top = top[:topWagersLimit]
	}

	zap.L().Debug("Computed top wagers", zap.Uint64("round_id", roundId), zap.Int("count", len(top)))
	return top, nil
}

// GetHistoryByWallet lists a wallet's wagers newest first, each annotated with the round outcome.
func (s *Service) GetHistoryByWallet(ctx context.Context, walletId string) ([]models.WagerHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryGetHistoryByWallet, walletId)
	if err != nil {
		zap.L().Error("Failed to query wager history", zap.String("wallet_id", walletId), zap.Error(err))
		return nil, fmt.Errorf("unable to query wager history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	history := []models.WagerHistoryEntry{}
	for rows.Next() {
		var (
			entry              models.WagerHistoryEntry
			wagerAmount, prize string
			endedAt, createdAt sqlTimestamp
		)
		err := rows.Scan(&entry.WagerId, &entry.WalletId, &entry.Address, &entry.RoundId, &wagerAmount,
			&entry.TxHash, &prize, &entry.Winner, &endedAt, &createdAt)
		if err != nil {
			zap.L().Error("Failed to scan history row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan history row: %w", err)
		}

		if entry.WagerAmount, err = parseAmount("wager amount", wagerAmount); err != nil {
			return nil, err
		}
		if entry.PrizeAmount, err = parseAmount("prize amount", prize); err != nil {
			return nil, err
		}
		entry.EndedAt = endedAt.Ptr()
		entry.CreatedAt = createdAt.Time
		entry.Outcome = outcomeFor(entry.Winner, entry.Address)

		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	zap.L().Debug("Retrieved wager history", zap.String("wallet_id", walletId), zap.Int("count", len(history)))
	return history, nil
}

func outcomeFor(winner, address string) string {
	switch {
	case winner == "":
		return models.OutcomePending
	case strings.EqualFold(winner, address):
		return models.OutcomeWon
	default:
		return models.OutcomeLost
	}
}
