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
	"errors"
	"fmt"
	"strings"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordConfirmedEntry persists a mined enterRaffle transaction: the wallet, the round
// (created or prize refreshed) and the wager. Invalid input and duplicates are reported
// in the result; storage failures are returned as errors.
func (s *RaffleService) RecordConfirmedEntry(ctx context.Context, entry models.EntryConfirmation) (*models.EntryResult, error) {
	zap.L().Info("Recording confirmed entry",
		zap.String("wallet", entry.WalletAddress),
		zap.Uint64("round_id", entry.RoundId),
		zap.String("amount", entry.Amount.String()),
		zap.String("prize_amount", entry.PrizeAmount.String()),
		zap.String("tx_hash", entry.TxHash))

	// Validate input
	if err := validateEntry(entry); err != nil {
		zap.L().Warn("Invalid entry parameters",
			zap.String("wallet", entry.WalletAddress),
			zap.Uint64("round_id", entry.RoundId),
			zap.Error(err))
		return &models.EntryResult{
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	wallet, err := s.db.GetOrCreateWallet(ctx, entry.WalletAddress)
	if err != nil {
		logEntryFailure("wallet", entry, err)
		return nil, fmt.Errorf("unable to resolve wallet: %w", err)
	}

	round, err := s.db.UpsertRound(ctx, store.UpsertRoundParams{
		RoundId:     entry.RoundId,
		PrizeAmount: entry.PrizeAmount,
	})
	if err != nil {
		logEntryFailure("round", entry, err)
		return nil, fmt.Errorf("unable to upsert round: %w", err)
	}

	wager, err := s.db.CreateWager(ctx, store.CreateWagerParams{
		WalletId: wallet.Id,
		RoundId:  entry.RoundId,
		Amount:   entry.Amount,
		TxHash:   entry.TxHash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateWager) {
			zap.L().Info("Entry already recorded", zap.String("tx_hash", entry.TxHash))
			return &models.EntryResult{
				Success:   false,
				Wallet:    wallet,
				Round:     round,
				Duplicate: true,
				Error:     "entry already recorded",
			}, nil
		}
		logEntryFailure("wager", entry, err)
		return nil, fmt.Errorf("unable to create wager: %w", err)
	}

	zap.L().Info("Entry recorded successfully",
		zap.String("wallet_id", wallet.Id),
		zap.String("round", round.Id),
		zap.String("wager_id", wager.Id))

	return &models.EntryResult{
		Success: true,
		Wallet:  wallet,
		Round:   round,
		Wager:   wager,
	}, nil
}

func validateEntry(entry models.EntryConfirmation) error {
	if !common.IsHexAddress(entry.WalletAddress) {
		return fmt.Errorf("invalid wallet address %q", entry.WalletAddress)
	}
	if !entry.Amount.GreaterThan(decimal.Zero) {
		return fmt.Errorf("wager amount must be positive")
	}
	if entry.PrizeAmount.IsNegative() {
		return fmt.Errorf("prize amount cannot be negative")
	}
	if entry.TxHash != "" && !isTxHash(entry.TxHash) {
		return fmt.Errorf("invalid transaction hash %q", entry.TxHash)
	}
	return nil
}

func isTxHash(hash string) bool {
	if len(hash) != 2+2*common.HashLength || !strings.HasPrefix(hash, "0x") {
		return false
	}
	_, err := hexutil.Decode(hash)
	return err == nil
}

func logEntryFailure(stage string, entry models.EntryConfirmation, err error) {
	zap.L().Error("Failed to persist confirmed entry",
		zap.String("stage", stage),
		zap.String("wallet", entry.WalletAddress),
		zap.Uint64("round_id", entry.RoundId),
		zap.String("amount", entry.Amount.String()),
		zap.String("tx_hash", entry.TxHash),
		zap.Error(err))
}
