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

package main

import (
	"context"
	"flag"
	"fmt"

	"raffle-sync-go/internal/common"
	"raffle-sync-go/internal/config"
	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"go.uber.org/zap"
)

type reportStats struct {
	totalWallets      int
	totalWagers       int
	walletsWithWagers int
	roundsWon         int
}

func printWalletHeader(wallet common.WalletInfo, wagerCount int) {
	fmt.Printf("\n┌─ Wallet: %s\n", wallet.Label())
	fmt.Printf("│  ID: %s\n", wallet.Id)
	fmt.Printf("│  Wagers: %d\n", wagerCount)
	common.PrintBoxSeparator(98)
}

func printEntry(entry models.WagerHistoryEntry, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s Round #%-6d %14s → %-7s (prize %s, %s)\n",
		symbol,
		entry.RoundId,
		common.FormatEther(entry.WagerAmount),
		entry.Outcome,
		common.FormatEther(entry.PrizeAmount),
		entry.CreatedAt.Format("2006-01-02 15:04:05"))

	if entry.TxHash != "" {
		fmt.Printf("%s   Tx: %s\n", common.BoxDetailPrefix(isLast), entry.TxHash)
	}
}

func processWallet(ctx context.Context, wallet common.WalletInfo, dbService store.RoundStore) ([]models.WagerHistoryEntry, error) {
	history, err := dbService.GetHistoryByWallet(ctx, wallet.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	if len(history) == 0 {
		return nil, nil
	}

	printWalletHeader(wallet, len(history))
	for i, entry := range history {
		printEntry(entry, i == len(history)-1)
	}

	return history, nil
}

func processWalletsAndGenerateReport(ctx context.Context, wallets []common.WalletInfo, dbService store.RoundStore, logger *zap.Logger) reportStats {
	stats := reportStats{}

	for _, wallet := range wallets {
		stats.totalWallets++

		history, err := processWallet(ctx, wallet, dbService)
		if err != nil {
			logger.Error("Failed to process wallet",
				zap.String("wallet_id", wallet.Id),
				zap.String("address", wallet.Address),
				zap.Error(err))
			continue
		}

		if len(history) > 0 {
			stats.walletsWithWagers++
			stats.totalWagers += len(history)
		}
		for _, entry := range history {
			if entry.Outcome == models.OutcomeWon {
				stats.roundsWon++
			}
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	addressFlag := flag.String("address", "", "Filter by specific wallet address (optional)")
	flag.Parse()

	logger.Info("Starting wager history query")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	wallets, err := common.InitializeWallets(ctx, dbService, *addressFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize wallets", zap.Error(err))
	}

	common.PrintHeader("WAGER HISTORY REPORT", common.WideWidth)

	stats := processWalletsAndGenerateReport(ctx, wallets, dbService, logger)

	summary := fmt.Sprintf("SUMMARY: %d wallets with wagers (%d wagers, %d won, across %d wallets queried)",
		stats.walletsWithWagers, stats.totalWagers, stats.roundsWon, stats.totalWallets)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Wager history query completed",
		zap.Int("wallets_queried", stats.totalWallets),
		zap.Int("wallets_with_wagers", stats.walletsWithWagers),
		zap.Int("total_wagers", stats.totalWagers))
}
