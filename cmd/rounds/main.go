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

	"raffle-sync-go/internal/api"
	"raffle-sync-go/internal/common"
	"raffle-sync-go/internal/config"
	"raffle-sync-go/internal/models"

	"go.uber.org/zap"
)

type roundStats struct {
	totalRounds      int
	roundsWithWagers int
	totalWagerRows   int
}

func printRoundHeader(round models.RaffleRound, leaders int) {
	fmt.Printf("\n┌─ Round #%d\n", round.RoundId)
	fmt.Printf("│  Prize:   %s\n", common.FormatEther(round.PrizeAmount))
	if round.Winner != "" {
		fmt.Printf("│  Winner:  %s\n", round.Winner)
	} else {
		fmt.Printf("│  Winner:  pending\n")
	}
	fmt.Printf("│  Ends:    %s\n", common.FormatTime(round.EndedAt))
	fmt.Printf("│  Leaders: %d\n", leaders)
	common.PrintBoxSeparator(78)
}

func printTopWager(rank int, wager models.TopWager, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s %2d. %-44s %16s (%d wagers, last: %s)\n",
		symbol,
		rank,
		wager.Address,
		common.FormatEther(wager.TotalWager),
		wager.WagerCount,
		wager.TimeLastWager.Format("2006-01-02 15:04:05"))

	if wager.UserId != "" {
		fmt.Printf("%s       User: %s\n", common.BoxDetailPrefix(isLast), wager.UserId)
	}
}

func processRound(ctx context.Context, service *api.RaffleService, round models.RaffleRound) (int, error) {
	_, top, err := service.GetTopWagers(ctx, fmt.Sprint(round.RoundId))
	if err != nil {
		return 0, fmt.Errorf("failed to get top wagers: %w", err)
	}

	printRoundHeader(round, len(top))
	for i, wager := range top {
		printTopWager(i+1, wager, i == len(top)-1)
	}

	return len(top), nil
}

func loadRounds(ctx context.Context, service *api.RaffleService, roundRef string, limit int) ([]models.RaffleRound, error) {
	if roundRef == "" {
		return service.ListRounds(ctx, limit, 0)
	}

	roundId, err := service.ResolveRoundId(ctx, roundRef)
	if err != nil {
		return nil, err
	}
	round, err := service.GetRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	return []models.RaffleRound{*round}, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	roundFlag := flag.String("round", "", "Round id or \"current\" (default: most recent rounds)")
	limitFlag := flag.Int("limit", 10, "Number of recent rounds to report when --round is not set")
	flag.Parse()

	logger.Info("Starting round query")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Reports only read stored rounds, no chain access needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	service := api.NewRaffleService(dbService, nil)

	rounds, err := loadRounds(ctx, service, *roundFlag, *limitFlag)
	if err != nil {
		logger.Fatal("Failed to load rounds", zap.Error(err))
	}

	common.PrintHeader("RAFFLE ROUND REPORT", common.DefaultWidth)

	stats := roundStats{}
	for _, round := range rounds {
		stats.totalRounds++

		rows, err := processRound(ctx, service, round)
		if err != nil {
			logger.Error("Failed to process round",
				zap.Uint64("round_id", round.RoundId),
				zap.Error(err))
			continue
		}

		if rows > 0 {
			stats.roundsWithWagers++
			stats.totalWagerRows += rows
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d rounds with wagers (%d leaderboard rows across %d rounds queried)",
		stats.roundsWithWagers, stats.totalWagerRows, stats.totalRounds)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Round query completed",
		zap.Int("rounds_queried", stats.totalRounds),
		zap.Int("rounds_with_wagers", stats.roundsWithWagers))
}
