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
	"errors"
	"flag"
	"fmt"

	"raffle-sync-go/internal/api"
	"raffle-sync-go/internal/common"
	"raffle-sync-go/internal/config"
	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	raw, err := hexutil.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid address %s: %w", address, err)
	}
	if len(raw) != 20 {
		return fmt.Errorf("address must be 20 bytes, got %d", len(raw))
	}
	return nil
}

func printWallet(title string, wallet *models.Wallet) {
	fmt.Println()
	common.PrintHeader(title, common.DefaultWidth)
	fmt.Printf("ID:      %s\n", wallet.Id)
	fmt.Printf("Address: %s\n", wallet.Address)
	if wallet.UserId != "" {
		fmt.Printf("User:    %s\n", wallet.UserId)
	}
	fmt.Printf("Created: %s\n", common.FormatTime(&wallet.CreatedAt))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func printPreflight(result *models.PreflightResult) {
	common.PrintHeader("ENTRY PREFLIGHT", common.DefaultWidth)
	fmt.Printf("Entrance fee: %s\n", common.FormatEther(result.EntranceFee))
	if result.Ok {
		fmt.Println("✓ An entry from this wallet would be accepted")
	} else {
		fmt.Printf("✗ %s (%s)\n", result.Reason, result.Code)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func runPreflight(ctx context.Context, cfg *models.Config, address string) {
	zap.L().Info("Initializing chain access for preflight")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.Raffle.Preflight(ctx, address, decimal.Zero)
	if err != nil {
		zap.L().Fatal("Preflight failed", zap.Error(err))
	}
	printPreflight(result)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	addressFlag := flag.String("address", "", "Wallet address (required)")
	userFlag := flag.String("user", "", "User id to link the wallet to (optional)")
	preflightFlag := flag.Bool("preflight", false, "Simulate an entry from the wallet against the configured deployment")
	flag.Parse()

	if err := validateAddress(*addressFlag); err != nil {
		zap.L().Fatal("Invalid wallet address", zap.Error(err))
	}

	zap.L().Info("Starting wallet registration",
		zap.String("address", *addressFlag),
		zap.String("user_id", *userFlag))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	service := api.NewRaffleService(dbService, nil)

	wallet, err := service.RegisterWallet(ctx, *addressFlag)
	if err != nil {
		zap.L().Fatal("Failed to register wallet", zap.Error(err))
	}
	title := "WALLET REGISTERED"

	if *userFlag != "" {
		wallet, err = service.LinkWallet(ctx, *addressFlag, *userFlag)
		if err != nil {
			if errors.Is(err, store.ErrWalletLinked) {
				zap.L().Fatal("Wallet is already linked with another user", zap.String("address", *addressFlag))
			}
			zap.L().Fatal("Failed to link wallet", zap.Error(err))
		}
		title = "WALLET LINKED"
	}

	printWallet(title, wallet)
	zap.L().Info("Wallet ready", zap.String("id", wallet.Id), zap.String("user_id", wallet.UserId))

	if *preflightFlag {
		runPreflight(ctx, cfg, wallet.Address)
	}
}
