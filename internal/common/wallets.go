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

package common

import (
	"context"
	"fmt"
	"strings"

	"raffle-sync-go/internal/store"

	"go.uber.org/zap"
)

// WalletInfo represents simplified wallet information for command-line utilities
type WalletInfo struct {
	Id      string
	Address string
	UserId  string
}

// InitializeWallets retrieves wallets based on an optional address filter.
// If addressFilter is provided, returns the single wallet with that address.
// If addressFilter is empty, returns all wallets.
func InitializeWallets(ctx context.Context, dbService store.RoundStore, addressFilter string, logger *zap.Logger) ([]WalletInfo, error) {
	var wallets []WalletInfo

	if addressFilter != "" {
		logger.Info("Looking up wallet by address", zap.String("address", addressFilter))
		wallet, err := dbService.GetWalletByAddress(ctx, addressFilter)
		if err != nil {
			return nil, fmt.Errorf("wallet not found: %w", err)
		}
		wallets = append(wallets, WalletInfo{
			Id:      wallet.Id,
			Address: wallet.Address,
			UserId:  wallet.UserId,
		})
	} else {
		allWallets, err := dbService.ListWallets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get wallets: %w", err)
		}
		for _, w := range allWallets {
			wallets = append(wallets, WalletInfo{
				Id:      w.Id,
				Address: w.Address,
				UserId:  w.UserId,
			})
		}
	}

	logger.Info("Retrieved wallets", zap.Int("count", len(wallets)))
	return wallets, nil
}

// Label renders the wallet for report headers
func (w WalletInfo) Label() string {
	if strings.TrimSpace(w.UserId) == "" {
		return w.Address
	}
	return fmt.Sprintf("%s (user %s)", w.Address, w.UserId)
}
