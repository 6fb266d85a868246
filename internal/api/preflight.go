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

	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Preflight checks whether an entry from the address would be accepted. A zero
// amount means the current entrance fee.
func (s *RaffleService) Preflight(ctx context.Context, address string, amount decimal.Decimal) (*models.PreflightResult, error) {
	if s.chain == nil {
		return nil, fmt.Errorf("chain access is not configured")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}

	fee, err := s.chain.EntranceFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to read entrance fee: %w", err)
	}
	if amount.IsZero() {
		amount = fee
	}

	result := &models.PreflightResult{
		Ok:          true,
		EntranceFee: fee,
	}

	err = s.chain.PreflightEnter(ctx, address, amount)
	if err == nil {
		return result, nil
	}

	var rejection *chain.TxRejection
	if errors.As(err, &rejection) {
		zap.L().Info("Entry preflight rejected",
			zap.String("wallet", address),
			zap.String("amount", amount.String()),
			zap.String("code", rejection.Code))
		result.Ok = false
		result.Code = rejection.Code
		result.Reason = rejection.Reason
		return result, nil
	}

	zap.L().Warn("Entry preflight failed", zap.String("wallet", address), zap.Error(err))
	return nil, err
}
