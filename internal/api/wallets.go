package api

import (
	"context"
	"fmt"
	"strings"

	"raffle-sync-go/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

func (s *RaffleService) RegisterWallet(ctx context.Context, address string) (*models.Wallet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}
	return s.db.GetOrCreateWallet(ctx, address)
}

func (s *RaffleService) GetWallet(ctx context.Context, address string) (*models.Wallet, error) {
	return s.db.GetWalletByAddress(ctx, address)
}

// LinkWallet attaches the wallet to a user id, registering the wallet first if needed.
func (s *RaffleService) LinkWallet(ctx context.Context, address, userId string) (*models.Wallet, error) {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if _, err := s.RegisterWallet(ctx, address); err != nil {
		return nil, err
	}
	return s.db.LinkWallet(ctx, address, userId)
}

// GetWalletHistory returns the wallet's wagers, newest first, with round outcomes.
func (s *RaffleService) GetWalletHistory(ctx context.Context, address string) (*models.Wallet, []models.WagerHistoryEntry, error) {
	wallet, err := s.db.GetWalletByAddress(ctx, address)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.db.GetHistoryByWallet(ctx, wallet.Id)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load history for wallet %s: %w", wallet.Address, err)
	}
	return wallet, history, nil
}
