package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetOrCreateWallet returns the wallet for an address, creating it on first use.
func (s *Service) GetOrCreateWallet(ctx context.Context, address string) (*models.Wallet, error) {
	address = normalizeAddress(address)
	if address == "" {
		return nil, fmt.Errorf("wallet address cannot be empty")
	}

	if _, err := s.db.ExecContext(ctx, queryInsertWallet, uuid.New().String(), address, formatTimestamp(s.now())); err != nil {
		zap.L().Error("Failed to insert wallet", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to insert wallet: %w", err)
	}

	return s.GetWalletByAddress(ctx, address)
}

func (s *Service) GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	address = normalizeAddress(address)

	var (
		wallet    models.Wallet
		createdAt sqlTimestamp
	)
	err := s.db.QueryRowContext(ctx, queryGetWalletByAddress, address).Scan(
		&wallet.Id, &wallet.Address, &wallet.UserId, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, address)
		}
		zap.L().Error("Failed to query wallet", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to query wallet: %w", err)
	}
	wallet.CreatedAt = createdAt.Time

	return &wallet, nil
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, queryListWallets)
	if err != nil {
		zap.L().Error("Failed to query wallets", zap.Error(err))
		return nil, fmt.Errorf("unable to query wallets: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}()

	var wallets []models.Wallet
	for rows.Next() {
		var (
			wallet    models.Wallet
			createdAt sqlTimestamp
		)
		if err := rows.Scan(&wallet.Id, &wallet.Address, &wallet.UserId, &createdAt); err != nil {
			return nil, fmt.Errorf("unable to scan wallet: %w", err)
		}
		wallet.CreatedAt = createdAt.Time
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

// LinkWallet attaches a user id to a wallet. Relinking to the same user is a no-op;
// a wallet linked to someone else is rejected with store.ErrWalletLinked.
func (s *Service) LinkWallet(ctx context.Context, address, userId string) (*models.Wallet, error) {
	if userId == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	wallet, err := s.GetOrCreateWallet(ctx, address)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, queryLinkWallet, userId, wallet.Address, userId)
	if err != nil {
		zap.L().Error("Failed to link wallet", zap.String("address", wallet.Address), zap.Error(err))
		return nil, fmt.Errorf("unable to link wallet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected == 0 {
		zap.L().Warn("Wallet already linked with another user",
			zap.String("address", wallet.Address),
			zap.String("user_id", userId))
		return nil, fmt.Errorf("%w: %s", store.ErrWalletLinked, wallet.Address)
	}

	zap.L().Info("Wallet linked", zap.String("address", wallet.Address), zap.String("user_id", userId))
	return s.GetWalletByAddress(ctx, wallet.Address)
}
