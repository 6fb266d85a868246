package store

import (
	"context"
	"errors"

	"raffle-sync-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrRoundNotFound  = errors.New("raffle round not found")
	ErrDuplicateWager = errors.New("duplicate wager")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletLinked   = errors.New("wallet is already linked with another user")
)

// UpsertRoundParams contains the parameters for creating or refreshing a round row.
type UpsertRoundParams struct {
	RoundId     uint64
	PrizeAmount decimal.Decimal
}

// CreateWagerParams contains the parameters for recording a confirmed entry.
// TxHash is the transaction identity; when set, it must be unique across wagers.
type CreateWagerParams struct {
	WalletId string
	RoundId  uint64
	Amount   decimal.Decimal
	TxHash   string
}

// RoundStore defines the persistence boundary for rounds, wagers and wallets.
type RoundStore interface {
	// --- Rounds ---
	UpsertRound(ctx context.Context, params UpsertRoundParams) (*models.RaffleRound, error)
	SetRoundWinner(ctx context.Context, roundId uint64, winner string) (*models.RaffleRound, error)
	GetRound(ctx context.Context, roundId uint64) (*models.RaffleRound, error)
	GetLatestRound(ctx context.Context) (*models.RaffleRound, error)
	ListRounds(ctx context.Context, limit, offset int) ([]models.RaffleRound, error)

	// --- Wagers ---
	CreateWager(ctx context.Context, params CreateWagerParams) (*models.Wager, error)
	GetTop10Wagers(ctx context.Context, roundId uint64) ([]models.TopWager, error)
	GetHistoryByWallet(ctx context.Context, walletId string) ([]models.WagerHistoryEntry, error)

	// --- Wallets ---
	GetOrCreateWallet(ctx context.Context, address string) (*models.Wallet, error)
	GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)
	LinkWallet(ctx context.Context, address, userId string) (*models.Wallet, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
