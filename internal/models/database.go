package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet represents an address-keyed identity, optionally linked to a user profile
type Wallet struct {
	Id        string    `db:"id" json:"id"`
	Address   string    `db:"address" json:"address"`
	UserId    string    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RaffleRound represents one on-chain round, keyed by the contract round id
type RaffleRound struct {
	Id          string          `db:"id" json:"id"`
	RoundId     uint64          `db:"round_id" json:"round_id"`
	PrizeAmount decimal.Decimal `db:"prize_amount" json:"prize_amount"`
	Winner      string          `db:"winner" json:"winner,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	EndedAt     *time.Time      `db:"ended_at" json:"ended_at,omitempty"`
}

// Wager represents one confirmed entry transaction (immutable)
type Wager struct {
	Id            string          `db:"id" json:"id"`
	WalletId      string          `db:"wallet_id" json:"wallet_id"`
	RaffleRoundId string          `db:"raffle_round_id" json:"raffle_round_id"`
	RoundId       uint64          `json:"round_id"`
	WagerAmount   decimal.Decimal `db:"wager_amount" json:"wager_amount"`
	TxHash        string          `db:"tx_hash" json:"tx_hash,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// TopWager is one leaderboard row: a wallet's summed wagers within a round
type TopWager struct {
	WalletId      string          `json:"wallet_id"`
	Address       string          `json:"address"`
	UserId        string          `json:"user_id,omitempty"`
	TotalWager    decimal.Decimal `json:"total_wager"`
	WagerCount    int             `json:"wager_count"`
	TimeLastWager time.Time       `json:"time_last_wager"`
}

// Round outcomes from a wallet's point of view
const (
	OutcomePending = "pending"
	OutcomeWon     = "won"
	OutcomeLost    = "lost"
)

// WagerHistoryEntry is a wager annotated with its round's prize and outcome
type WagerHistoryEntry struct {
	WagerId     string          `json:"wager_id"`
	WalletId    string          `json:"wallet_id"`
	Address     string          `json:"address"`
	RoundId     uint64          `json:"round_id"`
	WagerAmount decimal.Decimal `json:"wager_amount"`
	TxHash      string          `json:"tx_hash,omitempty"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
	Winner      string          `json:"winner,omitempty"`
	Outcome     string          `json:"outcome"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
