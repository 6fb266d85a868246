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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Countdown is the displayed time left until the next draw
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// IsZero reports whether nothing is left on the clock
func (c Countdown) IsZero() bool {
	return c.Hours == 0 && c.Minutes == 0 && c.Seconds == 0
}

// RoundView is the reconciled, read-only state handed to presentation code
type RoundView struct {
	Phase              RafflePhase     `json:"phase"`
	ContractPhase      RafflePhase     `json:"contract_phase"`
	Countdown          Countdown       `json:"countdown"`
	SecondsRemaining   int64           `json:"seconds_remaining"`
	RoundId            uint64          `json:"round_id"`
	NumberOfPlayers    uint64          `json:"number_of_players"`
	PrizeAmount        decimal.Decimal `json:"prize_amount"`
	EntranceFee        decimal.Decimal `json:"entrance_fee"`
	WinnerAddress      string          `json:"winner_address,omitempty"`
	IsWinner           bool            `json:"is_winner"`
	CalculationStalled bool            `json:"calculation_stalled"`
	RequestId          string          `json:"request_id,omitempty"`
	LastEntrant        string          `json:"last_entrant,omitempty"`
	WalletAddress      string          `json:"wallet_address,omitempty"`
	Synced             bool            `json:"synced"`
	SnapshotAt         time.Time       `json:"snapshot_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// EntryConfirmation describes a mined enterRaffle transaction reported by the wallet flow
type EntryConfirmation struct {
	WalletAddress string
	RoundId       uint64
	Amount        decimal.Decimal
	PrizeAmount   decimal.Decimal
	TxHash        string
}

// EntryResult represents the result of recording a confirmed entry
type EntryResult struct {
	Success   bool         `json:"success"`
	Wallet    *Wallet      `json:"wallet,omitempty"`
	Round     *RaffleRound `json:"round,omitempty"`
	Wager     *Wager       `json:"wager,omitempty"`
	Duplicate bool         `json:"duplicate,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// PreflightResult reports whether an entry would be accepted by the contract
type PreflightResult struct {
	Ok          bool            `json:"ok"`
	Code        string          `json:"code,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	EntranceFee decimal.Decimal `json:"entrance_fee"`
}
