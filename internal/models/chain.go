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
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RafflePhase mirrors the contract's RaffleState enum
type RafflePhase uint8

const (
	PhaseOpen RafflePhase = iota
	PhaseCalculating
)

func (p RafflePhase) String() string {
	switch p {
	case PhaseOpen:
		return "OPEN"
	case PhaseCalculating:
		return "CALCULATING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the phase by name in JSON payloads
func (p RafflePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ChainSnapshot is one successful read of the contract's view functions
type ChainSnapshot struct {
	SecondsRemaining uint64          `json:"seconds_remaining"`
	Phase            RafflePhase     `json:"phase"`
	PlayerCount      uint64          `json:"player_count"`
	RoundId          uint64          `json:"round_id"`
	EntranceFee      decimal.Decimal `json:"entrance_fee"`
	PrizePool        decimal.Decimal `json:"prize_pool"`
	FetchedAt        time.Time       `json:"fetched_at"`
}

// EventKind identifies one of the contract event streams we subscribe to
type EventKind string

const (
	EventEntered             EventKind = "RaffleEntered"
	EventWinnerPicked        EventKind = "WinnerPicked"
	EventRoundStarted        EventKind = "RaffleStarted"
	EventRandomnessRequested EventKind = "RequestRaffleWinner"
)

// ChainEvent is a decoded contract log
type ChainEvent struct {
	Kind        EventKind `json:"kind"`
	Player      string    `json:"player,omitempty"`
	RequestId   *big.Int  `json:"request_id,omitempty"`
	BlockNumber uint64    `json:"block_number"`
	TxHash      string    `json:"tx_hash"`
	LogIndex    uint      `json:"log_index"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Key uniquely identifies the log that produced the event
func (e ChainEvent) Key() string {
	return e.TxHash + ":" + strconv.FormatUint(uint64(e.LogIndex), 10)
}
