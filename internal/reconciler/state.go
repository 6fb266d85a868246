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

package reconciler

import (
	"strings"
	"time"

	"raffle-sync-go/internal/countdown"
	"raffle-sync-go/internal/models"

	"go.uber.org/zap"
)

type inputKind int

const (
	inputSnapshot inputKind = iota
	inputTick
	inputEvent
	inputWallet
	inputDismissWinner
)

func (k inputKind) String() string {
	switch k {
	case inputSnapshot:
		return "snapshot"
	case inputTick:
		return "tick"
	case inputEvent:
		return "event"
	case inputWallet:
		return "wallet"
	case inputDismissWinner:
		return "dismiss_winner"
	default:
		return "unknown"
	}
}

// input is one message for the reconciler loop
type input struct {
	kind     inputKind
	snapshot models.ChainSnapshot
	event    models.ChainEvent
	wallet   string
	// closed once the input has been applied
	done chan struct{}
}

type effects struct {
	refetch bool
}

type settings struct {
	winnerDisplayWindow     time.Duration
	calculationStallTimeout time.Duration
}

// state is owned by the reconciler loop; nothing else reads or writes it
type state struct {
	settings settings
	engine   *countdown.Engine

	snapshot    models.ChainSnapshot
	hasSnapshot bool
	wallet      string

	winner         string
	winnerEventKey string
	winnerSeenAt   time.Time
	// zero while the banner is sticky
	winnerClearAt time.Time

	requestId        string
	lastEntrant      string
	calculatingSince time.Time

	// round shown as CALCULATING; only a new round id or RoundStarted releases it
	calculatingRound   uint64
	calculatingLatched bool

	// set by RoundStarted until the next snapshot lands
	roundRestarted bool

	view models.RoundView
}

func newState(cfg settings, engine *countdown.Engine, wallet string) *state {
	return &state{
		settings: cfg,
		engine:   engine,
		wallet:   normalizeAddress(wallet),
	}
}

// apply folds one input into the state and re-derives the view
func (s *state) apply(in input, now time.Time) effects {
	var fx effects

	switch in.kind {
	case inputSnapshot:
		s.applySnapshot(in.snapshot, now)
	case inputTick:
		if s.engine.Tick(now).RefetchNeeded {
			fx.refetch = true
		}
	case inputEvent:
		fx.refetch = s.applyEvent(in.event, now)
	case inputWallet:
		s.applyWallet(in.wallet)
	case inputDismissWinner:
		s.clearWinner()
	}

	if !s.winnerClearAt.IsZero() && !now.Before(s.winnerClearAt) {
		zap.L().Debug("Winner display window elapsed", zap.String("winner", s.winner))
		s.clearWinner()
	}

	s.derive(now)
	return fx
}

func (s *state) applySnapshot(snapshot models.ChainSnapshot, now time.Time) {
	if s.hasSnapshot && snapshot.RoundId != s.snapshot.RoundId {
		zap.L().Info("Raffle round advanced",
			zap.Uint64("previous_round_id", s.snapshot.RoundId),
			zap.Uint64("round_id", snapshot.RoundId))
		s.requestId = ""
		s.lastEntrant = ""
		s.releaseCalculating()
	}

	s.snapshot = snapshot
	s.hasSnapshot = true
	s.roundRestarted = false
	if s.engine.Observe(snapshot.SecondsRemaining, snapshot.PlayerCount, now) {
		deadline, _ := s.engine.Deadline()
		zap.L().Debug("Countdown anchored", zap.Time("deadline", deadline))
	}
}

// applyEvent returns whether a snapshot refetch is needed
func (s *state) applyEvent(event models.ChainEvent, now time.Time) bool {
	switch event.Kind {
	case models.EventEntered:
		s.lastEntrant = event.Player
	case models.EventWinnerPicked:
		key := event.Key()
		if key == s.winnerEventKey {
			return false
		}
		s.winnerEventKey = key
		s.winner = normalizeAddress(event.Player)
		s.winnerSeenAt = now
		s.calculatingSince = time.Time{}
		s.scheduleWinnerClear()
		zap.L().Info("Winner picked",
			zap.String("winner", s.winner),
			zap.Bool("is_wallet", s.isWinner()))
	case models.EventRoundStarted:
		s.requestId = ""
		s.releaseCalculating()
		s.roundRestarted = true
	case models.EventRandomnessRequested:
		if event.RequestId != nil {
			s.requestId = event.RequestId.String()
		}
	}
	return true
}

func (s *state) applyWallet(wallet string) {
	s.wallet = normalizeAddress(wallet)
	if s.winner != "" {
		s.scheduleWinnerClear()
	}
}

// scheduleWinnerClear keeps the banner for the winning wallet and times it out for everyone else
func (s *state) scheduleWinnerClear() {
	if s.isWinner() {
		s.winnerClearAt = time.Time{}
		return
	}
	s.winnerClearAt = s.winnerSeenAt.Add(s.settings.winnerDisplayWindow)
}

func (s *state) releaseCalculating() {
	s.calculatingLatched = false
	s.calculatingRound = 0
}

func (s *state) clearWinner() {
	s.winner = ""
	s.winnerClearAt = time.Time{}
}

func (s *state) isWinner() bool {
	return s.winner != "" && s.wallet != "" && strings.EqualFold(s.winner, s.wallet)
}

func (s *state) derive(now time.Time) {
	reading := s.engine.Peek(now)
	latched := s.calculatingLatched && s.calculatingRound == s.snapshot.RoundId
	phase := EffectivePhase(s.snapshot.Phase, reading.Remaining, s.snapshot.PlayerCount, latched)

	if phase == models.PhaseCalculating {
		if s.calculatingSince.IsZero() {
			s.calculatingSince = now
		}
		if s.hasSnapshot && !s.roundRestarted {
			s.calculatingLatched = true
			s.calculatingRound = s.snapshot.RoundId
		}
	} else {
		s.calculatingSince = time.Time{}
	}
	stalled := phase == models.PhaseCalculating &&
		s.settings.calculationStallTimeout > 0 &&
		now.Sub(s.calculatingSince) >= s.settings.calculationStallTimeout

	s.view = models.RoundView{
		Phase:              phase,
		ContractPhase:      s.snapshot.Phase,
		Countdown:          reading.Countdown,
		SecondsRemaining:   reading.Remaining,
		RoundId:            s.snapshot.RoundId,
		NumberOfPlayers:    s.snapshot.PlayerCount,
		PrizeAmount:        s.snapshot.PrizePool,
		EntranceFee:        s.snapshot.EntranceFee,
		WinnerAddress:      s.winner,
		IsWinner:           s.isWinner(),
		CalculationStalled: stalled,
		RequestId:          s.requestId,
		LastEntrant:        s.lastEntrant,
		WalletAddress:      s.wallet,
		Synced:             s.hasSnapshot,
		SnapshotAt:         s.snapshot.FetchedAt,
		UpdatedAt:          now,
	}
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
