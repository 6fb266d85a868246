package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrentRound selects the most recently created round wherever a round id is accepted.
const CurrentRound = "current"

var ErrInvalidRoundId = errors.New("invalid round id")

// ResolveRoundId turns a round id or "current" into a numeric contract round id.
func (s *RaffleService) ResolveRoundId(ctx context.Context, ref string) (uint64, error) {
	ref = strings.TrimSpace(ref)
	if strings.EqualFold(ref, CurrentRound) {
		round, err := s.db.GetLatestRound(ctx)
		if err != nil {
			return 0, err
		}
		return round.RoundId, nil
	}

	roundId, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoundId, ref)
	}
	return roundId, nil
}

func (s *RaffleService) GetRound(ctx context.Context, roundId uint64) (*models.RaffleRound, error) {
	return s.db.GetRound(ctx, roundId)
}

func (s *RaffleService) ListRounds(ctx context.Context, limit, offset int) ([]models.RaffleRound, error) {
	return s.db.ListRounds(ctx, limit, offset)
}

// CreateRound creates the round row, or refreshes its prize when it already exists.
func (s *RaffleService) CreateRound(ctx context.Context, roundId uint64, prize decimal.Decimal) (*models.RaffleRound, error) {
	if prize.IsNegative() {
		return nil, fmt.Errorf("prize amount cannot be negative")
	}

	round, err := s.db.UpsertRound(ctx, store.UpsertRoundParams{
		RoundId:     roundId,
		PrizeAmount: prize,
	})
	if err != nil {
		zap.L().Error("Failed to upsert round",
			zap.Uint64("round_id", roundId),
			zap.String("prize_amount", prize.String()),
			zap.Error(err))
		return nil, err
	}
	return round, nil
}

// GetTopWagers returns the leaderboard for a round id or "current".
func (s *RaffleService) GetTopWagers(ctx context.Context, ref string) (uint64, []models.TopWager, error) {
	roundId, err := s.ResolveRoundId(ctx, ref)
	if err != nil {
		return 0, nil, err
	}

	top, err := s.db.GetTop10Wagers(ctx, roundId)
	if err != nil {
		return 0, nil, fmt.Errorf("unable to load top wagers for round %d: %w", roundId, err)
	}
	return roundId, top, nil
}

// RecordWager stores a single wager against an existing round.
func (s *RaffleService) RecordWager(ctx context.Context, address string, roundId uint64, amount decimal.Decimal, txHash string) (*models.Wager, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("wager amount must be positive")
	}

	wallet, err := s.db.GetOrCreateWallet(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve wallet: %w", err)
	}

	return s.db.CreateWager(ctx, store.CreateWagerParams{
		WalletId: wallet.Id,
		RoundId:  roundId,
		Amount:   amount,
		TxHash:   txHash,
	})
}

// RecordWinner stores the winner announced by a WinnerPicked event. The round is
// resolved from contract state just before the event's block, since the draw
// starts the next round in the same transaction.
func (s *RaffleService) RecordWinner(ctx context.Context, event models.ChainEvent) (*models.RaffleRound, error) {
	if event.Kind != models.EventWinnerPicked {
		return nil, fmt.Errorf("unexpected event kind %s", event.Kind)
	}
	if event.Player == "" {
		return nil, fmt.Errorf("winner event %s has no player", event.Key())
	}
	if s.chain == nil {
		return nil, fmt.Errorf("chain access is not configured")
	}

	block := event.BlockNumber
	if block > 0 {
		block--
	}

	roundId, err := s.chain.RoundIdAt(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve round for winner event %s: %w", event.Key(), err)
	}

	return s.db.SetRoundWinner(ctx, roundId, event.Player)
}

// WinnerHandler adapts RecordWinner to the watcher's event hooks. Rounds we never
// stored a wager for are skipped.
func (s *RaffleService) WinnerHandler(ctx context.Context, timeout time.Duration) chain.EventHandler {
	return func(event models.ChainEvent) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if _, err := s.RecordWinner(callCtx, event); err != nil {
			if errors.Is(err, store.ErrRoundNotFound) {
				zap.L().Info("Winner picked for a round without stored wagers",
					zap.String("winner", event.Player),
					zap.Uint64("block", event.BlockNumber))
				return
			}
			zap.L().Error("Failed to record round winner",
				zap.String("winner", event.Player),
				zap.Uint64("block", event.BlockNumber),
				zap.String("tx_hash", event.TxHash),
				zap.Error(err))
		}
	}
}
