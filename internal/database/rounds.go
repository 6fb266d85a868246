package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*models.RaffleRound, error) {
	var (
		round       models.RaffleRound
		prizeAmount string
		createdAt   sqlTimestamp
		updatedAt   sqlTimestamp
		endedAt     sqlTimestamp
	)
	if err := row.Scan(&round.Id, &round.RoundId, &prizeAmount, &round.Winner, &createdAt, &updatedAt, &endedAt); err != nil {
		return nil, err
	}

	amount, err := parseAmount("prize amount", prizeAmount)
	if err != nil {
		return nil, err
	}
	round.PrizeAmount = amount
	round.CreatedAt = createdAt.Time
	round.UpdatedAt = updatedAt.Time
	round.EndedAt = endedAt.Ptr()
	return &round, nil
}

// UpsertRound creates the round row on first sight and refreshes its prize afterwards.
// The end time is estimated once at creation and never moved by later upserts.
func (s *Service) UpsertRound(ctx context.Context, params store.UpsertRoundParams) (*models.RaffleRound, error) {
	if params.RoundId > math.MaxInt64 {
		return nil, fmt.Errorf("round id %d out of range", params.RoundId)
	}
	if params.PrizeAmount.IsNegative() {
		return nil, fmt.Errorf("prize amount cannot be negative: %s", params.PrizeAmount.String())
	}

	zap.L().Debug("Upserting raffle round",
		zap.Uint64("round_id", params.RoundId),
		zap.String("prize_amount", params.PrizeAmount.String()))

	now := s.now().UTC()
	endedAt := now.Add(s.gracePeriod)
	_, err := s.db.ExecContext(ctx, queryUpsertRound,
		uuid.New().String(),
		params.RoundId,
		params.PrizeAmount.String(),
		formatTimestamp(now),
		formatTimestamp(now),
		formatTimestamp(endedAt))
	if err != nil {
		zap.L().Error("Failed to upsert raffle round", zap.Uint64("round_id", params.RoundId), zap.Error(err))
		return nil, fmt.Errorf("unable to upsert raffle round: %w", err)
	}

	return s.GetRound(ctx, params.RoundId)
}

// SetRoundWinner records the winner once. A round that already has a winner is returned unchanged.
func (s *Service) SetRoundWinner(ctx context.Context, roundId uint64, winner string) (*models.RaffleRound, error) {
	winner = normalizeAddress(winner)
	if winner == "" {
		return nil, fmt.Errorf("winner address cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, querySetRoundWinner, winner, formatTimestamp(s.now()), roundId)
	if err != nil {
		zap.L().Error("Failed to set round winner", zap.Uint64("round_id", roundId), zap.Error(err))
		return nil, fmt.Errorf("unable to set round winner: %w", err)
	}

	round, err := s.GetRound(ctx, roundId)
	if err != nil {
		return nil, err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 && round.Winner != winner {
		zap.L().Warn("Round already has a different winner recorded",
			zap.Uint64("round_id", roundId),
			zap.String("recorded", round.Winner),
			zap.String("observed", winner))
	} else if affected > 0 {
		zap.L().Info("Round winner recorded", zap.Uint64("round_id", roundId), zap.String("winner", winner))
	}

	return round, nil
}

func (s *Service) GetRound(ctx context.Context, roundId uint64) (*models.RaffleRound, error) {
	round, err := scanRound(s.db.QueryRowContext(ctx, queryGetRound, roundId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", store.ErrRoundNotFound, roundId)
		}
		zap.L().Error("Failed to query raffle round", zap.Uint64("round_id", roundId), zap.Error(err))
		return nil, fmt.Errorf("unable to query raffle round: %w", err)
	}
	return round, nil
}

func (s *Service) GetLatestRound(ctx context.Context) (*models.RaffleRound, error) {
	round, err := scanRound(s.db.QueryRowContext(ctx, queryGetLatestRound))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRoundNotFound
		}
		zap.L().Error("Failed to query latest raffle round", zap.Error(err))
		return nil, fmt.Errorf("unable to query latest raffle round: %w", err)
	}
	return round, nil
}

func (s *Service) ListRounds(ctx context.Context, limit, offset int) ([]models.RaffleRound, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryListRounds, limit, offset)
	if err != nil {
		zap.L().Error("Failed to query raffle rounds", zap.Error(err))
		return nil, fmt.Errorf("unable to query raffle rounds: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	rounds := []models.RaffleRound{}
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			zap.L().Error("Failed to scan raffle round row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan raffle round row: %w", err)
		}
		rounds = append(rounds, *round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle round rows: %w", err)
	}

	zap.L().Debug("Retrieved raffle rounds", zap.Int("count", len(rounds)))
	return rounds, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
