package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"raffle-sync-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestUpsertRound_CreateThenRefresh(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	created, err := service.UpsertRound(ctx, store.UpsertRoundParams{RoundId: 7, PrizeAmount: decimal.RequireFromString("0.01")})
	if err != nil {
		t.Fatalf("UpsertRound failed: %v", err)
	}

	if created.RoundId != 7 {
		t.Errorf("Expected round id 7, got %d", created.RoundId)
	}
	if created.EndedAt == nil {
		t.Fatal("Expected ended_at to be set on creation")
	}
	expectedEnd := clock.Now().Add(5 * time.Minute)
	if !created.EndedAt.Equal(expectedEnd) {
		t.Errorf("Expected ended_at %v, got %v", expectedEnd, *created.EndedAt)
	}

	clock.Advance(time.Minute)
	refreshed, err := service.UpsertRound(ctx, store.UpsertRoundParams{RoundId: 7, PrizeAmount: decimal.RequireFromString("0.02")})
	if err != nil {
		t.Fatalf("Second UpsertRound failed: %v", err)
	}

	if refreshed.Id != created.Id {
		t.Errorf("Expected same row id %s, got %s", created.Id, refreshed.Id)
	}
	if !refreshed.PrizeAmount.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("Expected prize 0.02, got %s", refreshed.PrizeAmount.String())
	}
	if !refreshed.EndedAt.Equal(*created.EndedAt) {
		t.Errorf("Expected ended_at to stay %v, got %v", *created.EndedAt, *refreshed.EndedAt)
	}
	if !refreshed.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("Expected created_at to stay %v, got %v", created.CreatedAt, refreshed.CreatedAt)
	}
	if !refreshed.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("Expected updated_at to advance past %v, got %v", created.UpdatedAt, refreshed.UpdatedAt)
	}
}

func TestUpsertRound_RejectsNegativePrize(t *testing.T) {
	service, _, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.UpsertRound(context.Background(), store.UpsertRoundParams{RoundId: 1, PrizeAmount: decimal.NewFromInt(-1)})
	if err == nil {
		t.Fatal("Expected error for negative prize")
	}
}

func TestSetRoundWinner_OnlyOnce(t *testing.T) {
	service, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.UpsertRound(ctx, store.UpsertRoundParams{RoundId: 3, PrizeAmount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("UpsertRound failed: %v", err)
	}

	round, err := service.SetRoundWinner(ctx, 3, "0xAAAA000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("SetRoundWinner failed: %v", err)
	}
	if round.Winner != "0xaaaa000000000000000000000000000000000001" {
		t.Errorf("Expected normalized winner, got %s", round.Winner)
	}

	round, err = service.SetRoundWinner(ctx, 3, "0xbbbb000000000000000000000000000000000002")
	if err != nil {
		t.Fatalf("Second SetRoundWinner failed: %v", err)
	}
	if round.Winner != "0xaaaa000000000000000000000000000000000001" {
		t.Errorf("Expected first winner to be kept, got %s", round.Winner)
	}

	if _, err := service.SetRoundWinner(ctx, 99, "0xaaaa000000000000000000000000000000000001"); !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound, got %v", err)
	}
}

func TestListRounds_NewestFirst(t *testing.T) {
	service, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	for _, id := range []uint64{2, 9, 4} {
		if _, err := service.UpsertRound(ctx, store.UpsertRoundParams{RoundId: id, PrizeAmount: decimal.Zero}); err != nil {
			t.Fatalf("UpsertRound %d failed: %v", id, err)
		}
	}

	rounds, err := service.ListRounds(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	if len(rounds) != 2 || rounds[0].RoundId != 9 || rounds[1].RoundId != 4 {
		t.Fatalf("Unexpected first page: %+v", rounds)
	}

	rounds, err = service.ListRounds(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	if len(rounds) != 1 || rounds[0].RoundId != 2 {
		t.Fatalf("Unexpected second page: %+v", rounds)
	}

	latest, err := service.GetLatestRound(ctx)
	if err != nil {
		t.Fatalf("GetLatestRound failed: %v", err)
	}
	if latest.RoundId != 9 {
		t.Errorf("Expected latest round 9, got %d", latest.RoundId)
	}

	if _, err := service.GetRound(ctx, 100); !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound, got %v", err)
	}
}
