package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestResolveRoundId(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.ResolveRoundId(ctx, CurrentRound); !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound with no rounds, got %v", err)
	}
	if _, err := service.ResolveRoundId(ctx, "abc"); !errors.Is(err, ErrInvalidRoundId) {
		t.Errorf("Expected ErrInvalidRoundId, got %v", err)
	}

	for _, id := range []uint64{3, 4} {
		if _, err := service.CreateRound(ctx, id, decimal.Zero); err != nil {
			t.Fatalf("CreateRound failed: %v", err)
		}
	}

	roundId, err := service.ResolveRoundId(ctx, "Current")
	if err != nil {
		t.Fatalf("ResolveRoundId failed: %v", err)
	}
	if roundId != 4 {
		t.Errorf("Expected latest round 4, got %d", roundId)
	}

	roundId, err = service.ResolveRoundId(ctx, " 3 ")
	if err != nil || roundId != 3 {
		t.Errorf("Expected round 3, got %d (%v)", roundId, err)
	}
}

func TestRecordWager_UnknownRound(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.RecordWager(context.Background(), alice, 99, decimal.RequireFromString("0.01"), "")
	if !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound, got %v", err)
	}
}

func TestRecordWinner(t *testing.T) {
	service, fake, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := service.CreateRound(ctx, 5, decimal.RequireFromString("0.03")); err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	fake.roundIds[119] = 5

	event := models.ChainEvent{
		Kind:        models.EventWinnerPicked,
		Player:      bob,
		BlockNumber: 120,
		TxHash:      "0xfeed",
	}

	round, err := service.RecordWinner(ctx, event)
	if err != nil {
		t.Fatalf("RecordWinner failed: %v", err)
	}
	if round.Winner != bob {
		t.Errorf("Expected winner %s, got %s", bob, round.Winner)
	}
	if len(fake.roundCalls) != 1 || fake.roundCalls[0] != 119 {
		t.Errorf("Expected round lookup at block 119, got %v", fake.roundCalls)
	}

	// Wrong kind is rejected before touching the chain
	if _, err := service.RecordWinner(ctx, models.ChainEvent{Kind: models.EventEntered, Player: bob}); err == nil {
		t.Error("Expected error for non-winner event")
	}
}

func TestWinnerHandler_UnknownRound(t *testing.T) {
	service, fake, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	fake.roundIds[9] = 42

	handler := service.WinnerHandler(ctx, time.Second)
	handler(models.ChainEvent{Kind: models.EventWinnerPicked, Player: alice, BlockNumber: 10})

	if _, err := service.GetRound(ctx, 42); !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected round 42 to stay absent, got %v", err)
	}
}
