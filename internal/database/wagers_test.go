package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	"github.com/shopspring/decimal"
)

func mustWallet(t *testing.T, service *Service, address string) *models.Wallet {
	t.Helper()
	wallet, err := service.GetOrCreateWallet(context.Background(), address)
	if err != nil {
		t.Fatalf("GetOrCreateWallet(%s) failed: %v", address, err)
	}
	return wallet
}

func mustRound(t *testing.T, service *Service, roundId uint64) *models.RaffleRound {
	t.Helper()
	round, err := service.UpsertRound(context.Background(), store.UpsertRoundParams{RoundId: roundId, PrizeAmount: decimal.Zero})
	if err != nil {
		t.Fatalf("UpsertRound(%d) failed: %v", roundId, err)
	}
	return round
}

func testAddress(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

func TestRecordEntry_EndToEnd(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	amount := decimal.RequireFromString("0.01")

	wallet := mustWallet(t, service, "0xABC0000000000000000000000000000000000123")
	round, err := service.UpsertRound(ctx, store.UpsertRoundParams{RoundId: 7, PrizeAmount: amount})
	if err != nil {
		t.Fatalf("UpsertRound failed: %v", err)
	}

	wager, err := service.CreateWager(ctx, store.CreateWagerParams{
		WalletId: wallet.Id,
		RoundId:  7,
		Amount:   amount,
		TxHash:   "0xfeed",
	})
	if err != nil {
		t.Fatalf("CreateWager failed: %v", err)
	}

	if wager.RaffleRoundId != round.Id {
		t.Errorf("Expected raffle round id %s, got %s", round.Id, wager.RaffleRoundId)
	}
	if wager.RoundId != 7 {
		t.Errorf("Expected round id 7, got %d", wager.RoundId)
	}
	if !wager.WagerAmount.Equal(amount) {
		t.Errorf("Expected amount %s, got %s", amount.String(), wager.WagerAmount.String())
	}
	if round.EndedAt == nil || !round.EndedAt.Equal(clock.Now().Add(5*time.Minute)) {
		t.Errorf("Expected ended_at five minutes after creation, got %v", round.EndedAt)
	}

	top, err := service.GetTop10Wagers(ctx, 7)
	if err != nil {
		t.Fatalf("GetTop10Wagers failed: %v", err)
	}
	if len(top) != 1 || top[0].Address != "0xabc0000000000000000000000000000000000123" || !top[0].TotalWager.Equal(amount) {
		t.Errorf("Unexpected leaderboard: %+v", top)
	}
}

func TestCreateWager_DistinctTransactions(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	wallet := mustWallet(t, service, testAddress(1))
	mustRound(t, service, 1)

	for i, hash := range []string{"0x01", "0x02"} {
		clock.Advance(time.Second)
		if _, err := service.CreateWager(ctx, store.CreateWagerParams{
			WalletId: wallet.Id, RoundId: 1, Amount: decimal.RequireFromString("0.5"), TxHash: hash,
		}); err != nil {
			t.Fatalf("CreateWager %d failed: %v", i, err)
		}
	}

	top, err := service.GetTop10Wagers(ctx, 1)
	if err != nil {
		t.Fatalf("GetTop10Wagers failed: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("Expected 1 leaderboard row, got %d", len(top))
	}
	if !top[0].TotalWager.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected total 1, got %s", top[0].TotalWager.String())
	}
	if top[0].WagerCount != 2 {
		t.Errorf("Expected 2 wagers, got %d", top[0].WagerCount)
	}
	if !top[0].TimeLastWager.Equal(clock.Now()) {
		t.Errorf("Expected last wager at %v, got %v", clock.Now(), top[0].TimeLastWager)
	}
}

func TestCreateWager_DuplicateTransaction(t *testing.T) {
	service, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	wallet := mustWallet(t, service, testAddress(1))
	mustRound(t, service, 1)

	params := store.CreateWagerParams{WalletId: wallet.Id, RoundId: 1, Amount: decimal.NewFromInt(1), TxHash: "0xABCD"}
	if _, err := service.CreateWager(ctx, params); err != nil {
		t.Fatalf("First CreateWager failed: %v", err)
	}

	params.TxHash = "0xabcd"
	if _, err := service.CreateWager(ctx, params); !errors.Is(err, store.ErrDuplicateWager) {
		t.Fatalf("Expected ErrDuplicateWager, got %v", err)
	}

	// Wagers without a hash are not deduplicated
	params.TxHash = ""
	for i := 0; i < 2; i++ {
		if _, err := service.CreateWager(ctx, params); err != nil {
			t.Fatalf("CreateWager without hash failed: %v", err)
		}
	}

	top, err := service.GetTop10Wagers(ctx, 1)
	if err != nil {
		t.Fatalf("GetTop10Wagers failed: %v", err)
	}
	if !top[0].TotalWager.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected total 3, got %s", top[0].TotalWager.String())
	}
}

func TestCreateWager_MissingReferences(t *testing.T) {
	service, _, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	wallet := mustWallet(t, service, testAddress(1))

	_, err := service.CreateWager(ctx, store.CreateWagerParams{WalletId: wallet.Id, RoundId: 42, Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound, got %v", err)
	}

	mustRound(t, service, 42)
	_, err = service.CreateWager(ctx, store.CreateWagerParams{WalletId: "missing", RoundId: 42, Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, store.ErrWalletNotFound) {
		t.Errorf("Expected ErrWalletNotFound, got %v", err)
	}

	_, err = service.CreateWager(ctx, store.CreateWagerParams{WalletId: wallet.Id, RoundId: 42, Amount: decimal.Zero})
	if err == nil {
		t.Error("Expected error for zero amount")
	}
}

func TestGetTop10Wagers_Ordering(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	mustRound(t, service, 1)
	mustRound(t, service, 2)

	wallets := make(map[int]*models.Wallet)
	for i := 1; i <= 8; i++ {
		wallets[i] = mustWallet(t, service, testAddress(i))
	}

	// 12 wagers across 8 wallets, one second apart
	wagers := []struct {
		wallet int
		amount string
	}{
		{1, "0.5"}, {1, "0.5"},
		{2, "1.0"},
		{3, "0.3"}, {3, "0.3"}, {3, "0.3"},
		{4, "2"},
		{5, "0.1"},
		{6, "0.2"},
		{7, "0.05"}, {7, "0.05"},
		{8, "3"},
	}
	for i, w := range wagers {
		clock.Advance(time.Second)
		_, err := service.CreateWager(ctx, store.CreateWagerParams{
			WalletId: wallets[w.wallet].Id,
			RoundId:  1,
			Amount:   decimal.RequireFromString(w.amount),
			TxHash:   fmt.Sprintf("0x%02x", i),
		})
		if err != nil {
			t.Fatalf("CreateWager %d failed: %v", i, err)
		}
	}

	// Noise in another round must not leak into round 1
	if _, err := service.CreateWager(ctx, store.CreateWagerParams{
		WalletId: wallets[5].Id, RoundId: 2, Amount: decimal.NewFromInt(100), TxHash: "0xother",
	}); err != nil {
		t.Fatalf("CreateWager in round 2 failed: %v", err)
	}

	top, err := service.GetTop10Wagers(ctx, 1)
	if err != nil {
		t.Fatalf("GetTop10Wagers failed: %v", err)
	}

	expected := []struct {
		wallet int
		total  string
	}{
		{8, "3"}, {4, "2"}, {2, "1"}, {1, "1"}, {3, "0.9"}, {6, "0.2"}, {7, "0.1"}, {5, "0.1"},
	}
	if len(top) != len(expected) {
		t.Fatalf("Expected %d rows, got %d", len(expected), len(top))
	}
	for i, want := range expected {
		if top[i].WalletId != wallets[want.wallet].Id {
			t.Errorf("Position %d: expected wallet %d, got %s", i, want.wallet, top[i].Address)
		}
		if !top[i].TotalWager.Equal(decimal.RequireFromString(want.total)) {
			t.Errorf("Position %d: expected total %s, got %s", i, want.total, top[i].TotalWager.String())
		}
	}
}

func TestGetTop10Wagers_Limit(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	mustRound(t, service, 1)

	for i := 1; i <= 12; i++ {
		wallet := mustWallet(t, service, testAddress(i))
		clock.Advance(time.Second)
		if _, err := service.CreateWager(ctx, store.CreateWagerParams{
			WalletId: wallet.Id, RoundId: 1, Amount: decimal.NewFromInt(int64(i)),
		}); err != nil {
			t.Fatalf("CreateWager %d failed: %v", i, err)
		}
	}

	top, err := service.GetTop10Wagers(ctx, 1)
	if err != nil {
		t.Fatalf("GetTop10Wagers failed: %v", err)
	}
	if len(top) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(top))
	}
	if !top[0].TotalWager.Equal(decimal.NewFromInt(12)) || !top[9].TotalWager.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Unexpected bounds: first %s, last %s", top[0].TotalWager.String(), top[9].TotalWager.String())
	}

	empty, err := service.GetTop10Wagers(ctx, 55)
	if err != nil {
		t.Fatalf("GetTop10Wagers for unknown round failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty leaderboard, got %d rows", len(empty))
	}
}

func TestGetHistoryByWallet_Outcomes(t *testing.T) {
	service, clock, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	wallet := mustWallet(t, service, testAddress(1))
	for _, id := range []uint64{1, 2, 3} {
		mustRound(t, service, id)
		clock.Advance(time.Second)
		if _, err := service.CreateWager(ctx, store.CreateWagerParams{
			WalletId: wallet.Id, RoundId: id, Amount: decimal.RequireFromString("0.01"), TxHash: fmt.Sprintf("0x%d", id),
		}); err != nil {
			t.Fatalf("CreateWager round %d failed: %v", id, err)
		}
	}

	if _, err := service.SetRoundWinner(ctx, 1, testAddress(1)); err != nil {
		t.Fatalf("SetRoundWinner failed: %v", err)
	}
	if _, err := service.SetRoundWinner(ctx, 2, testAddress(2)); err != nil {
		t.Fatalf("SetRoundWinner failed: %v", err)
	}

	history, err := service.GetHistoryByWallet(ctx, wallet.Id)
	if err != nil {
		t.Fatalf("GetHistoryByWallet failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(history))
	}

	expected := []struct {
		roundId uint64
		outcome string
	}{
		{3, models.OutcomePending},
		{2, models.OutcomeLost},
		{1, models.OutcomeWon},
	}
	for i, want := range expected {
		if history[i].RoundId != want.roundId {
			t.Errorf("Entry %d: expected round %d, got %d", i, want.roundId, history[i].RoundId)
		}
		if history[i].Outcome != want.outcome {
			t.Errorf("Entry %d: expected outcome %s, got %s", i, want.outcome, history[i].Outcome)
		}
		if history[i].EndedAt == nil {
			t.Errorf("Entry %d: expected ended_at to be set", i)
		}
	}

	none, err := service.GetHistoryByWallet(ctx, "unknown")
	if err != nil {
		t.Fatalf("GetHistoryByWallet for unknown wallet failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected empty history, got %d", len(none))
	}
}
