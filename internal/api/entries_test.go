package api

import (
	"context"
	"strings"
	"testing"

	"raffle-sync-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestRecordConfirmedEntry(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	entry := models.EntryConfirmation{
		WalletAddress: strings.ToUpper(alice[:2]) + alice[2:],
		RoundId:       7,
		Amount:        decimal.RequireFromString("0.01"),
		PrizeAmount:   decimal.RequireFromString("0.05"),
		TxHash:        "0x" + strings.Repeat("ab", 32),
	}

	result, err := service.RecordConfirmedEntry(ctx, entry)
	if err != nil {
		t.Fatalf("RecordConfirmedEntry failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error %q", result.Error)
	}
	if result.Wallet.Address != alice {
		t.Errorf("Expected normalized address %s, got %s", alice, result.Wallet.Address)
	}
	if result.Round.RoundId != 7 || !result.Round.PrizeAmount.Equal(entry.PrizeAmount) {
		t.Errorf("Unexpected round: %+v", result.Round)
	}
	if result.Round.EndedAt == nil {
		t.Error("Expected round end time to be set")
	}
	if result.Wager.RoundId != 7 || !result.Wager.WagerAmount.Equal(entry.Amount) {
		t.Errorf("Unexpected wager: %+v", result.Wager)
	}

	// Second entry into the same round refreshes the prize
	entry.WalletAddress = bob
	entry.PrizeAmount = decimal.RequireFromString("0.06")
	entry.TxHash = "0x" + strings.Repeat("cd", 32)

	result, err = service.RecordConfirmedEntry(ctx, entry)
	if err != nil || !result.Success {
		t.Fatalf("Second entry failed: %v %+v", err, result)
	}
	if !result.Round.PrizeAmount.Equal(entry.PrizeAmount) {
		t.Errorf("Expected prize %s, got %s", entry.PrizeAmount, result.Round.PrizeAmount)
	}

	_, top, err := service.GetTopWagers(ctx, CurrentRound)
	if err != nil {
		t.Fatalf("GetTopWagers failed: %v", err)
	}
	if len(top) != 2 {
		t.Errorf("Expected 2 leaderboard rows, got %d", len(top))
	}
}

func TestRecordConfirmedEntry_Duplicate(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	entry := models.EntryConfirmation{
		WalletAddress: alice,
		RoundId:       1,
		Amount:        decimal.RequireFromString("0.01"),
		PrizeAmount:   decimal.RequireFromString("0.01"),
		TxHash:        "0x" + strings.Repeat("01", 32),
	}

	if result, err := service.RecordConfirmedEntry(ctx, entry); err != nil || !result.Success {
		t.Fatalf("First entry failed: %v %+v", err, result)
	}

	result, err := service.RecordConfirmedEntry(ctx, entry)
	if err != nil {
		t.Fatalf("Duplicate entry should not be an error: %v", err)
	}
	if result.Success || !result.Duplicate {
		t.Error("Expected duplicate entry to be reported as unsuccessful duplicate")
	}
	if result.Wager != nil {
		t.Error("Expected no wager for duplicate entry")
	}
}

func TestRecordConfirmedEntry_InvalidInput(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	valid := models.EntryConfirmation{
		WalletAddress: alice,
		RoundId:       1,
		Amount:        decimal.RequireFromString("0.01"),
		PrizeAmount:   decimal.Zero,
	}

	tests := []struct {
		name   string
		mutate func(e *models.EntryConfirmation)
	}{
		{"bad address", func(e *models.EntryConfirmation) { e.WalletAddress = "0x1234" }},
		{"zero amount", func(e *models.EntryConfirmation) { e.Amount = decimal.Zero }},
		{"negative prize", func(e *models.EntryConfirmation) { e.PrizeAmount = decimal.NewFromInt(-1) }},
		{"short tx hash", func(e *models.EntryConfirmation) { e.TxHash = "0xabc" }},
		{"non-hex tx hash", func(e *models.EntryConfirmation) { e.TxHash = "0x" + strings.Repeat("zz", 32) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := valid
			tt.mutate(&entry)

			result, err := service.RecordConfirmedEntry(context.Background(), entry)
			if err != nil {
				t.Fatalf("Expected validation result, got error: %v", err)
			}
			if result.Success || result.Error == "" {
				t.Errorf("Expected failure with message, got %+v", result)
			}
		})
	}
}
