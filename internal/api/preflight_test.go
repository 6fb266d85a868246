package api

import (
	"context"
	"errors"
	"testing"

	"raffle-sync-go/internal/chain"

	"github.com/shopspring/decimal"
)

func TestPreflight(t *testing.T) {
	service, fake, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	result, err := service.Preflight(ctx, alice, decimal.Zero)
	if err != nil {
		t.Fatalf("Preflight failed: %v", err)
	}
	if !result.Ok || !result.EntranceFee.Equal(fake.fee) {
		t.Errorf("Expected ok with fee %s, got %+v", fake.fee, result)
	}

	result, err = service.Preflight(ctx, alice, decimal.RequireFromString("0.001"))
	if err != nil {
		t.Fatalf("Preflight failed: %v", err)
	}
	if result.Ok || result.Code != chain.CodeSendMoreToEnter {
		t.Errorf("Expected send-more rejection, got %+v", result)
	}

	fake.preflight = errors.New("connection refused")
	if _, err := service.Preflight(ctx, alice, decimal.Zero); err == nil {
		t.Error("Expected transport error to be returned")
	}

	if _, err := service.Preflight(ctx, "bogus", decimal.Zero); err == nil {
		t.Error("Expected error for invalid address")
	}
}
