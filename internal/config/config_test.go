package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chain.PollingInterval != 5*time.Second {
		t.Errorf("Expected polling interval 5s, got %v", cfg.Chain.PollingInterval)
	}
	if cfg.Reconciler.CountdownTolerance != 1500*time.Millisecond {
		t.Errorf("Expected countdown tolerance 1.5s, got %v", cfg.Reconciler.CountdownTolerance)
	}
	if cfg.Reconciler.WinnerDisplayWindow != 30*time.Second {
		t.Errorf("Expected winner display window 30s, got %v", cfg.Reconciler.WinnerDisplayWindow)
	}
	if cfg.Reconciler.CalculationStallTimeout != 5*time.Minute {
		t.Errorf("Expected stall timeout 5m, got %v", cfg.Reconciler.CalculationStallTimeout)
	}
	if cfg.Database.RoundGracePeriod != 5*time.Minute {
		t.Errorf("Expected round grace period 5m, got %v", cfg.Database.RoundGracePeriod)
	}
	if cfg.Chain.ReorgDepth != 12 {
		t.Errorf("Expected reorg depth 12, got %d", cfg.Chain.ReorgDepth)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHAIN_POLLING_INTERVAL", "2s")
	t.Setenv("CHAIN_REORG_DEPTH", "3")
	t.Setenv("DATABASE_PATH", "/tmp/raffle-test.db")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chain.PollingInterval != 2*time.Second {
		t.Errorf("Expected polling interval 2s, got %v", cfg.Chain.PollingInterval)
	}
	if cfg.Chain.ReorgDepth != 3 {
		t.Errorf("Expected reorg depth 3, got %d", cfg.Chain.ReorgDepth)
	}
	if cfg.Database.Path != "/tmp/raffle-test.db" {
		t.Errorf("Expected database path override, got %s", cfg.Database.Path)
	}
	if cfg.Server.MetricsEnabled {
		t.Error("Expected metrics to be disabled")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("WINNER_DISPLAY_WINDOW", "thirty")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for invalid duration, got nil")
	}
}

func TestLoad_InvalidReorgDepth(t *testing.T) {
	t.Setenv("CHAIN_REORG_DEPTH", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for negative reorg depth, got nil")
	}
}

func TestLoad_ReorgDepthBeyondScanRange(t *testing.T) {
	t.Setenv("CHAIN_REORG_DEPTH", "5000")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for reorg depth wider than the log scan range, got nil")
	}

	t.Setenv("CHAIN_REORG_DEPTH", "4999")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected max reorg depth to load, got %v", err)
	}
	if cfg.Chain.ReorgDepth != 4999 {
		t.Errorf("Expected reorg depth 4999, got %d", cfg.Chain.ReorgDepth)
	}
}
