package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupTestDb(t *testing.T) (*Service, *testClock, func()) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	clock := &testClock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
	service := newService(db, 5*time.Minute)
	service.now = clock.Now

	// Use the actual schema initialization
	if err := service.initSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, clock, cleanup
}

func testDatabaseConfig(path string) models.DatabaseConfig {
	return models.DatabaseConfig{
		Path:             path,
		MaxOpenConns:     8,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Minute,
		ConnMaxIdleTime:  30 * time.Second,
		PingTimeout:      5 * time.Second,
		BusyTimeout:      5 * time.Second,
		RoundGracePeriod: 5 * time.Minute,
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(cfg *models.DatabaseConfig)
	}{
		{"empty path", func(cfg *models.DatabaseConfig) { cfg.Path = "" }},
		{"zero open conns", func(cfg *models.DatabaseConfig) { cfg.MaxOpenConns = 0 }},
		{"negative idle conns", func(cfg *models.DatabaseConfig) { cfg.MaxIdleConns = -1 }},
		{"zero ping timeout", func(cfg *models.DatabaseConfig) { cfg.PingTimeout = 0 }},
		{"negative grace period", func(cfg *models.DatabaseConfig) { cfg.RoundGracePeriod = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDatabaseConfig(filepath.Join(t.TempDir(), "raffle.db"))
			tt.mutate(&cfg)
			if _, err := NewService(ctx, cfg); err == nil {
				t.Fatal("Expected configuration error, got nil")
			}
		})
	}
}

func TestNewService_FileDatabase(t *testing.T) {
	ctx := context.Background()
	service, err := NewService(ctx, testDatabaseConfig(filepath.Join(t.TempDir(), "raffle.db")))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer service.Close()

	if err := service.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if _, err := service.GetLatestRound(ctx); !errors.Is(err, store.ErrRoundNotFound) {
		t.Errorf("Expected ErrRoundNotFound on empty database, got %v", err)
	}
}

func TestUpsertRound_Concurrent(t *testing.T) {
	ctx := context.Background()
	service, err := NewService(ctx, testDatabaseConfig(filepath.Join(t.TempDir(), "raffle.db")))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer service.Close()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	ids := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			round, err := service.UpsertRound(ctx, store.UpsertRoundParams{
				RoundId:     5,
				PrizeAmount: decimal.NewFromInt(int64(i)),
			})
			if err != nil {
				errs <- err
				return
			}
			ids <- round.Id
		}(i)
	}
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		t.Errorf("Concurrent UpsertRound failed: %v", err)
	}

	var firstId string
	for id := range ids {
		if firstId == "" {
			firstId = id
		}
		if id != firstId {
			t.Errorf("Expected a single round row, got ids %s and %s", firstId, id)
		}
	}

	rounds, err := service.ListRounds(ctx, 100, 0)
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("Expected 1 round, got %d", len(rounds))
	}

	// Last writer wins, but the stored prize must be one that was actually submitted
	prize := rounds[0].PrizeAmount
	if !prize.IsInteger() || prize.IsNegative() || prize.GreaterThanOrEqual(decimal.NewFromInt(workers)) {
		t.Errorf("Expected prize to be one of the submitted values 0..%d, got %s", workers-1, prize)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2025, 1, 2, 3, 4, 5, 600, time.FixedZone("EST", -5*3600))

	parsed, err := parseTimestamp(formatTimestamp(original))
	if err != nil {
		t.Fatalf("parseTimestamp failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("Expected %v, got %v", original, parsed)
	}
	if parsed.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %v", parsed.Location())
	}

	if _, err := parseTimestamp("2025-01-02 03:04:05.123456-05:00"); err != nil {
		t.Errorf("Expected driver format to parse, got %v", err)
	}
	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("Expected error for malformed timestamp")
	}
}
