package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/models"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReader struct {
	mu        sync.Mutex
	listeners []func(models.ChainSnapshot)
	refetches int
	started   bool
	stopped   bool
}

func (f *fakeReader) OnSnapshot(fn func(models.ChainSnapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeReader) Refetch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refetches++
}

func (f *fakeReader) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeReader) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeReader) emit(snapshot models.ChainSnapshot) {
	f.mu.Lock()
	listeners := append([]func(models.ChainSnapshot){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (f *fakeReader) refetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refetches
}

type fakeWatcher struct {
	mu       sync.Mutex
	handlers []chain.EventHandler
	startErr error
	stopped  bool
}

func (f *fakeWatcher) OnAny(fn chain.EventHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *fakeWatcher) Start(ctx context.Context) error {
	return f.startErr
}

func (f *fakeWatcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeWatcher) emit(event models.ChainEvent) {
	f.mu.Lock()
	handlers := append([]chain.EventHandler{}, f.handlers...)
	f.mu.Unlock()
	for _, fn := range handlers {
		fn(event)
	}
}

func waitForView(t *testing.T, r *Reconciler, what string, cond func(models.RoundView) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(r.View()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s; view: %+v", what, r.View())
}

func newTestReconciler(t *testing.T, wallet string) (*Reconciler, *fakeReader, *fakeWatcher) {
	t.Helper()
	reader := &fakeReader{}
	watcher := &fakeWatcher{}
	r, err := New(Config{
		Reader:        reader,
		Watcher:       watcher,
		WalletAddress: wallet,
		TickInterval:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r, reader, watcher
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Watcher: &fakeWatcher{}}); err == nil {
		t.Error("Expected error without a reader")
	}
	if _, err := New(Config{Reader: &fakeReader{}, Watcher: &fakeWatcher{}, WalletAddress: "not-an-address"}); err == nil {
		t.Error("Expected error for invalid wallet")
	}
}

func TestReconciler_SnapshotsAndEvents(t *testing.T) {
	r, reader, watcher := newTestReconciler(t, walletA)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	reader.emit(models.ChainSnapshot{SecondsRemaining: 120, PlayerCount: 2, RoundId: 9, FetchedAt: time.Now()})
	waitForView(t, r, "snapshot", func(v models.RoundView) bool {
		return v.Synced && v.RoundId == 9 && v.Phase == models.PhaseOpen
	})

	watcher.emit(models.ChainEvent{Kind: models.EventEntered, Player: walletB, TxHash: "0x01"})
	waitForView(t, r, "entry", func(v models.RoundView) bool { return v.LastEntrant == walletB })
	if reader.refetchCount() == 0 {
		t.Error("Expected an event to trigger a refetch")
	}

	watcher.emit(models.ChainEvent{Kind: models.EventWinnerPicked, Player: walletA, TxHash: "0x02"})
	waitForView(t, r, "winner", func(v models.RoundView) bool { return v.IsWinner })

	view, err := r.DismissWinner(context.Background())
	if err != nil {
		t.Fatalf("DismissWinner failed: %v", err)
	}
	if view.WinnerAddress != "" {
		t.Errorf("Expected winner dismissed, got %s", view.WinnerAddress)
	}
}

func TestReconciler_SetWallet(t *testing.T) {
	r, _, _ := newTestReconciler(t, "")
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	view, err := r.SetWallet(context.Background(), "0x00000000000000000000000000000000000000AA")
	if err != nil {
		t.Fatalf("SetWallet failed: %v", err)
	}
	if view.WalletAddress != walletA {
		t.Errorf("Expected normalized wallet, got %s", view.WalletAddress)
	}

	if _, err := r.SetWallet(context.Background(), "bogus"); err == nil {
		t.Error("Expected error for invalid wallet")
	}
}

func TestReconciler_StopTearsDownEverything(t *testing.T) {
	r, reader, watcher := newTestReconciler(t, "")
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()
	r.Stop()

	if !reader.stopped || !watcher.stopped {
		t.Error("Expected reader and watcher to be stopped")
	}

	// Late inputs must not block once stopped
	done := make(chan struct{})
	go func() {
		for i := 0; i < inputBuffer*2; i++ {
			reader.emit(models.ChainSnapshot{RoundId: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Inputs blocked after Stop")
	}

	if _, err := r.DismissWinner(context.Background()); err == nil {
		t.Error("Expected error after Stop")
	}
}

func TestReconciler_WatcherStartFailure(t *testing.T) {
	reader := &fakeReader{}
	watcher := &fakeWatcher{startErr: errors.New("boom")}
	r, err := New(Config{Reader: reader, Watcher: watcher})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Expected Start to fail")
	}
	if !reader.stopped || !watcher.stopped {
		t.Error("Expected partial start to be torn down")
	}
}

func TestReconciler_ContextCancelStopsLoop(t *testing.T) {
	r, _, _ := newTestReconciler(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	r.Stop()
}
