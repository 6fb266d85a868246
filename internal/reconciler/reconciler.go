/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/countdown"
	"raffle-sync-go/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// inputBuffer absorbs bursts of events while the loop is busy.
const inputBuffer = 64

// SnapshotSource is the contract reader feeding the reconciler.
type SnapshotSource interface {
	OnSnapshot(fn func(models.ChainSnapshot))
	Refetch()
	Start(ctx context.Context)
	Stop()
}

// EventSource is the contract event stream feeding the reconciler.
type EventSource interface {
	OnAny(fn chain.EventHandler)
	Start(ctx context.Context) error
	Stop()
}

// Config contains configuration for Reconciler
type Config struct {
	Reader                  SnapshotSource
	Watcher                 EventSource
	WalletAddress           string
	TickInterval            time.Duration
	CountdownTolerance      time.Duration
	WinnerDisplayWindow     time.Duration
	CalculationStallTimeout time.Duration
	Metrics                 *Metrics
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Reconciler merges contract snapshots, events and the local clock into one RoundView.
// All state changes happen on a single goroutine.
type Reconciler struct {
	reader       SnapshotSource
	watcher      EventSource
	tickInterval time.Duration
	metrics      *Metrics
	clock        func() time.Time

	state  *state
	inputs chan input

	viewMutex sync.RWMutex
	view      models.RoundView

	// Control channels
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// New creates a reconciler and subscribes it to the reader and watcher.
func New(cfg Config) (*Reconciler, error) {
	if cfg.Reader == nil || cfg.Watcher == nil {
		return nil, fmt.Errorf("reconciler needs both a reader and a watcher")
	}
	if cfg.WalletAddress != "" && !common.IsHexAddress(cfg.WalletAddress) {
		return nil, fmt.Errorf("invalid wallet address %q", cfg.WalletAddress)
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	winnerWindow := cfg.WinnerDisplayWindow
	if winnerWindow <= 0 {
		winnerWindow = 30 * time.Second
	}
	stallTimeout := cfg.CalculationStallTimeout
	if stallTimeout <= 0 {
		stallTimeout = 5 * time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	r := &Reconciler{
		reader:       cfg.Reader,
		watcher:      cfg.Watcher,
		tickInterval: tickInterval,
		metrics:      cfg.Metrics,
		clock:        clock,
		state: newState(settings{
			winnerDisplayWindow:     winnerWindow,
			calculationStallTimeout: stallTimeout,
		}, countdown.NewEngine(cfg.CountdownTolerance), cfg.WalletAddress),
		inputs:   make(chan input, inputBuffer),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	r.state.derive(clock())
	r.view = r.state.view

	cfg.Reader.OnSnapshot(func(snapshot models.ChainSnapshot) {
		r.submit(input{kind: inputSnapshot, snapshot: snapshot})
	})
	cfg.Watcher.OnAny(func(event models.ChainEvent) {
		r.submit(input{kind: inputEvent, event: event})
	})

	return r, nil
}

// Start runs the loop, then the reader and the watcher.
func (r *Reconciler) Start(ctx context.Context) error {
	var err error
	r.startOnce.Do(func() {
		r.viewMutex.Lock()
		r.started = true
		r.viewMutex.Unlock()

		go r.run(ctx)
		r.reader.Start(ctx)
		if err = r.watcher.Start(ctx); err != nil {
			err = fmt.Errorf("failed to start event watcher: %w", err)
			r.Stop()
			return
		}

		zap.L().Info("Round reconciler started",
			zap.Duration("tick_interval", r.tickInterval),
			zap.String("wallet", r.View().WalletAddress))
	})
	return err
}

// Stop tears down the loop, the watcher and the reader together.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		zap.L().Info("Stopping round reconciler")
		close(r.stopChan)

		r.viewMutex.RLock()
		started := r.started
		r.viewMutex.RUnlock()
		if started {
			<-r.doneChan
		}

		r.watcher.Stop()
		r.reader.Stop()
		zap.L().Info("Round reconciler stopped")
	})
}

// View returns a copy of the current round view.
func (r *Reconciler) View() models.RoundView {
	r.viewMutex.RLock()
	defer r.viewMutex.RUnlock()
	return r.view
}

// SetWallet switches the session wallet and waits until the view reflects it.
// An empty address clears the wallet.
func (r *Reconciler) SetWallet(ctx context.Context, address string) (models.RoundView, error) {
	if address != "" && !common.IsHexAddress(address) {
		return models.RoundView{}, fmt.Errorf("invalid wallet address %q", address)
	}
	return r.submitAndWait(ctx, input{kind: inputWallet, wallet: address})
}

// DismissWinner clears the winner banner and waits until the view reflects it.
func (r *Reconciler) DismissWinner(ctx context.Context) (models.RoundView, error) {
	return r.submitAndWait(ctx, input{kind: inputDismissWinner})
}

func (r *Reconciler) submit(in input) bool {
	select {
	case r.inputs <- in:
		return true
	case <-r.stopChan:
		return false
	}
}

func (r *Reconciler) submitAndWait(ctx context.Context, in input) (models.RoundView, error) {
	in.done = make(chan struct{})

	select {
	case r.inputs <- in:
	case <-r.stopChan:
		return models.RoundView{}, fmt.Errorf("reconciler stopped")
	case <-ctx.Done():
		return models.RoundView{}, ctx.Err()
	}

	select {
	case <-in.done:
		return r.View(), nil
	case <-r.stopChan:
		return models.RoundView{}, fmt.Errorf("reconciler stopped")
	case <-ctx.Done():
		return models.RoundView{}, ctx.Err()
	}
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case in := <-r.inputs:
			r.handle(in)
		case <-ticker.C:
			r.handle(input{kind: inputTick})
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) handle(in input) {
	fx := r.state.apply(in, r.clock())
	view := r.state.view

	r.viewMutex.Lock()
	r.view = view
	r.viewMutex.Unlock()

	if in.done != nil {
		close(in.done)
	}
	r.metrics.observe(in.kind, view)

	if fx.refetch {
		r.reader.Refetch()
	}
}
