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

package chain

import (
	"context"
	"sync"
	"time"

	"raffle-sync-go/internal/models"

	"go.uber.org/zap"
)

// SnapshotFetcher performs one contract read.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (models.ChainSnapshot, error)
}

// ReaderConfig contains configuration for Reader
type ReaderConfig struct {
	Fetcher         SnapshotFetcher
	PollingInterval time.Duration
	Metrics         *Metrics
}

// Reader polls the contract and keeps the latest good snapshot
type Reader struct {
	fetcher         SnapshotFetcher
	pollingInterval time.Duration
	metrics         *Metrics

	mutex       sync.RWMutex
	snapshot    models.ChainSnapshot
	hasSnapshot bool
	subscribers []func(models.ChainSnapshot)

	// Capacity 1: pending refetch requests collapse into one
	trigger chan struct{}

	// Control channels
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewReader creates a new contract reader
func NewReader(cfg ReaderConfig) *Reader {
	pollingInterval := cfg.PollingInterval
	if pollingInterval <= 0 {
		pollingInterval = 5 * time.Second
	}
	return &Reader{
		fetcher:         cfg.Fetcher,
		pollingInterval: pollingInterval,
		metrics:         cfg.Metrics,
		trigger:         make(chan struct{}, 1),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// OnSnapshot registers fn to run after every successful fetch. Register before Start.
func (r *Reader) OnSnapshot(fn func(models.ChainSnapshot)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Snapshot returns the latest good snapshot and whether one has been fetched yet
func (r *Reader) Snapshot() (models.ChainSnapshot, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.snapshot, r.hasSnapshot
}

// Refetch requests an immediate fetch without waiting for it
func (r *Reader) Refetch() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start begins polling; the first fetch happens immediately
func (r *Reader) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		r.mutex.Lock()
		r.cancel = cancel
		r.mutex.Unlock()

		go r.pollLoop(loopCtx)
		zap.L().Info("Chain reader started", zap.Duration("polling_interval", r.pollingInterval))
	})
}

// Stop cancels an in-flight fetch and waits for the poll loop to exit
func (r *Reader) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)

		r.mutex.RLock()
		cancel := r.cancel
		r.mutex.RUnlock()
		if cancel != nil {
			cancel()
			<-r.doneChan
		}
		zap.L().Info("Chain reader stopped")
	})
}

func (r *Reader) pollLoop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	r.fetch(ctx)

	for {
		select {
		case <-ticker.C:
			r.fetch(ctx)
		case <-r.trigger:
			r.fetch(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reader) fetch(ctx context.Context) {
	started := time.Now()
	snapshot, err := r.fetcher.FetchSnapshot(ctx)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		r.metrics.observeFetch(false, elapsed, 0)
		if ctx.Err() != nil {
			return
		}
		zap.L().Warn("Failed to fetch contract snapshot, keeping previous", zap.Error(err))
		return
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}
	r.metrics.observeFetch(true, elapsed, float64(snapshot.FetchedAt.Unix()))

	r.mutex.Lock()
	r.snapshot = snapshot
	r.hasSnapshot = true
	subscribers := make([]func(models.ChainSnapshot), len(r.subscribers))
	copy(subscribers, r.subscribers)
	r.mutex.Unlock()

	zap.L().Debug("Fetched contract snapshot",
		zap.Uint64("round_id", snapshot.RoundId),
		zap.Stringer("phase", snapshot.Phase),
		zap.Uint64("players", snapshot.PlayerCount),
		zap.Uint64("seconds_remaining", snapshot.SecondsRemaining))

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
