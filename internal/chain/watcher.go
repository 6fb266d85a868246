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
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"raffle-sync-go/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// maxBlockRange bounds a single eth_getLogs request.
const maxBlockRange = 5000

// LogSource provides block heights and contract logs.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// EventHandler receives decoded contract events on the watcher goroutine.
type EventHandler func(models.ChainEvent)

// WatcherConfig contains configuration for Watcher
type WatcherConfig struct {
	Source          LogSource
	Contract        common.Address
	StartBlock      uint64
	ReorgDepth      uint64
	PollingInterval time.Duration
	Retention       time.Duration
	CleanupInterval time.Duration
	Metrics         *Metrics
}

// Watcher polls contract logs and dispatches each event once while it is retained
type Watcher struct {
	source          LogSource
	contract        common.Address
	startBlock      uint64
	reorgDepth      uint64
	pollingInterval time.Duration
	retention       time.Duration
	cleanupInterval time.Duration
	metrics         *Metrics

	hooksMutex sync.RWMutex
	anyHooks   []EventHandler
	kindHooks  map[models.EventKind][]EventHandler

	// State management for processed events
	processedEvents map[string]time.Time
	mutex           sync.RWMutex

	// Only touched by the poll goroutine
	nextBlock   uint64
	initialized bool
	floorBlock  uint64

	// Control channels
	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	stopChan    chan struct{}
	doneChan    chan struct{}
	cleanupDone chan struct{}
}

// NewWatcher creates a new contract event watcher
func NewWatcher(cfg WatcherConfig) *Watcher {
	pollingInterval := cfg.PollingInterval
	if pollingInterval <= 0 {
		pollingInterval = 4 * time.Second
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = time.Hour
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	// a rescan window as wide as one request would never move past the floor
	reorgDepth := cfg.ReorgDepth
	if reorgDepth >= maxBlockRange {
		zap.L().Warn("Reorg depth exceeds the log request range, clamping",
			zap.Uint64("reorg_depth", reorgDepth),
			zap.Uint64("max_reorg_depth", maxBlockRange-1))
		reorgDepth = maxBlockRange - 1
	}

	return &Watcher{
		source:          cfg.Source,
		contract:        cfg.Contract,
		startBlock:      cfg.StartBlock,
		reorgDepth:      reorgDepth,
		pollingInterval: pollingInterval,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		metrics:         cfg.Metrics,
		kindHooks:       make(map[models.EventKind][]EventHandler),
		processedEvents: make(map[string]time.Time),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}
}

// OnAny registers fn for every event kind. Generic hooks run before kind-specific ones.
func (w *Watcher) OnAny(fn EventHandler) {
	w.hooksMutex.Lock()
	defer w.hooksMutex.Unlock()
	w.anyHooks = append(w.anyHooks, fn)
}

// On registers fn for one event kind
func (w *Watcher) On(kind models.EventKind, fn EventHandler) {
	w.hooksMutex.Lock()
	defer w.hooksMutex.Unlock()
	w.kindHooks[kind] = append(w.kindHooks[kind], fn)
}

// Start begins event monitoring. The first scan replays events missed while down.
func (w *Watcher) Start(ctx context.Context) error {
	if w.source == nil {
		return fmt.Errorf("watcher has no log source")
	}

	w.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		w.mutex.Lock()
		w.cancel = cancel
		w.mutex.Unlock()

		go w.pollLoop(loopCtx)
		go w.cleanupLoop(loopCtx)

		zap.L().Info("Chain event watcher started",
			zap.String("contract", w.contract.Hex()),
			zap.Duration("polling_interval", w.pollingInterval),
			zap.Uint64("reorg_depth", w.reorgDepth))
	})
	return nil
}

// Stop gracefully stops the watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.mutex.RLock()
		cancel := w.cancel
		w.mutex.RUnlock()
		if cancel != nil {
			cancel()
			<-w.doneChan
			<-w.cleanupDone
		}
		zap.L().Info("Chain event watcher stopped")
	})
}

// pollLoop runs the main polling loop
func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	w.pollOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.pollOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	if err := w.poll(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.metrics.incPollFailure()
		zap.L().Warn("Failed to poll contract events", zap.Error(err))
	}
}

// poll scans from the last scanned block, minus the reorg depth, up to head
func (w *Watcher) poll(ctx context.Context) error {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		return err
	}

	if !w.initialized {
		w.floorBlock = w.startBlock
		if w.floorBlock == 0 && head > w.reorgDepth {
			w.floorBlock = head - w.reorgDepth
		}
		w.nextBlock = w.floorBlock
		w.initialized = true
		zap.L().Info("Event scan starting point resolved",
			zap.Uint64("from_block", w.floorBlock),
			zap.Uint64("head", head))
	}

	from := w.floorBlock
	if w.nextBlock > w.floorBlock+w.reorgDepth {
		from = w.nextBlock - w.reorgDepth
	}
	if from > head {
		return nil
	}
	to := head
	if to-from+1 > maxBlockRange {
		to = from + maxBlockRange - 1
	}

	logs, err := w.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{w.contract},
	})
	if err != nil {
		return err
	}

	dispatched := w.processLogs(logs)
	if to+1 > w.nextBlock {
		w.nextBlock = to + 1
	}
	w.metrics.setLastScanned(to)

	zap.L().Debug("Scanned contract events",
		zap.Uint64("from_block", from),
		zap.Uint64("to_block", to),
		zap.Int("logs", len(logs)),
		zap.Int("dispatched", dispatched))
	return nil
}

// processLogs decodes, orders and dispatches logs, skipping removed and already seen ones
func (w *Watcher) processLogs(logs []types.Log) int {
	events := make([]models.ChainEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			w.metrics.incRemoved()
			continue
		}
		event, ok := DecodeLog(log)
		if !ok {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	dispatched := 0
	for _, event := range events {
		key := event.Key()
		if w.isEventProcessed(key) {
			w.metrics.incDuplicate()
			continue
		}
		w.markEventProcessed(key)
		w.dispatch(event)
		dispatched++
	}
	return dispatched
}

func (w *Watcher) dispatch(event models.ChainEvent) {
	w.hooksMutex.RLock()
	hooks := make([]EventHandler, 0, len(w.anyHooks)+len(w.kindHooks[event.Kind]))
	hooks = append(hooks, w.anyHooks...)
	hooks = append(hooks, w.kindHooks[event.Kind]...)
	w.hooksMutex.RUnlock()

	zap.L().Info("Contract event",
		zap.String("kind", string(event.Kind)),
		zap.String("player", event.Player),
		zap.Uint64("block", event.BlockNumber),
		zap.String("tx_hash", event.TxHash))
	w.metrics.incDispatched(string(event.Kind))

	for _, fn := range hooks {
		fn(event)
	}
}

// DecodeLog converts a raw contract log into a ChainEvent. Unknown or malformed logs return false.
func DecodeLog(log types.Log) (models.ChainEvent, bool) {
	if len(log.Topics) == 0 {
		return models.ChainEvent{}, false
	}

	event := models.ChainEvent{
		BlockNumber: log.BlockNumber,
		TxHash:      strings.ToLower(log.TxHash.Hex()),
		LogIndex:    log.Index,
		ObservedAt:  time.Now().UTC(),
	}

	switch log.Topics[0] {
	case raffleABI.Events[string(models.EventEntered)].ID:
		if len(log.Topics) < 2 {
			return models.ChainEvent{}, false
		}
		event.Kind = models.EventEntered
		event.Player = topicAddress(log.Topics[1])
	case raffleABI.Events[string(models.EventWinnerPicked)].ID:
		if len(log.Topics) < 2 {
			return models.ChainEvent{}, false
		}
		event.Kind = models.EventWinnerPicked
		event.Player = topicAddress(log.Topics[1])
	case raffleABI.Events[string(models.EventRoundStarted)].ID:
		event.Kind = models.EventRoundStarted
	case raffleABI.Events[string(models.EventRandomnessRequested)].ID:
		if len(log.Topics) < 2 {
			return models.ChainEvent{}, false
		}
		event.Kind = models.EventRandomnessRequested
		event.RequestId = new(big.Int).SetBytes(log.Topics[1].Bytes())
	default:
		return models.ChainEvent{}, false
	}

	return event, true
}

func topicAddress(topic common.Hash) string {
	return strings.ToLower(common.BytesToAddress(topic.Bytes()).Hex())
}

// isEventProcessed checks if we've already dispatched this event
func (w *Watcher) isEventProcessed(key string) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	_, exists := w.processedEvents[key]
	return exists
}

// markEventProcessed marks an event as dispatched
func (w *Watcher) markEventProcessed(key string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.processedEvents[key] = time.Now()
}

// cleanupLoop periodically cleans old processed event keys
func (w *Watcher) cleanupLoop(ctx context.Context) {
	defer close(w.cleanupDone)

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.cleanupProcessedEvents(time.Now())
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupProcessedEvents removes entries older than the retention window
func (w *Watcher) cleanupProcessedEvents(now time.Time) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	cutoff := now.Add(-w.retention)
	cleaned := 0

	for key, processedTime := range w.processedEvents {
		if processedTime.Before(cutoff) {
			delete(w.processedEvents, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up old processed events",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(w.processedEvents)))
	}
}
