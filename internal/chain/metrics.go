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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks chain reads and event delivery. A nil *Metrics is valid and records nothing.
type Metrics struct {
	snapshotFetches  *prometheus.CounterVec
	snapshotDuration prometheus.Histogram
	snapshotAge      prometheus.Gauge
	eventsDispatched *prometheus.CounterVec
	eventsDuplicate  prometheus.Counter
	eventsRemoved    prometheus.Counter
	lastScannedBlock prometheus.Gauge
	logPollFailures  prometheus.Counter
}

// NewMetrics registers chain metrics with the given registry. Returns nil if registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}

	factory := promauto.With(registry)
	return &Metrics{
		snapshotFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_chain_snapshot_fetches_total",
			Help: "Total number of contract snapshot fetches by result",
		}, []string{"result"}),
		snapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "raffle_chain_snapshot_fetch_seconds",
			Help:    "Duration of contract snapshot fetches",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_chain_snapshot_timestamp_seconds",
			Help: "Unix time of the last successful snapshot",
		}),
		eventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_chain_events_dispatched_total",
			Help: "Total number of contract events dispatched by kind",
		}, []string{"kind"}),
		eventsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_chain_events_duplicate_total",
			Help: "Total number of contract events skipped as already processed",
		}),
		eventsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_chain_events_removed_total",
			Help: "Total number of logs ignored because they were removed by a reorg",
		}),
		lastScannedBlock: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_chain_last_scanned_block",
			Help: "Highest block scanned for contract events",
		}),
		logPollFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "raffle_chain_log_poll_failures_total",
			Help: "Total number of failed event log polls",
		}),
	}
}

func (m *Metrics) observeFetch(ok bool, seconds float64, fetchedAtUnix float64) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.snapshotFetches.WithLabelValues(result).Inc()
	m.snapshotDuration.Observe(seconds)
	if ok {
		m.snapshotAge.Set(fetchedAtUnix)
	}
}

func (m *Metrics) incDispatched(kind string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) incDuplicate() {
	if m == nil {
		return
	}
	m.eventsDuplicate.Inc()
}

func (m *Metrics) incRemoved() {
	if m == nil {
		return
	}
	m.eventsRemoved.Inc()
}

func (m *Metrics) setLastScanned(block uint64) {
	if m == nil {
		return
	}
	m.lastScannedBlock.Set(float64(block))
}

func (m *Metrics) incPollFailure() {
	if m == nil {
		return
	}
	m.logPollFailures.Inc()
}
