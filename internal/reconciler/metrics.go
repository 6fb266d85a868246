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
	"raffle-sync-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the reconciled round view. A nil *Metrics records nothing.
type Metrics struct {
	inputs           *prometheus.CounterVec
	phase            prometheus.Gauge
	secondsRemaining prometheus.Gauge
	players          prometheus.Gauge
	roundId          prometheus.Gauge
	stalled          prometheus.Gauge
}

// NewMetrics registers reconciler metrics with the given registry. Returns nil if registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}

	factory := promauto.With(registry)
	return &Metrics{
		inputs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_reconciler_inputs_total",
			Help: "Total number of inputs applied by the reconciler, by kind",
		}, []string{"kind"}),
		phase: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_round_phase",
			Help: "Effective raffle phase (0 open, 1 calculating)",
		}),
		secondsRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_round_seconds_remaining",
			Help: "Seconds left on the local countdown",
		}),
		players: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_round_players",
			Help: "Number of players in the current round",
		}),
		roundId: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_round_id",
			Help: "Current contract round id",
		}),
		stalled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_round_calculation_stalled",
			Help: "1 while winner calculation is taking too long",
		}),
	}
}

func (m *Metrics) observe(kind inputKind, view models.RoundView) {
	if m == nil {
		return
	}
	m.inputs.WithLabelValues(kind.String()).Inc()
	m.phase.Set(float64(view.Phase))
	m.secondsRemaining.Set(float64(view.SecondsRemaining))
	m.players.Set(float64(view.NumberOfPlayers))
	m.roundId.Set(float64(view.RoundId))
	if view.CalculationStalled {
		m.stalled.Set(1)
	} else {
		m.stalled.Set(0)
	}
}
