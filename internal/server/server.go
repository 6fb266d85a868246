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

package server

import (
	"context"
	"net/http"
	"time"

	"raffle-sync-go/internal/api"
	"raffle-sync-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// RaffleAPI is the set of service operations exposed over HTTP
type RaffleAPI interface {
	HealthCheck(ctx context.Context) error
	ResolveRoundId(ctx context.Context, ref string) (uint64, error)
	GetRound(ctx context.Context, roundId uint64) (*models.RaffleRound, error)
	ListRounds(ctx context.Context, limit, offset int) ([]models.RaffleRound, error)
	CreateRound(ctx context.Context, roundId uint64, prize decimal.Decimal) (*models.RaffleRound, error)
	GetTopWagers(ctx context.Context, ref string) (uint64, []models.TopWager, error)
	RecordWager(ctx context.Context, address string, roundId uint64, amount decimal.Decimal, txHash string) (*models.Wager, error)
	RecordConfirmedEntry(ctx context.Context, entry models.EntryConfirmation) (*models.EntryResult, error)
	RegisterWallet(ctx context.Context, address string) (*models.Wallet, error)
	GetWallet(ctx context.Context, address string) (*models.Wallet, error)
	LinkWallet(ctx context.Context, address, userId string) (*models.Wallet, error)
	GetWalletHistory(ctx context.Context, address string) (*models.Wallet, []models.WagerHistoryEntry, error)
	Preflight(ctx context.Context, address string, amount decimal.Decimal) (*models.PreflightResult, error)
}

var _ RaffleAPI = (*api.RaffleService)(nil)

// RoundSession is the live round view and its per-session mutations
type RoundSession interface {
	View() models.RoundView
	SetWallet(ctx context.Context, address string) (models.RoundView, error)
	DismissWinner(ctx context.Context) (models.RoundView, error)
}

type Config struct {
	Raffle   RaffleAPI
	Session  RoundSession
	Registry *prometheus.Registry
	CacheTTL time.Duration
}

type Server struct {
	raffle   RaffleAPI
	session  RoundSession
	validate *validator.Validate
	cache    *cache.Cache
	metrics  *httpMetrics
	router   chi.Router
}

func NewServer(cfg Config) *Server {
	s := &Server{
		raffle:   cfg.Raffle,
		session:  cfg.Session,
		validate: validator.New(),
	}
	if cfg.Registry != nil {
		s.metrics = newHTTPMetrics(cfg.Registry)
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.health)
	if cfg.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry}))
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/round", s.getRoundView)
		r.Post("/round/winner/dismiss", s.dismissWinner)
		r.Put("/session/wallet", s.setSessionWallet)

		r.Get("/rounds", s.listRounds)
		r.Post("/rounds", s.createRound)
		r.Get("/rounds/{roundId}", s.getRound)
		r.Get("/rounds/{roundId}/top-wagers", s.getTopWagers)

		r.Post("/wagers", s.recordWager)
		r.Post("/entries", s.recordEntry)

		r.Post("/wallets", s.registerWallet)
		r.Get("/wallets/{address}", s.getWallet)
		r.Post("/wallets/{address}/link", s.linkWallet)
		r.Get("/wallets/{address}/history", s.getWalletHistory)

		r.Get("/raffle/preflight", s.preflight)
		r.Post("/tx-errors/classify", s.classifyTxError)
	})

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// cached returns the value stored under key, loading and storing it on a miss
func (s *Server) cached(key string, load func() (any, error)) (any, error) {
	if s.cache != nil {
		if value, found := s.cache.Get(key); found {
			return value, nil
		}
	}

	value, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, value, cache.DefaultExpiration)
	}
	return value, nil
}

// invalidate drops cached leaderboards and histories after a write
func (s *Server) invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}
