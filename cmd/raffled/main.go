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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/common"
	"raffle-sync-go/internal/config"
	"raffle-sync-go/internal/models"
	"raffle-sync-go/internal/reconciler"
	"raffle-sync-go/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting raffle round service")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var registry *prometheus.Registry
	if cfg.Server.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	chainMetrics := chain.NewMetrics(registerer(registry))

	reader := chain.NewReader(chain.ReaderConfig{
		Fetcher:         services.ChainService,
		PollingInterval: cfg.Chain.PollingInterval,
		Metrics:         chainMetrics,
	})

	watcher := chain.NewWatcher(chain.WatcherConfig{
		Source:          services.ChainService,
		Contract:        services.ChainService.Contract(),
		StartBlock:      services.ChainService.StartBlock(),
		ReorgDepth:      cfg.Chain.ReorgDepth,
		PollingInterval: cfg.Chain.EventPollingInterval,
		Retention:       cfg.Chain.EventRetention,
		CleanupInterval: cfg.Chain.CleanupInterval,
		Metrics:         chainMetrics,
	})
	watcher.On(models.EventWinnerPicked, services.Raffle.WinnerHandler(ctx, cfg.Chain.CallTimeout))

	rec, err := reconciler.New(reconciler.Config{
		Reader:                  reader,
		Watcher:                 watcher,
		WalletAddress:           cfg.Reconciler.WalletAddress,
		TickInterval:            cfg.Reconciler.TickInterval,
		CountdownTolerance:      cfg.Reconciler.CountdownTolerance,
		WinnerDisplayWindow:     cfg.Reconciler.WinnerDisplayWindow,
		CalculationStallTimeout: cfg.Reconciler.CalculationStallTimeout,
		Metrics:                 reconciler.NewMetrics(registerer(registry)),
	})
	if err != nil {
		zap.L().Fatal("Failed to create reconciler", zap.Error(err))
	}

	if err := rec.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start reconciler", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewServer(server.Config{
			Raffle:   services.Raffle,
			Session:  rec,
			Registry: registry,
			CacheTTL: cfg.Server.CacheTTL,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP API listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	zap.L().Info("Raffle round service running",
		zap.String("deployment", services.Deployment.Name),
		zap.String("contract", services.Deployment.Address))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping service...")
	case err := <-serverErr:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("HTTP server shutdown incomplete", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		rec.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Raffle round service stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}

// registerer keeps a nil registry from becoming a non-nil interface
func registerer(registry *prometheus.Registry) prometheus.Registerer {
	if registry == nil {
		return nil
	}
	return registry
}
