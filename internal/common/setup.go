package common

import (
	"context"
	"log"
	"strings"

	"raffle-sync-go/internal/api"
	"raffle-sync-go/internal/chain"
	"raffle-sync-go/internal/database"
	"raffle-sync-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService    *database.Service
	ChainService *chain.Service
	Raffle       *api.RaffleService
	Deployment   models.Deployment
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	zap.L().Info("Loading contract deployments", zap.String("file", cfg.Chain.ContractsFile))
	deployments, err := LoadDeployments(cfg.Chain.ContractsFile)
	if err != nil {
		return nil, err
	}

	deployment, err := SelectDeployment(deployments, cfg.Chain.Deployment)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Using raffle deployment",
		zap.String("name", deployment.Name),
		zap.String("network", deployment.Network),
		zap.String("address", deployment.Address))

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	chainService, err := chain.NewService(ctx, cfg.Chain, deployment)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:    dbService,
		ChainService: chainService,
		Raffle:       api.NewRaffleService(dbService, chainService),
		Deployment:   deployment,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without chain access
// Useful for read-only reports over stored rounds and wagers
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.ChainService != nil {
		cs.ChainService.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
