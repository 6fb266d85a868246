package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Chain      ChainConfig
	Reconciler ReconcilerConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	BusyTimeout      time.Duration
	RoundGracePeriod time.Duration
}

// ChainConfig holds RPC endpoint and contract polling settings
type ChainConfig struct {
	RpcUrl               string
	ContractsFile        string
	Deployment           string
	PollingInterval      time.Duration
	EventPollingInterval time.Duration
	ReorgDepth           uint64
	EventRetention       time.Duration
	CleanupInterval      time.Duration
	CallTimeout          time.Duration
}

// ReconcilerConfig holds round view derivation settings
type ReconcilerConfig struct {
	WalletAddress           string
	TickInterval            time.Duration
	CountdownTolerance      time.Duration
	WinnerDisplayWindow     time.Duration
	CalculationStallTimeout time.Duration
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr           string
	CacheTTL       time.Duration
	MetricsEnabled bool
}

// Deployment identifies one deployed raffle contract
type Deployment struct {
	Name       string `yaml:"name"`
	Network    string `yaml:"network"`
	ChainId    uint64 `yaml:"chain_id"`
	Address    string `yaml:"address"`
	StartBlock uint64 `yaml:"start_block"`
}
