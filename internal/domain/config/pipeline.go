package config

import "time"

// PipelineConfig holds the tunables of a deployment run
type PipelineConfig struct {
	TokenDecimals uint8
	FundingAmount string // whole-token quantity, decimal string
	Contracts     ContractNames
	Finality      FinalityConfig
	Verification  VerificationConfig
}

// ContractNames maps pipeline artifacts to build-output contract names
type ContractNames struct {
	Token          string
	Faucet         string
	Implementation string
	Factory        string
}

// FinalityConfig is the confirmation barrier policy
type FinalityConfig struct {
	Confirmations uint64
	MinDelay      time.Duration
	PollInterval  time.Duration
	Timeout       time.Duration
	MaxRPCErrors  int
}

// VerificationConfig controls explorer submissions
type VerificationConfig struct {
	RequestsPerSecond float64
	PollInterval      time.Duration
	MaxPolls          int
	LocateRetries     int           // retries while the explorer hasn't indexed the bytecode
	LocateBackoff     time.Duration // wait between locate retries
}

// ArtifactsConfig says where build output lives
type ArtifactsConfig struct {
	Dir    string
	Format string // foundry, hardhat or auto
}

// CheckpointConfig selects the checkpoint backend
type CheckpointConfig struct {
	Driver string // json or sqlite
	Path   string
}

// MetricsConfig holds the pushgateway target for run metrics
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// DefaultPipelineConfig returns the values the original deploy script used
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TokenDecimals: 6,
		FundingAmount: "100000",
		Contracts: ContractNames{
			Token:          "RUSDC",
			Faucet:         "RUSDCFaucet",
			Implementation: "RikaManagement",
			Factory:        "RikaFactory",
		},
		Finality: FinalityConfig{
			Confirmations: 5,
			PollInterval:  2 * time.Second,
			Timeout:       3 * time.Minute,
			MaxRPCErrors:  5,
		},
		Verification: VerificationConfig{
			RequestsPerSecond: 2,
			PollInterval:      5 * time.Second,
			MaxPolls:          24,
			LocateRetries:     5,
			LocateBackoff:     10 * time.Second,
		},
	}
}
