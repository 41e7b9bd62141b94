package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Command-specific settings (only populated for relevant commands)
	Fresh        bool
	StrictVerify bool
	SkipVerify   bool
	AssumeYes    bool
	ManifestPath string

	// Signing key, read from the environment only
	PrivateKey string

	// Config source tracking
	ConfigSource string // "rikadeploy.toml" or "defaults"

	// Resolved configurations
	Networks   map[string]*Network
	Pipeline   PipelineConfig
	Artifacts  ArtifactsConfig
	Checkpoint CheckpointConfig
	Metrics    MetricsConfig
}

// Network represents network configuration
type Network struct {
	Name           string `json:"name" yaml:"name"`
	ChainID        uint64 `json:"chainId" yaml:"chainId"`
	RPCURL         string `json:"rpcUrl" yaml:"rpcUrl"`
	ExplorerAPIURL string `json:"explorerApiUrl,omitempty" yaml:"explorerApiUrl,omitempty"`
	ExplorerURL    string `json:"explorerUrl,omitempty" yaml:"explorerUrl,omitempty"`
	APIKey         string `json:"-" yaml:"-"`
	Testnet        bool   `json:"testnet" yaml:"testnet"`
}

// AddressURL returns the explorer page for an address, or ""
func (n *Network) AddressURL(address string) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/address/" + address
}
