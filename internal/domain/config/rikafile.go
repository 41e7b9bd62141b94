package config

// RikaFileConfig represents the rikadeploy.toml configuration file
type RikaFileConfig struct {
	Networks     map[string]NetworkFileConfig `toml:"networks"`
	Token        TokenFileConfig              `toml:"token"`
	Funding      FundingFileConfig            `toml:"funding"`
	Finality     FinalityFileConfig           `toml:"finality"`
	Verification VerificationFileConfig       `toml:"verification"`
	Artifacts    ArtifactsFileConfig          `toml:"artifacts"`
	Checkpoint   CheckpointFileConfig         `toml:"checkpoint"`
	Metrics      MetricsFileConfig            `toml:"metrics"`
}

// NetworkFileConfig represents a [networks.<name>] section
type NetworkFileConfig struct {
	ChainID        uint64 `toml:"chain_id"`
	RPCURL         string `toml:"rpc_url"`
	ExplorerAPIURL string `toml:"explorer_api_url,omitempty"`
	ExplorerURL    string `toml:"explorer_url,omitempty"`
	APIKey         string `toml:"api_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
	Testnet        *bool  `toml:"testnet,omitempty"`
}

// TokenFileConfig represents the [token] section
type TokenFileConfig struct {
	Decimals *uint8 `toml:"decimals,omitempty"`
}

// FundingFileConfig represents the [funding] section
type FundingFileConfig struct {
	Amount string `toml:"amount,omitempty"`
}

// FinalityFileConfig represents the [finality] section. Durations use
// time.ParseDuration syntax.
type FinalityFileConfig struct {
	Confirmations *uint64 `toml:"confirmations,omitempty"`
	MinDelay      string  `toml:"min_delay,omitempty"`
	PollInterval  string  `toml:"poll_interval,omitempty"`
	Timeout       string  `toml:"timeout,omitempty"`
	MaxRPCErrors  *int    `toml:"max_rpc_errors,omitempty"`
}

// VerificationFileConfig represents the [verification] section
type VerificationFileConfig struct {
	RequestsPerSecond *float64 `toml:"requests_per_second,omitempty"`
	PollInterval      string   `toml:"poll_interval,omitempty"`
	MaxPolls          *int     `toml:"max_polls,omitempty"`
	LocateRetries     *int     `toml:"locate_retries,omitempty"`
	LocateBackoff     string   `toml:"locate_backoff,omitempty"`
}

// ArtifactsFileConfig represents the [artifacts] section
type ArtifactsFileConfig struct {
	Dir            string `toml:"dir,omitempty"`
	Format         string `toml:"format,omitempty"`
	Token          string `toml:"token,omitempty"`
	Faucet         string `toml:"faucet,omitempty"`
	Implementation string `toml:"implementation,omitempty"`
	Factory        string `toml:"factory,omitempty"`
}

// CheckpointFileConfig represents the [checkpoint] section
type CheckpointFileConfig struct {
	Driver string `toml:"driver,omitempty"`
	Path   string `toml:"path,omitempty"`
}

// MetricsFileConfig represents the [metrics] section
type MetricsFileConfig struct {
	PushgatewayURL string `toml:"pushgateway_url,omitempty"`
	Job            string `toml:"job,omitempty"`
}
