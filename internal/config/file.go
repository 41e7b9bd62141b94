package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

// loadEnvFiles loads .env and .env.local into the process environment.
// Variables already set in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// loadRikaFile loads and parses the config file if it exists.
// Returns (nil, nil) when the file does not exist.
func loadRikaFile(path string) (*config.RikaFileConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var cfg config.RikaFileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	// Expand environment variables in network sections
	for name, n := range cfg.Networks {
		n.RPCURL = os.ExpandEnv(n.RPCURL)
		n.ExplorerAPIURL = os.ExpandEnv(n.ExplorerAPIURL)
		n.ExplorerURL = os.ExpandEnv(n.ExplorerURL)
		n.APIKey = os.ExpandEnv(n.APIKey)
		cfg.Networks[name] = n
	}

	return &cfg, nil
}

func buildPipelineConfig(file *config.RikaFileConfig) (config.PipelineConfig, error) {
	p := config.DefaultPipelineConfig()

	if file.Token.Decimals != nil {
		p.TokenDecimals = *file.Token.Decimals
	}
	if file.Funding.Amount != "" {
		p.FundingAmount = file.Funding.Amount
	}

	a := file.Artifacts
	p.Contracts.Token = orDefault(a.Token, p.Contracts.Token)
	p.Contracts.Faucet = orDefault(a.Faucet, p.Contracts.Faucet)
	p.Contracts.Implementation = orDefault(a.Implementation, p.Contracts.Implementation)
	p.Contracts.Factory = orDefault(a.Factory, p.Contracts.Factory)

	f := file.Finality
	if f.Confirmations != nil {
		p.Finality.Confirmations = *f.Confirmations
	}
	if f.MaxRPCErrors != nil {
		p.Finality.MaxRPCErrors = *f.MaxRPCErrors
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"finality.min_delay", f.MinDelay, &p.Finality.MinDelay},
		{"finality.poll_interval", f.PollInterval, &p.Finality.PollInterval},
		{"finality.timeout", f.Timeout, &p.Finality.Timeout},
		{"verification.poll_interval", file.Verification.PollInterval, &p.Verification.PollInterval},
		{"verification.locate_backoff", file.Verification.LocateBackoff, &p.Verification.LocateBackoff},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return p, fmt.Errorf("invalid %s %q: %w", d.key, d.raw, err)
		}
		if parsed < 0 {
			return p, fmt.Errorf("invalid %s %q: must not be negative", d.key, d.raw)
		}
		*d.dst = parsed
	}

	vf := file.Verification
	if vf.RequestsPerSecond != nil {
		p.Verification.RequestsPerSecond = *vf.RequestsPerSecond
	}
	if vf.MaxPolls != nil {
		p.Verification.MaxPolls = *vf.MaxPolls
	}
	if vf.LocateRetries != nil {
		p.Verification.LocateRetries = *vf.LocateRetries
	}

	if p.Finality.Confirmations == 0 {
		return p, fmt.Errorf("invalid finality.confirmations: must be at least 1")
	}
	if p.Finality.PollInterval == 0 {
		return p, fmt.Errorf("invalid finality.poll_interval: must be positive")
	}
	if p.Verification.RequestsPerSecond <= 0 {
		return p, fmt.Errorf("invalid verification.requests_per_second: must be positive")
	}

	return p, nil
}

func buildArtifactsConfig(projectRoot string, a config.ArtifactsFileConfig) config.ArtifactsConfig {
	cfg := config.ArtifactsConfig{
		Dir:    a.Dir,
		Format: orDefault(a.Format, "auto"),
	}
	if cfg.Dir == "" {
		switch cfg.Format {
		case "hardhat":
			cfg.Dir = "artifacts"
		case "foundry":
			cfg.Dir = "out"
		default:
			cfg.Dir = "out"
			if _, err := os.Stat(filepath.Join(projectRoot, "out")); os.IsNotExist(err) {
				if _, err := os.Stat(filepath.Join(projectRoot, "artifacts")); err == nil {
					cfg.Dir = "artifacts"
				}
			}
		}
	}
	if !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(projectRoot, cfg.Dir)
	}
	return cfg
}

func buildCheckpointConfig(dataDir string, c config.CheckpointFileConfig) config.CheckpointConfig {
	cfg := config.CheckpointConfig{
		Driver: orDefault(c.Driver, "json"),
		Path:   c.Path,
	}
	if cfg.Path == "" {
		if cfg.Driver == "sqlite" {
			cfg.Path = filepath.Join(dataDir, "checkpoints.db")
		} else {
			cfg.Path = filepath.Join(dataDir, "checkpoints")
		}
	} else if !filepath.IsAbs(cfg.Path) {
		cfg.Path = filepath.Join(filepath.Dir(dataDir), cfg.Path)
	}
	return cfg
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
