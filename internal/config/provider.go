package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

// ConfigFileName is the project configuration file
const ConfigFileName = "rikadeploy.toml"

// projectMarkers identify a project root, checked in order in each directory
var projectMarkers = []string{
	ConfigFileName,
	"foundry.toml",
	"hardhat.config.ts",
	"hardhat.config.js",
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	// .env files must be loaded before the TOML values are expanded
	loadEnvFiles(projectRoot)

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".rikadeploy"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		Fresh:          v.GetBool("fresh"),
		StrictVerify:   v.GetBool("strict_verify"),
		SkipVerify:     v.GetBool("skip_verify"),
		AssumeYes:      v.GetBool("yes"),
		ManifestPath:   v.GetString("manifest"),
		PrivateKey:     os.Getenv("PRIVATE_KEY"),
		ConfigSource:   "defaults",
	}

	configPath := v.GetString("config")
	if configPath == "" {
		configPath = filepath.Join(projectRoot, ConfigFileName)
	}
	file, err := loadRikaFile(configPath)
	if err != nil {
		return nil, err
	}
	if file != nil {
		cfg.ConfigSource = filepath.Base(configPath)
	} else {
		file = &config.RikaFileConfig{}
	}

	cfg.Networks = mergeNetworks(builtinNetworks(), file.Networks)

	if cfg.Pipeline, err = buildPipelineConfig(file); err != nil {
		return nil, err
	}
	cfg.Artifacts = buildArtifactsConfig(projectRoot, file.Artifacts)
	cfg.Checkpoint = buildCheckpointConfig(cfg.DataDir, file.Checkpoint)
	cfg.Metrics = config.MetricsConfig{
		PushgatewayURL: os.ExpandEnv(file.Metrics.PushgatewayURL),
		Job:            file.Metrics.Job,
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "rikadeploy"
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		network, err := ResolveNetwork(cfg.Networks, networkName)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find a project marker
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a contracts project (%s not found)", strings.Join(projectMarkers, ", "))
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("RIKA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
