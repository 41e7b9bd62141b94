//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/rika-labs/rikadeploy/internal/adapters"
	"github.com/rika-labs/rikadeploy/internal/config"
	"github.com/rika-labs/rikadeploy/internal/logging"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// InitApp creates a fully wired App instance. The returned cleanup releases
// the RPC connection and the checkpoint store.
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewFinalityBarrier,
		usecase.NewVerifyArtifacts,
		usecase.NewDeployPipeline,
		usecase.NewShowStatus,
		usecase.NewResetCheckpoint,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil, nil
}
