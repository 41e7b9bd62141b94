package app

import (
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Confirmer usecase.Confirmer

	// Use cases
	DeployPipeline  *usecase.DeployPipeline
	VerifyArtifacts *usecase.VerifyArtifacts
	ShowStatus      *usecase.ShowStatus
	ResetCheckpoint *usecase.ResetCheckpoint
	ListNetworks    *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	confirmer usecase.Confirmer,
	deployPipeline *usecase.DeployPipeline,
	verifyArtifacts *usecase.VerifyArtifacts,
	showStatus *usecase.ShowStatus,
	resetCheckpoint *usecase.ResetCheckpoint,
	listNetworks *usecase.ListNetworks,
) *App {
	return &App{
		Config:          cfg,
		Confirmer:       confirmer,
		DeployPipeline:  deployPipeline,
		VerifyArtifacts: verifyArtifacts,
		ShowStatus:      showStatus,
		ResetCheckpoint: resetCheckpoint,
		ListNetworks:    listNetworks,
	}
}
