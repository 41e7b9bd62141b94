package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/wire"

	"github.com/rika-labs/rikadeploy/internal/adapters/blockchain"
	"github.com/rika-labs/rikadeploy/internal/adapters/checkpoint"
	internalconfig "github.com/rika-labs/rikadeploy/internal/adapters/config"
	"github.com/rika-labs/rikadeploy/internal/adapters/forge"
	"github.com/rika-labs/rikadeploy/internal/adapters/interactive"
	"github.com/rika-labs/rikadeploy/internal/adapters/manifest"
	"github.com/rika-labs/rikadeploy/internal/adapters/metrics"
	"github.com/rika-labs/rikadeploy/internal/adapters/verification"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// ProvideChainClient provides the RPC client and releases its connection on cleanup
func ProvideChainClient(cfg *config.RuntimeConfig, log *slog.Logger) (*blockchain.ClientAdapter, func()) {
	client := blockchain.NewClientAdapter(cfg, log)
	return client, client.Close
}

// ProvideCheckpointStore selects the checkpoint backend from the [checkpoint] driver
func ProvideCheckpointStore(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.CheckpointStore, func(), error) {
	switch cfg.Checkpoint.Driver {
	case "", "json":
		return checkpoint.NewFileStore(cfg.Checkpoint.Path, log), func() {}, nil
	case "sqlite":
		store, err := checkpoint.NewSQLiteStore(context.Background(), cfg.Checkpoint.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close checkpoint database", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint driver %q (expected json or sqlite)", cfg.Checkpoint.Driver)
	}
}

// BlockchainSet provides the chain client
var BlockchainSet = wire.NewSet(
	ProvideChainClient,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.ClientAdapter)),
)

// ArtifactSet provides build artifact access
var ArtifactSet = wire.NewSet(
	forge.NewArtifactLoaderAdapter,
	wire.Bind(new(usecase.ArtifactLoader), new(*forge.ArtifactLoaderAdapter)),
)

// VerificationSet provides explorer verification
var VerificationSet = wire.NewSet(
	verification.NewEtherscanVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.EtherscanVerifier)),
)

// StorageSet provides checkpoint and manifest persistence
var StorageSet = wire.NewSet(
	ProvideCheckpointStore,

	manifest.NewYAMLWriter,
	wire.Bind(new(usecase.ManifestWriter), new(*manifest.YAMLWriter)),
)

// MetricsSet provides run metrics
var MetricsSet = wire.NewSet(
	metrics.NewPrometheusReporter,
	wire.Bind(new(usecase.MetricsReporter), new(*metrics.PrometheusReporter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	BlockchainSet,
	ArtifactSet,
	VerificationSet,
	StorageSet,
	MetricsSet,
	InteractiveSet,
	ConfigSet,
)
