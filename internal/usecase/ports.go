package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// ChainClient submits transactions and reads chain state for one network.
// Calldata and constructor arguments arrive already ABI-encoded.
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	// Sender returns the address transactions are signed with
	Sender(ctx context.Context) (common.Address, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	DeployContract(ctx context.Context, bytecode, encodedArgs []byte) (*models.PendingTx, error)
	Transact(ctx context.Context, to common.Address, data []byte) (*models.PendingTx, error)
	// WaitMined blocks until the transaction has a receipt, whatever its status
	WaitMined(ctx context.Context, tx *models.PendingTx) (*types.Receipt, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// ArtifactLoader reads compiled contracts from build output
type ArtifactLoader interface {
	Load(ctx context.Context, contractName string) (*models.Artifact, error)
	Sources(ctx context.Context, artifact *models.Artifact) (*models.SourceBundle, error)
}

// ContractVerifier registers deployed contracts with a block explorer.
// A returned error means the explorer could not be asked; its answer,
// including a rejection, comes back as the outcome.
type ContractVerifier interface {
	Verify(ctx context.Context, req *models.VerificationRequest) (*models.VerificationOutcome, error)
}

// CheckpointStore persists pipeline progress per chain
type CheckpointStore interface {
	// Load returns domain.ErrNotFound when no checkpoint exists
	Load(ctx context.Context, chainID uint64) (*models.Checkpoint, error)
	Save(ctx context.Context, checkpoint *models.Checkpoint) error
	Delete(ctx context.Context, chainID uint64) error
	List(ctx context.Context) ([]*models.Checkpoint, error)
}

// ManifestWriter exports the addresses of a finished run
type ManifestWriter interface {
	Write(ctx context.Context, path string, state *models.PipelineState) error
}

// MetricsReporter records run metrics
type MetricsReporter interface {
	StageCompleted(stage models.Stage, duration time.Duration)
	StageFailed(stage models.Stage)
	TransactionMined(stage models.Stage, gasUsed uint64)
	VerificationFinished(artifact models.ArtifactName, status models.VerificationStatus)
	// Flush delivers buffered metrics, if the reporter has a destination
	Flush(ctx context.Context) error
}

// NetworkResolver looks up configured networks
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// Confirmer asks the operator before an irreversible action
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// NopMetrics discards all metrics
type NopMetrics struct{}

func (NopMetrics) StageCompleted(models.Stage, time.Duration)                          {}
func (NopMetrics) StageFailed(models.Stage)                                            {}
func (NopMetrics) TransactionMined(models.Stage, uint64)                               {}
func (NopMetrics) VerificationFinished(models.ArtifactName, models.VerificationStatus) {}
func (NopMetrics) Flush(context.Context) error                                         { return nil }
