package render

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

var (
	tokenAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	faucetAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func init() {
	color.NoColor = true
}

func newState(t *testing.T) *models.PipelineState {
	t.Helper()
	state := models.NewPipelineState("sonicTestnet", 57054, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))

	_, err := state.Begin(models.ArtifactToken, "RUSDC", nil, nil)
	require.NoError(t, err)
	require.NoError(t, state.Resolve(models.ArtifactToken, tokenAddr, common.HexToHash("0xaa"), 10))

	_, err = state.Begin(models.ArtifactFaucet, "RUSDCFaucet", nil, nil)
	require.NoError(t, err)
	require.NoError(t, state.Resolve(models.ArtifactFaucet, faucetAddr, common.HexToHash("0xbb"), 11))

	state.SetFunding(&models.FundingRecord{
		Source:      models.ArtifactToken,
		Destination: models.ArtifactFaucet,
		Amount:      big.NewInt(100_000_000_000),
		TxHash:      common.HexToHash("0xcc"),
		BlockNumber: 12,
	})
	state.SetOutcome(models.ArtifactToken, &models.VerificationOutcome{Status: models.VerificationStatusVerified})
	state.SetOutcome(models.ArtifactFaucet, models.Rejected("Fail - Unable to verify"))
	return state
}

func TestDeployRenderer(t *testing.T) {
	state := newState(t)
	var out bytes.Buffer

	err := NewDeployRenderer(&out).RenderDeployResult(&usecase.DeployPipelineResult{
		State:        state,
		Resumed:      true,
		Skipped:      []models.Stage{models.StageDeployToken},
		Rejected:     []models.ArtifactName{models.ArtifactFaucet},
		ManifestPath: "deployments/sonicTestnet.yaml",
	})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Deployment on sonicTestnet (chain 57054)")
	assert.Contains(t, got, "Resumed from checkpoint, 1 stages restored")
	assert.Contains(t, got, tokenAddr.Hex())
	assert.Contains(t, got, faucetAddr.Hex())
	assert.Contains(t, got, "RUSDCFaucet")
	assert.Contains(t, got, "not deployed")
	assert.Contains(t, got, "Funded faucet with 100000000000 base units of token")
	assert.Contains(t, got, "Verification of faucet failed: Fail - Unable to verify")
	assert.Contains(t, got, "Manifest written to deployments/sonicTestnet.yaml")
}

func TestDeployRenderer_NoState(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewDeployRenderer(&out).RenderDeployResult(nil))
	assert.Empty(t, out.String())
}

func TestStatusRenderer(t *testing.T) {
	network := &config.Network{Name: "sonicTestnet", ChainID: 57054, Testnet: true}

	t.Run("no checkpoint", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, NewStatusRenderer(&out).RenderStatus(&usecase.ShowStatusResult{Network: network}))
		assert.Equal(t, "No checkpoint for sonicTestnet (chain 57054)\n", out.String())
	})

	t.Run("stages", func(t *testing.T) {
		state := newState(t)
		rec, _ := state.Record(models.ArtifactToken)
		outcome, _ := state.Outcome(models.ArtifactFaucet)

		var out bytes.Buffer
		err := NewStatusRenderer(&out).RenderStatus(&usecase.ShowStatusResult{
			Network: network,
			State:   state,
			Stages: []usecase.StageStatus{
				{Stage: models.StageDeployToken, Complete: true, Record: rec},
				{Stage: models.StageVerifyFaucet, Complete: true, Outcome: outcome},
				{Stage: models.StageDeployFactory},
			},
		})
		require.NoError(t, err)

		got := out.String()
		assert.Contains(t, got, "Deploy Token")
		assert.Contains(t, got, tokenAddr.Hex())
		assert.Contains(t, got, "Verify Faucet")
		assert.Contains(t, got, "rejected Fail - Unable to verify")
		assert.Contains(t, got, "pending")
		assert.Contains(t, got, "Faucet funded with 100000000000 base units in block 12")
	})

	t.Run("all checkpoints", func(t *testing.T) {
		var out bytes.Buffer
		err := NewStatusRenderer(&out).RenderStatus(&usecase.ShowStatusResult{
			Checkpoints: []*models.Checkpoint{{
				RunID:     "run-1",
				ChainID:   146,
				Network:   "sonic",
				LastStage: models.StageAwaitFinality,
				Finalized: true,
				UpdatedAt: time.Now(),
			}},
		})
		require.NoError(t, err)
		got := out.String()
		assert.Contains(t, got, "sonic")
		assert.Contains(t, got, "run-1")
		assert.Contains(t, got, "Await Finality")
	})

	t.Run("no checkpoints", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, NewStatusRenderer(&out).RenderStatus(&usecase.ShowStatusResult{}))
		assert.Equal(t, "No checkpoints found\n", out.String())
	})
}

func TestNetworksRenderer(t *testing.T) {
	var out bytes.Buffer
	err := NewNetworksRenderer(&out).RenderNetworksList(&usecase.ListNetworksResult{
		Networks: []usecase.NetworkStatus{
			{Name: "sonic", ChainID: 146, ExplorerURL: "https://sonicscan.org", HasAPIKey: true},
			{Name: "sonicTestnet", ChainID: 57054, Testnet: true},
			{Name: "broken", Error: errors.New("rpc_url is empty")},
		},
	})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "https://sonicscan.org")
	assert.Contains(t, got, "testnet")
	assert.Contains(t, got, "missing")
	assert.Contains(t, got, "error: rpc_url is empty")
}

func TestVerifyRenderer(t *testing.T) {
	state := newState(t)
	var out bytes.Buffer

	err := NewVerifyRenderer(&out).RenderVerifyResult(&usecase.VerifyArtifactsResult{
		State:    state,
		Verified: []models.ArtifactName{models.ArtifactToken},
		Rejected: []models.ArtifactName{models.ArtifactFaucet},
	})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "✓ token verified")
	assert.Contains(t, got, "✗ faucet: Fail - Unable to verify")
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ Insufficient token balance", FormatError("stage fund_faucet failed: insufficient token balance"))
}

func TestStageTitle(t *testing.T) {
	assert.Equal(t, "Deploy Implementation", stageTitle(models.StageDeployImplementation))
	assert.Equal(t, "0x1234…abcd", shortHash("0x1234567890abcdef1234567890abcd"))
}
