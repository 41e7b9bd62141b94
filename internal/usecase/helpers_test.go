package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/bindings"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

var testDeployer = common.HexToAddress("0x00000000000000000000000000000000000d3410")

// submission is one transaction seen by fakeChain
type submission struct {
	Kind     models.TxKind
	Bytecode []byte
	Args     []byte
	To       common.Address
	Data     []byte
	Hash     common.Hash
}

// fakeChain mines every transaction into its own block
type fakeChain struct {
	chainID     uint64
	head        uint64
	headStep    uint64
	decimals    uint8
	balance     *big.Int
	revertOn    int // 1-based submission index whose receipt fails
	blockErrs   int // BlockNumber failures before it starts answering
	submissions []submission
	// accounts passed to balanceOf, in call order
	balanceHolders []common.Address
	code        map[common.Address][]byte
	receipts    map[common.Hash]*types.Receipt
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  57054,
		head:     100,
		headStep: 1,
		decimals: 6,
		balance:  new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000)),
		code:     make(map[common.Address][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeChain) ChainID(context.Context) (uint64, error) { return f.chainID, nil }

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.blockErrs > 0 {
		f.blockErrs--
		return 0, errors.New("connection refused")
	}
	h := f.head
	f.head += f.headStep
	return h, nil
}

func (f *fakeChain) CodeAt(_ context.Context, address common.Address) ([]byte, error) {
	return f.code[address], nil
}

func (f *fakeChain) Sender(context.Context) (common.Address, error) { return testDeployer, nil }

func (f *fakeChain) Call(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	switch {
	case hasSelector(data, "decimals"):
		return erc20ABI().Methods["decimals"].Outputs.Pack(f.decimals)
	case hasSelector(data, "balanceOf"):
		args, err := erc20ABI().Methods["balanceOf"].Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		f.balanceHolders = append(f.balanceHolders, args[0].(common.Address))
		return erc20ABI().Methods["balanceOf"].Outputs.Pack(f.balance)
	}
	return nil, errors.New("execution reverted")
}

func hasSelector(data []byte, method string) bool {
	return len(data) >= 4 && string(data[:4]) == string(erc20ABI().Methods[method].ID)
}

func erc20ABI() *abi.ABI {
	parsed, err := bindings.ERC20MetaData.ParseABI()
	if err != nil {
		panic(err)
	}
	return parsed
}

func (f *fakeChain) DeployContract(_ context.Context, bytecode, encodedArgs []byte) (*models.PendingTx, error) {
	return f.mine(submission{Kind: models.TxKindCreate, Bytecode: bytecode, Args: encodedArgs}), nil
}

func (f *fakeChain) Transact(_ context.Context, to common.Address, data []byte) (*models.PendingTx, error) {
	return f.mine(submission{Kind: models.TxKindCall, To: to, Data: data}), nil
}

func (f *fakeChain) mine(s submission) *models.PendingTx {
	n := len(f.submissions) + 1
	s.Hash = common.BigToHash(big.NewInt(int64(0xf000 + n)))
	f.head++

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      s.Hash,
		BlockNumber: new(big.Int).SetUint64(f.head),
		GasUsed:     21000,
	}
	if n == f.revertOn {
		receipt.Status = types.ReceiptStatusFailed
	} else if s.Kind == models.TxKindCreate {
		receipt.ContractAddress = common.BigToAddress(big.NewInt(int64(0xc000 + n)))
		f.code[receipt.ContractAddress] = s.Bytecode
	}
	f.receipts[s.Hash] = receipt
	f.submissions = append(f.submissions, s)

	tx := &models.PendingTx{Hash: s.Hash, Kind: s.Kind, Nonce: uint64(n - 1)}
	if s.Kind == models.TxKindCall {
		to := s.To
		tx.To = &to
	}
	return tx
}

func (f *fakeChain) WaitMined(_ context.Context, tx *models.PendingTx) (*types.Receipt, error) {
	r, ok := f.receipts[tx.Hash]
	if !ok {
		return nil, domain.ErrTransactionTimeout
	}
	return r, nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// kinds returns the kind of each submission in order
func (f *fakeChain) kinds() []models.TxKind {
	out := make([]models.TxKind, 0, len(f.submissions))
	for _, s := range f.submissions {
		out = append(out, s.Kind)
	}
	return out
}

// fakeLoader serves one artifact per contract name
type fakeLoader struct {
	artifacts map[string]*models.Artifact
}

func mustABI(t *testing.T, raw string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return parsed
}

func newFakeLoader(t *testing.T) *fakeLoader {
	noArgs := `[]`
	oneAddr := `[{"type":"constructor","inputs":[{"name":"token","type":"address"}]}]`
	twoAddr := `[{"type":"constructor","inputs":[{"name":"implementation","type":"address"},{"name":"token","type":"address"}]}]`

	mk := func(name, rawABI string, code byte) *models.Artifact {
		return &models.Artifact{
			Name:       name,
			SourceName: "src/" + name + ".sol",
			ABI:        mustABI(t, rawABI),
			Bytecode:   []byte{0x60, 0x80, code},
			Format:     "foundry",
		}
	}
	return &fakeLoader{artifacts: map[string]*models.Artifact{
		"RUSDC":          mk("RUSDC", noArgs, 1),
		"RUSDCFaucet":    mk("RUSDCFaucet", oneAddr, 2),
		"RikaManagement": mk("RikaManagement", noArgs, 3),
		"RikaFactory":    mk("RikaFactory", twoAddr, 4),
	}}
}

func (l *fakeLoader) Load(_ context.Context, name string) (*models.Artifact, error) {
	a, ok := l.artifacts[name]
	if !ok {
		return nil, domain.ArtifactNotFoundErr{Name: name, Dir: "out"}
	}
	return a, nil
}

func (l *fakeLoader) Sources(_ context.Context, a *models.Artifact) (*models.SourceBundle, error) {
	return &models.SourceBundle{
		ContractName:    a.FullyQualifiedName(),
		CompilerVersion: "v0.8.28+commit.7893614a",
		StandardJSON:    []byte(`{"language":"Solidity"}`),
	}, nil
}

// mockVerifier is a testify mock of ContractVerifier
type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, req *models.VerificationRequest) (*models.VerificationOutcome, error) {
	args := m.Called(ctx, req)
	var outcome *models.VerificationOutcome
	if v := args.Get(0); v != nil {
		outcome = v.(*models.VerificationOutcome)
	}
	return outcome, args.Error(1)
}

// requests returns the verification requests in call order
func (m *mockVerifier) requests() []*models.VerificationRequest {
	var out []*models.VerificationRequest
	for _, call := range m.Calls {
		if call.Method == "Verify" {
			out = append(out, call.Arguments.Get(1).(*models.VerificationRequest))
		}
	}
	return out
}

func forArtifact(name models.ArtifactName) interface{} {
	return mock.MatchedBy(func(req *models.VerificationRequest) bool { return req.Artifact == name })
}

func verified() *models.VerificationOutcome {
	return &models.VerificationOutcome{Status: models.VerificationStatusVerified, GUID: "guid"}
}

// memStore keeps checkpoints as encoded documents
type memStore struct {
	docs  map[uint64][]byte
	saves int
	err   error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[uint64][]byte)}
}

func (s *memStore) Load(_ context.Context, chainID uint64) (*models.Checkpoint, error) {
	data, ok := s.docs[chainID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return models.UnmarshalCheckpoint(data)
}

func (s *memStore) Save(_ context.Context, cp *models.Checkpoint) error {
	if s.err != nil {
		return s.err
	}
	data, err := cp.Marshal()
	if err != nil {
		return err
	}
	s.docs[cp.ChainID] = data
	s.saves++
	return nil
}

func (s *memStore) Delete(_ context.Context, chainID uint64) error {
	if _, ok := s.docs[chainID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, chainID)
	return nil
}

func (s *memStore) List(ctx context.Context) ([]*models.Checkpoint, error) {
	var out []*models.Checkpoint
	for id := range s.docs {
		cp, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, message string) (bool, error) {
	c.asked = append(c.asked, message)
	return c.answer, nil
}

type fakeManifest struct {
	paths []string
}

func (m *fakeManifest) Write(_ context.Context, path string, _ *models.PipelineState) error {
	m.paths = append(m.paths, path)
	return nil
}

type recordingMetrics struct {
	NopMetrics
	failed    []models.Stage
	completed []models.Stage
	flushed   int
}

func (m *recordingMetrics) StageCompleted(stage models.Stage, _ time.Duration) {
	m.completed = append(m.completed, stage)
}

func (m *recordingMetrics) StageFailed(stage models.Stage) {
	m.failed = append(m.failed, stage)
}

func (m *recordingMetrics) Flush(context.Context) error {
	m.flushed++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	pipeline := config.DefaultPipelineConfig()
	pipeline.Finality = config.FinalityConfig{
		Confirmations: 3,
		PollInterval:  time.Millisecond,
		Timeout:       time.Second,
		MaxRPCErrors:  2,
	}
	return &config.RuntimeConfig{
		Network: &config.Network{
			Name:    "sonicTestnet",
			ChainID: 57054,
			RPCURL:  "http://127.0.0.1:8545",
			Testnet: true,
		},
		Pipeline: pipeline,
	}
}

// pipelineFixture wires a DeployPipeline to fakes
type pipelineFixture struct {
	cfg       *config.RuntimeConfig
	chain     *fakeChain
	loader    *fakeLoader
	verifier  *mockVerifier
	store     *memStore
	confirmer *fakeConfirmer
	manifest  *fakeManifest
	metrics   *recordingMetrics
	pipeline  *DeployPipeline
	registrar *VerifyArtifacts
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	f := &pipelineFixture{
		cfg:       testConfig(),
		chain:     newFakeChain(),
		loader:    newFakeLoader(t),
		verifier:  &mockVerifier{},
		store:     newMemStore(),
		confirmer: &fakeConfirmer{},
		manifest:  &fakeManifest{},
		metrics:   &recordingMetrics{},
	}
	f.build()
	return f
}

// build (re)creates the use cases, e.g. after cfg was changed
func (f *pipelineFixture) build() {
	log := discardLogger()
	barrier := NewFinalityBarrier(f.chain, NopProgress{}, log)
	f.registrar = NewVerifyArtifacts(f.cfg, f.loader, f.verifier, f.store, barrier, f.metrics, NopProgress{}, log)
	f.pipeline = NewDeployPipeline(f.cfg, f.chain, f.loader, f.store, barrier, f.registrar,
		f.manifest, f.metrics, f.confirmer, NopProgress{}, log)
}

func pad(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}
