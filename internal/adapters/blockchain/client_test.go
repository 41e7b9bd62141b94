package blockchain

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

// anvil's first development key
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// rpcServer answers the handful of JSON-RPC methods the adapter uses
type rpcServer struct {
	mu           sync.Mutex
	chainID      string
	receiptAfter int // receipt lookups that return null before the receipt appears
	receiptCalls int
	methods      []string
}

func (s *rpcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.methods = append(s.methods, req.Method)
	var result any
	switch req.Method {
	case "eth_chainId":
		result = s.chainID
	case "eth_blockNumber":
		result = "0x2a"
	case "eth_getCode":
		result = "0x6080"
	case "eth_getTransactionReceipt":
		s.receiptCalls++
		if s.receiptAfter >= 0 && s.receiptCalls > s.receiptAfter {
			result = json.RawMessage(receiptJSON)
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (s *rpcServer) called(method string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.methods {
		if m == method {
			return true
		}
	}
	return false
}

var receiptJSON = `{
	"transactionHash": "0x00000000000000000000000000000000000000000000000000000000000000aa",
	"blockHash": "0x00000000000000000000000000000000000000000000000000000000000000bb",
	"blockNumber": "0x29",
	"transactionIndex": "0x0",
	"status": "0x1",
	"type": "0x2",
	"cumulativeGasUsed": "0x5208",
	"gasUsed": "0x5208",
	"effectiveGasPrice": "0x1",
	"contractAddress": "0x000000000000000000000000000000000000c0de",
	"logs": [],
	"logsBloom": "0x` + strings.Repeat("00", 256) + `"
}`

func newTestAdapter(t *testing.T, server *rpcServer, chainID uint64, key string) *ClientAdapter {
	t.Helper()
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)

	a := NewClientAdapter(&config.RuntimeConfig{
		Network:    &config.Network{Name: "test", ChainID: chainID, RPCURL: srv.URL},
		PrivateKey: key,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.initialBackoff = time.Millisecond
	a.maxBackoff = 2 * time.Millisecond
	t.Cleanup(a.Close)
	return a
}

func TestClientAdapter_Reads(t *testing.T) {
	server := &rpcServer{chainID: "0xdede"}
	a := newTestAdapter(t, server, 57054, testKey)
	ctx := context.Background()

	id, err := a.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(57054), id)

	head, err := a.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), head)

	code, err := a.CodeAt(ctx, common.HexToAddress("0xc0de"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, code)
}

func TestClientAdapter_Sender(t *testing.T) {
	server := &rpcServer{chainID: "0xdede"}

	sender, err := newTestAdapter(t, server, 57054, testKey).Sender(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), sender)

	_, err = newTestAdapter(t, server, 57054, "").Sender(context.Background())
	assert.ErrorContains(t, err, "PRIVATE_KEY is not set")

	_, err = newTestAdapter(t, server, 57054, "0xnothex").Sender(context.Background())
	assert.ErrorContains(t, err, "invalid PRIVATE_KEY")

	assert.False(t, server.called("eth_chainId"), "the key is parsed without dialing")
}

func TestClientAdapter_WaitMined(t *testing.T) {
	server := &rpcServer{chainID: "0xdede", receiptAfter: 2}
	a := newTestAdapter(t, server, 57054, testKey)

	receipt, err := a.WaitMined(context.Background(), &models.PendingTx{Hash: common.HexToHash("0xaa")})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Status)
	assert.Equal(t, common.HexToAddress("0xc0de"), receipt.ContractAddress)
	assert.Equal(t, uint64(41), receipt.BlockNumber.Uint64())
	assert.Equal(t, 3, server.receiptCalls)
}

func TestClientAdapter_WaitMinedTimeout(t *testing.T) {
	server := &rpcServer{chainID: "0xdede", receiptAfter: -1}
	a := newTestAdapter(t, server, 57054, testKey)
	a.receiptTimeout = 20 * time.Millisecond

	_, err := a.WaitMined(context.Background(), &models.PendingTx{Hash: common.HexToHash("0xaa")})
	assert.ErrorIs(t, err, domain.ErrTransactionTimeout)
}

func TestClientAdapter_WaitMinedCancelled(t *testing.T) {
	server := &rpcServer{chainID: "0xdede", receiptAfter: -1}
	a := newTestAdapter(t, server, 57054, testKey)
	a.initialBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.WaitMined(ctx, &models.PendingTx{Hash: common.HexToHash("0xaa")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientAdapter_TransactionReceiptNotFound(t *testing.T) {
	server := &rpcServer{chainID: "0xdede", receiptAfter: -1}
	a := newTestAdapter(t, server, 57054, testKey)

	_, err := a.TransactionReceipt(context.Background(), common.HexToHash("0xaa"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientAdapter_RefusesToSignForAnotherChain(t *testing.T) {
	server := &rpcServer{chainID: "0x92"} // 146
	a := newTestAdapter(t, server, 57054, testKey)

	id, err := a.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(146), id)

	_, err = a.Transact(context.Background(), common.HexToAddress("0x01"), []byte{0x01})
	assert.ErrorIs(t, err, domain.ErrChainIDMismatch)

	_, err = a.DeployContract(context.Background(), []byte{0x60, 0x80}, nil)
	assert.ErrorIs(t, err, domain.ErrChainIDMismatch)

	assert.False(t, server.called("eth_sendRawTransaction"))
}

func TestClientAdapter_NoNetwork(t *testing.T) {
	a := NewClientAdapter(&config.RuntimeConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := a.BlockNumber(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoNetwork)
}
