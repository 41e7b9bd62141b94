package progress

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/rika-labs/rikadeploy/internal/usecase"
)

func TestPipelineProgress_NonInteractive(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	p := NewPipelineProgress(&out, false)
	ctx := context.Background()

	p.OnProgress(ctx, usecase.ProgressEvent{Stage: "deploy_token", Current: 1, Total: 10, Message: "already complete"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: "deploy_faucet", Current: 2, Total: 10, Message: "Deploying faucet", Spinner: true})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: "await_finality", Current: 6, Total: 10, Message: "Waiting for confirmations", Spinner: true})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: "await_finality", Current: 2, Total: 5, Message: "Block 101 has 2/5 confirmations", Spinner: true})
	p.Info("note")
	p.Done(nil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 7)
	assert.Equal(t, "⊘ [1/10] deploy_token (already complete)", lines[0])
	assert.Equal(t, "[2/10] Deploying faucet", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "✓ [2/10] deploy_faucet ("), lines[2])
	assert.Equal(t, "[6/10] Waiting for confirmations", lines[3])
	assert.Equal(t, "  Block 101 has 2/5 confirmations", lines[4])
	assert.Equal(t, "note", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "✓ [6/10] await_finality ("), lines[6])
}

func TestPipelineProgress_Failure(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	p := NewPipelineProgress(&out, false)

	p.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "fund_faucet", Current: 3, Total: 10, Message: "Funding faucet", Spinner: true})
	p.Error("transfer reverted")
	p.Done(errors.New("boom"))

	assert.Contains(t, out.String(), "transfer reverted\n")
	assert.Contains(t, out.String(), "✗ [3/10] fund_faucet failed after")
}

func TestPipelineProgress_DoneWithoutStage(t *testing.T) {
	var out bytes.Buffer
	p := NewPipelineProgress(&out, false)
	p.Done(nil)
	assert.Empty(t, out.String())
}
