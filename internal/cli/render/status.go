package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// StatusRenderer renders stored pipeline progress
type StatusRenderer struct {
	out io.Writer
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer) *StatusRenderer {
	return &StatusRenderer{out: out}
}

// RenderStatus renders either a single network's checkpoint or the list of
// all checkpoints when no network was selected
func (r *StatusRenderer) RenderStatus(result *usecase.ShowStatusResult) error {
	if result.Network == nil {
		return r.renderCheckpoints(result)
	}

	if result.State == nil {
		fmt.Fprintf(r.out, "No checkpoint for %s (chain %d)\n", result.Network.Name, result.Network.ChainID)
		return nil
	}
	state := result.State

	headerStyle.Fprintf(r.out, "%s (chain %d)\n", result.Network.Name, state.ChainID)
	faintStyle.Fprintf(r.out, "Run %s started %s by %s\n\n",
		state.RunID, state.StartedAt.Local().Format("2006-01-02 15:04:05"), state.Deployer.Hex())

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Stage", "Status", "Detail"})
	for i, s := range result.Stages {
		status := pendingStyle.Sprint("pending")
		if s.Complete {
			status = verifiedStyle.Sprint("done")
		}
		detail := ""
		switch {
		case s.Record != nil && s.Record.Resolved():
			detail = s.Record.Address.Hex()
		case s.Outcome != nil:
			detail = verificationLabel(s.Outcome)
			if s.Outcome.Reason != "" {
				detail += " " + faintStyle.Sprint(s.Outcome.Reason)
			}
		}
		t.AppendRow(table.Row{i + 1, stageTitle(s.Stage), status, detail})
	}
	t.Render()

	if f := state.Funding(); f != nil {
		fmt.Fprintf(r.out, "\nFaucet funded with %s base units in block %d\n", f.Amount.String(), f.BlockNumber)
	}
	return nil
}

func (r *StatusRenderer) renderCheckpoints(result *usecase.ShowStatusResult) error {
	if len(result.Checkpoints) == 0 {
		fmt.Fprintln(r.out, "No checkpoints found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Network", "Chain ID", "Run", "Last Stage", "Finalized", "Updated"})
	for _, cp := range result.Checkpoints {
		last := "-"
		if cp.LastStage != "" {
			last = stageTitle(cp.LastStage)
		}
		finalized := "no"
		if cp.Finalized {
			finalized = "yes"
		}
		t.AppendRow(table.Row{
			cp.Network,
			cp.ChainID,
			cp.RunID,
			last,
			finalized,
			cp.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}
