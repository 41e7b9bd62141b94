package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// DeployRenderer renders the outcome of a deploy run
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderDeployResult prints the contracts table and anything the operator
// has to act on. It is also called for failed runs, so it only reports
// what the state contains.
func (r *DeployRenderer) RenderDeployResult(result *usecase.DeployPipelineResult) error {
	if result == nil || result.State == nil {
		return nil
	}
	state := result.State

	fmt.Fprintln(r.out)
	headerStyle.Fprintf(r.out, "Deployment on %s (chain %d)\n", state.Network, state.ChainID)
	faintStyle.Fprintf(r.out, "Run %s from %s\n", state.RunID, state.Deployer.Hex())
	if result.Resumed {
		faintStyle.Fprintf(r.out, "Resumed from checkpoint, %d stages restored\n", len(result.Skipped))
	}
	fmt.Fprintln(r.out)

	renderContracts(r.out, state)

	if f := state.Funding(); f != nil {
		fmt.Fprintf(r.out, "\nFunded %s with %s base units of %s (tx %s)\n",
			f.Destination, f.Amount.String(), f.Source, shortHash(f.TxHash.Hex()))
	}

	for _, name := range result.Rejected {
		outcome, _ := state.Outcome(name)
		reason := "rejected"
		if outcome != nil && outcome.Reason != "" {
			reason = outcome.Reason
		}
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Verification of %s failed: %s", name, reason)))
	}

	if result.ManifestPath != "" {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Manifest written to %s", result.ManifestPath)))
	}
	return nil
}

// renderContracts writes one row per deployable artifact
func renderContracts(out io.Writer, state *models.PipelineState) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Artifact", "Contract", "Address", "Tx", "Block", "Verification"})

	for _, name := range deployedArtifacts() {
		rec, ok := state.Record(name)
		if !ok || !rec.Resolved() {
			t.AppendRow(table.Row{artifactTitle(name), "-", pendingStyle.Sprint("not deployed"), "", "", ""})
			continue
		}
		outcome, _ := state.Outcome(name)
		t.AppendRow(table.Row{
			artifactTitle(name),
			rec.ContractName,
			addressStyle.Sprint(rec.Address.Hex()),
			shortHash(rec.TxHash.Hex()),
			rec.BlockNumber,
			verificationLabel(outcome),
		})
	}
	t.Render()
}

// deployedArtifacts lists artifacts in deployment order
func deployedArtifacts() []models.ArtifactName {
	return lo.FilterMap(models.StageOrder, func(stage models.Stage, _ int) (models.ArtifactName, bool) {
		if !stage.IsDeploy() {
			return "", false
		}
		return stage.Artifact()
	})
}

func artifactTitle(name models.ArtifactName) string {
	return cases.Title(language.English).String(name.String())
}
