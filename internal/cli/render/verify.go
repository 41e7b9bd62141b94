package render

import (
	"fmt"
	"io"

	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// VerifyRenderer renders a standalone verification run
type VerifyRenderer struct {
	out io.Writer
}

// NewVerifyRenderer creates a new verify renderer
func NewVerifyRenderer(out io.Writer) *VerifyRenderer {
	return &VerifyRenderer{out: out}
}

// RenderVerifyResult prints per-artifact outcomes followed by the contracts table
func (r *VerifyRenderer) RenderVerifyResult(result *usecase.VerifyArtifactsResult) error {
	if result == nil || result.State == nil {
		return nil
	}

	for _, name := range result.Skipped {
		faintStyle.Fprintf(r.out, "  ⏭️  %s already verified, use --force to resubmit\n", name)
	}
	for _, name := range result.Verified {
		outcome, _ := result.State.Outcome(name)
		line := fmt.Sprintf("  ✓ %s %s", name, verificationLabel(outcome))
		if outcome != nil && outcome.URL != "" {
			line += " " + faintStyle.Sprint(outcome.URL)
		}
		fmt.Fprintln(r.out, line)
	}
	for _, name := range result.Rejected {
		outcome, _ := result.State.Outcome(name)
		reason := "rejected"
		if outcome != nil && outcome.Reason != "" {
			reason = outcome.Reason
		}
		rejectedStyle.Fprintf(r.out, "  ✗ %s: %s\n", name, reason)
	}

	fmt.Fprintln(r.out)
	renderContracts(r.out, result.State)
	return nil
}
