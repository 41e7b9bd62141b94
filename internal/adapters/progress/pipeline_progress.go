package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// PipelineProgress renders pipeline stages as a checklist. Interactive
// terminals get a spinner on the running stage; otherwise each stage is
// printed once as a plain line.
type PipelineProgress struct {
	out         io.Writer
	interactive bool

	mu        sync.Mutex
	spinner   *spinner.Spinner
	stage     string
	label     string
	startedAt time.Time
}

// NewPipelineProgress creates a progress sink writing to out
func NewPipelineProgress(out io.Writer, interactive bool) *PipelineProgress {
	p := &PipelineProgress{out: out, interactive: interactive}
	if interactive {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		p.spinner.HideCursor = false
		_ = p.spinner.Color("cyan", "bold")
	}
	return p
}

// OnProgress handles progress events
func (p *PipelineProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Stage != p.stage && p.stage != "" {
		p.finish(true)
	}

	// restored from checkpoint
	if !event.Spinner {
		color.New(color.FgWhite, color.Faint).Fprintf(p.out, "⊘ %s%s (%s)\n", counter(event), event.Stage, event.Message)
		return
	}

	if event.Stage != p.stage {
		p.stage = event.Stage
		p.label = counter(event)
		p.startedAt = time.Now()
		if !p.interactive {
			fmt.Fprintf(p.out, "%s%s\n", p.label, event.Message)
		}
	} else if !p.interactive && event.Total > 0 {
		fmt.Fprintf(p.out, "  %s\n", event.Message)
	}

	if p.interactive {
		p.spinner.Suffix = " " + p.label + event.Message
		if !p.spinner.Active() {
			p.spinner.Start()
		}
	}
}

// Done closes the running stage. A nil err marks it completed.
func (p *PipelineProgress) Done(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != "" {
		p.finish(err == nil)
	}
}

// finish prints the result line of the current stage
func (p *PipelineProgress) finish(ok bool) {
	if p.spinner != nil && p.spinner.Active() {
		p.spinner.Stop()
	}

	elapsed := time.Since(p.startedAt).Round(time.Millisecond)
	if ok {
		color.New(color.FgGreen).Fprintf(p.out, "✓ %s%s (%s)\n", p.label, p.stage, elapsed)
	} else {
		color.New(color.FgRed).Fprintf(p.out, "✗ %s%s failed after %s\n", p.label, p.stage, elapsed)
	}
	p.stage, p.label = "", ""
}

// Info prints an info message
func (p *PipelineProgress) Info(message string) {
	p.print(color.New(color.FgCyan), message)
}

// Error prints an error message
func (p *PipelineProgress) Error(message string) {
	p.print(color.New(color.FgRed), message)
}

func (p *PipelineProgress) print(c *color.Color, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Stop spinner temporarily
	wasActive := p.spinner != nil && p.spinner.Active()
	if wasActive {
		p.spinner.Stop()
	}

	c.Fprintln(p.out, message)

	if wasActive {
		p.spinner.Start()
	}
}

func counter(event usecase.ProgressEvent) string {
	if event.Total == 0 || event.Current == 0 {
		return ""
	}
	return fmt.Sprintf("[%d/%d] ", event.Current, event.Total)
}

var _ usecase.ProgressSink = (*PipelineProgress)(nil)
