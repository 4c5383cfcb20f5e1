package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ddurio/ProMage2-sub001/pkg/observability"
)

var progressFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// batchProgress reports batch generation progress on a single terminal line.
// It is registered as the pipeline hooks for the duration of a batch and
// advances once per completed map. Maps served from the cache are never
// generated, so they do not advance it.
type batchProgress struct {
	observability.NoopPipelineHooks

	w     io.Writer
	total int

	mu     sync.Mutex
	done   int
	failed int
}

func newBatchProgress(w io.Writer, total int) *batchProgress {
	return &batchProgress{w: w, total: total}
}

// OnMapComplete advances the counter and redraws the line.
func (p *batchProgress) OnMapComplete(_ context.Context, _ string, _ uint64, _ time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if err != nil {
		p.failed++
	}
	frame := progressFrames[p.done%len(progressFrames)]
	fmt.Fprintf(p.w, "\r%s %s", StyleNumber.Render(frame), StyleDim.Render(fmt.Sprintf("generating %d/%d", p.done, p.total)))
}

// Generated returns how many maps completed and how many of those failed.
func (p *batchProgress) Generated() (done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

// Stop clears the progress line if anything was drawn.
func (p *batchProgress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done > 0 {
		fmt.Fprint(p.w, "\r\033[K")
	}
}

// trackBatch registers a progress tracker for total maps and returns it
// with a function that restores the previous hooks.
func trackBatch(w io.Writer, total int) (*batchProgress, func()) {
	prev := observability.Pipeline()
	p := newBatchProgress(w, total)
	observability.SetPipelineHooks(p)
	return p, func() {
		p.Stop()
		observability.SetPipelineHooks(prev)
	}
}
