package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ddurio/ProMage2-sub001/pkg/observability"
)

func TestBatchProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newBatchProgress(&buf, 4)

	var wg sync.WaitGroup
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i == 0 {
				err = errors.New("boom")
			}
			p.OnMapComplete(context.Background(), "Cave", uint64(i), 0, err)
		}()
	}
	wg.Wait()

	done, failed := p.Generated()
	if done != 3 || failed != 1 {
		t.Errorf("Generated() = %d, %d, want 3, 1", done, failed)
	}
	if !strings.Contains(buf.String(), "generating 3/4") {
		t.Errorf("output = %q, want final count", buf.String())
	}
}

func TestTrackBatchRestoresHooks(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	p, stop := trackBatch(&buf, 2)
	if observability.Pipeline() != observability.PipelineHooks(p) {
		t.Fatal("trackBatch did not register its hooks")
	}
	stop()
	if _, ok := observability.Pipeline().(observability.NoopPipelineHooks); !ok {
		t.Errorf("hooks after stop = %T, want NoopPipelineHooks", observability.Pipeline())
	}
	if buf.Len() != 0 {
		t.Errorf("idle tracker wrote %q", buf.String())
	}
}
