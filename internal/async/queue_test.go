package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docintel/internal/intel"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeAnalyzer) GetIntelligence(_ context.Context, path string, _ bool) (*intel.IntelligenceResult, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return &intel.IntelligenceResult{}, nil
}

func (f *fakeAnalyzer) seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func TestAnalyzeQueueDrainsAllJobs(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	q := NewAnalyzeQueue(analyzer, nil, WithWorkers(2), WithQueueSize(8))

	var done sync.WaitGroup
	for _, p := range []string{"/a", "/b", "/c", "/d", "/e"} {
		done.Add(1)
		require.NoError(t, q.Enqueue(context.Background(), Job{
			Path:   p,
			OnDone: func(*intel.IntelligenceResult, error) { done.Done() },
		}))
	}
	done.Wait()
	q.Shutdown(context.Background())

	assert.Equal(t, 5, analyzer.seen())
}

func TestAnalyzeQueueRejectsAfterShutdown(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	q := NewAnalyzeQueue(analyzer, nil, WithWorkers(1))
	q.Shutdown(context.Background())

	called := false
	require.NoError(t, q.Enqueue(context.Background(), Job{
		Path:   "/late",
		OnDone: func(*intel.IntelligenceResult, error) { called = true },
	}))
	assert.False(t, called, "jobs after shutdown are dropped")
	assert.Equal(t, 0, analyzer.seen())
}

func TestAnalyzeQueueShutdownIdempotent(t *testing.T) {
	q := NewAnalyzeQueue(&fakeAnalyzer{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
}

func TestAnalyzeQueueShutdownHonorsContext(t *testing.T) {
	block := make(chan struct{})
	analyzer := &blockingAnalyzer{block: block}
	q := NewAnalyzeQueue(analyzer, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "/slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx) // returns even though the worker is stuck
	close(block)
}

type blockingAnalyzer struct{ block chan struct{} }

func (b *blockingAnalyzer) GetIntelligence(context.Context, string, bool) (*intel.IntelligenceResult, error) {
	<-b.block
	return &intel.IntelligenceResult{}, nil
}
