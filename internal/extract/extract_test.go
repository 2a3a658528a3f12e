package extract

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docintel/internal/common"
)

type fakeBackend struct {
	reply string
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeBackend) Name() string          { return "codex" }
func (f *fakeBackend) IsAuthenticated() bool { return true }

func (f *fakeBackend) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractCachesByFingerprint(t *testing.T) {
	path := writeDoc(t, "trust agreement")
	b := &fakeBackend{reply: `{"trust_name":"Smith Trust","executor":"John"}`}
	svc := NewService(nil, time.Hour, 0)

	tree, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)
	assert.Equal(t, "Smith Trust", tree["trust_name"])

	again, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.callCount(), "second call served from cache")
	assert.Equal(t, tree["executor"], again["executor"])
}

func TestExtractInvalidatesOnModifiedTime(t *testing.T) {
	path := writeDoc(t, "trust agreement")
	b := &fakeBackend{reply: `{"trust_name":"Smith Trust"}`}
	svc := NewService(nil, time.Hour, 0)

	_, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)
	assert.Equal(t, 2, b.callCount(), "stale fingerprint forces recomputation")
}

func TestExtractParseFailure(t *testing.T) {
	path := writeDoc(t, "trust agreement")
	b := &fakeBackend{reply: "no structure to be found here"}
	svc := NewService(nil, time.Hour, 0)

	_, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParseFailure)

	// Failures are not cached.
	b.reply = `{"trust_name":"Smith Trust"}`
	tree, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)
	assert.Equal(t, "Smith Trust", tree["trust_name"])
	assert.Equal(t, 2, b.callCount())
}

func TestExtractSingleFlight(t *testing.T) {
	path := writeDoc(t, "trust agreement")
	release := make(chan struct{})
	b := &fakeBackend{reply: `{"trust_name":"Smith Trust"}`, block: release}
	svc := NewService(nil, time.Hour, 0)

	var wg sync.WaitGroup
	results := make([]map[string]any, 2)
	wg.Add(2)
	for i := range results {
		go func(i int) {
			defer wg.Done()
			tree, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
			assert.NoError(t, err)
			results[i] = tree
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, b.callCount(), "concurrent callers share one invocation")
	assert.Equal(t, results[0]["trust_name"], results[1]["trust_name"])
}

func TestExtractClear(t *testing.T) {
	path := writeDoc(t, "trust agreement")
	b := &fakeBackend{reply: `{"trust_name":"Smith Trust"}`}
	svc := NewService(nil, time.Hour, 0)

	_, err := svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)

	svc.Clear(path)
	_, err = svc.Extract(context.Background(), b, path, "trust agreement", "")
	require.NoError(t, err)
	assert.Equal(t, 2, b.callCount())
}
