package intel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docintel/constants"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleResult() *IntelligenceResult {
	return &IntelligenceResult{
		Summary: Summary{
			Title:      "Trust",
			Category:   constants.CategoryLegal,
			Importance: constants.ImportanceHigh,
		},
		Insights: Insights{DocumentType: "trust agreement", Completeness: 80},
		Metadata: Metadata{Mode: constants.ModeExtractFirst, Provider: "codex", Confidence: 80},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	path := writeDoc(t, "hello")
	store := NewMemoryStore(180 * 24 * time.Hour)

	store.Set(path, sampleResult())
	got, ok := store.Get(path)
	require.True(t, ok)
	assert.Equal(t, "Trust", got.Summary.Title)
	assert.Equal(t, 1, store.Stats().Entries)
}

func TestMemoryStoreInvalidatesOnModifiedTime(t *testing.T) {
	path := writeDoc(t, "hello")
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(path, sampleResult())

	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	_, ok := store.Get(path)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Stats().Entries, "stale entry is deleted on read")
}

func TestMemoryStoreInvalidatesOnSizeChange(t *testing.T) {
	path := writeDoc(t, "hello")
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(path, sampleResult())

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("hello world, changed"), 0o644))
	// Pin mtime back so only the size differs.
	require.NoError(t, os.Chtimes(path, st.ModTime(), st.ModTime()))

	_, ok := store.Get(path)
	assert.False(t, ok)
}

func TestMemoryStoreExpiresAfterRetention(t *testing.T) {
	path := writeDoc(t, "hello")
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(path, sampleResult())

	store.now = func() time.Time { return time.Now().Add(181 * 24 * time.Hour) }
	_, ok := store.Get(path)
	assert.False(t, ok)
}

func TestMemoryStoreMissOnDeletedFile(t *testing.T) {
	path := writeDoc(t, "hello")
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(path, sampleResult())

	require.NoError(t, os.Remove(path))
	_, ok := store.Get(path)
	assert.False(t, ok)
}

func TestMemoryStoreSetSkipsUnreadableFile(t *testing.T) {
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(filepath.Join(t.TempDir(), "missing.txt"), sampleResult())
	assert.Equal(t, 0, store.Stats().Entries)
}

func TestMemoryStoreClear(t *testing.T) {
	path := writeDoc(t, "hello")
	other := writeDoc(t, "other")
	store := NewMemoryStore(180 * 24 * time.Hour)
	store.Set(path, sampleResult())
	store.Set(other, sampleResult())

	store.Clear(path)
	_, ok := store.Get(path)
	assert.False(t, ok)
	_, ok = store.Get(other)
	assert.True(t, ok)

	store.ClearAll()
	assert.Equal(t, 0, store.Stats().Entries)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := writeDoc(t, "hello")
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), 180*24*time.Hour, nil)
	require.NoError(t, err)
	defer store.Close()

	store.Set(path, sampleResult())
	got, ok := store.Get(path)
	require.True(t, ok)
	assert.Equal(t, constants.CategoryLegal, got.Summary.Category)

	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	_, ok = store.Get(path)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Stats().Entries)
}

func TestFlightRegistrySharesResult(t *testing.T) {
	reg := NewFlightRegistry()

	f1, started := reg.Begin("/doc")
	require.True(t, started)
	f2, started := reg.Begin("/doc")
	require.False(t, started)
	assert.Same(t, f1, f2)

	res := sampleResult()
	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := f2.Wait(context.Background())
		assert.NoError(t, err)
		assert.Same(t, res, got)
	}()

	reg.Finish("/doc", f1, res, nil)
	<-done

	_, started = reg.Begin("/doc")
	assert.True(t, started, "entry removed after finish")
}

func TestFlightWaitHonorsContext(t *testing.T) {
	reg := NewFlightRegistry()
	f, _ := reg.Begin("/doc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCanonicalPath(t *testing.T) {
	got, err := CanonicalPath("/a/b/../c/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "/a/c/doc.txt", got)
}
