// Package extract is the structured-extraction subsystem: it turns document
// text into a nested key/value tree via a generative back-end. Results are
// fingerprint-cached and single-flighted by canonical path, so the
// intelligence pipeline and any direct extraction callers share work.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/backend"
	"github.com/docuvault/docintel/internal/common"
	"github.com/docuvault/docintel/internal/intel"
	"github.com/docuvault/docintel/internal/llm"
)

type treeEntry struct {
	tree         map[string]any
	computedAt   time.Time
	fileSize     int64
	fileModified time.Time
}

type treeFlight struct {
	done chan struct{}
	tree map[string]any
	err  error
}

// Service implements intel.Extractor.
type Service struct {
	logger    *slog.Logger
	retention time.Duration
	maxChars  int

	mu      sync.Mutex
	entries map[string]*treeEntry
	flights map[string]*treeFlight
}

func NewService(logger *slog.Logger, retention time.Duration, maxChars int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxChars <= 0 {
		maxChars = constants.MaxCondensedChars
	}
	return &Service{
		logger:    logger,
		retention: retention,
		maxChars:  maxChars,
		entries:   make(map[string]*treeEntry),
		flights:   make(map[string]*treeFlight),
	}
}

// Extract returns the structured tree for a document, reusing a cached or
// in-flight extraction for the same path when one exists.
func (s *Service) Extract(ctx context.Context, b backend.Backend, path, text, template string) (map[string]any, error) {
	s.mu.Lock()
	if entry, ok := s.entries[path]; ok {
		if s.entryValid(entry, path) {
			s.mu.Unlock()
			s.logger.Debug("extract.cache.hit", "path", path)
			return entry.tree, nil
		}
		delete(s.entries, path)
	}
	if f, ok := s.flights[path]; ok {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.tree, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &treeFlight{done: make(chan struct{})}
	s.flights[path] = f
	s.mu.Unlock()

	tree, err := s.invoke(ctx, b, path, text, template)

	f.tree, f.err = tree, err
	close(f.done)
	s.mu.Lock()
	delete(s.flights, path)
	if err == nil {
		if st, statErr := os.Stat(path); statErr == nil {
			s.entries[path] = &treeEntry{
				tree:         tree,
				computedAt:   time.Now(),
				fileSize:     st.Size(),
				fileModified: st.ModTime(),
			}
		}
	}
	s.mu.Unlock()
	return tree, err
}

func (s *Service) invoke(ctx context.Context, b backend.Backend, path, text, template string) (map[string]any, error) {
	reqID := common.RequestIDFromContext(ctx)
	start := time.Now()

	timeout := time.Duration(constants.DefaultExtractTimeoutMs) * time.Millisecond
	if d, ok := ctx.Deadline(); ok {
		timeout = time.Until(d)
	}

	prompt := intel.BuildExtractionPrompt(path, intel.CondenseText(text, s.maxChars), template)
	raw, err := b.Invoke(ctx, prompt, timeout)
	if err != nil {
		s.logger.Warn("extract.invoke.failed",
			"req_id", reqID, "path", path, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	tree, err := llm.ExtractJSONObject(raw)
	if err != nil {
		s.logger.Warn("extract.parse.failed",
			"req_id", reqID, "path", path, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, errors.Join(common.ErrParseFailure, err)
	}

	s.logger.Info("extract.ok",
		"req_id", reqID, "path", path, "keys", len(tree),
		"elapsed_ms", time.Since(start).Milliseconds())
	return tree, nil
}

func (s *Service) entryValid(entry *treeEntry, path string) bool {
	if time.Since(entry.computedAt) > s.retention {
		return false
	}
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st.Size() == entry.fileSize && st.ModTime().Equal(entry.fileModified)
}

// Clear drops one cached extraction, or all of them when path is empty.
func (s *Service) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		s.entries = make(map[string]*treeEntry)
		return
	}
	delete(s.entries, path)
}
