package intel

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/backend"
	"github.com/docuvault/docintel/internal/common"
	"github.com/docuvault/docintel/internal/document"
	"github.com/docuvault/docintel/internal/llm"
)

// Extractor is the structured-extraction collaborator. Implementations cache
// and single-flight by the same canonical path key, so concurrent extraction
// and intelligence work on one document share a single call.
type Extractor interface {
	Extract(ctx context.Context, b backend.Backend, path, text, template string) (map[string]any, error)
}

// Engine drives the fallback pipeline: structured extract → deterministic
// build → short summarize → heuristic. Each stage consumes part of a
// shrinking wall-clock budget; the first stage producing a structurally valid
// result wins, and the heuristic stage never fails.
type Engine struct {
	logger    *slog.Logger
	cfg       common.PipelineConfig
	reader    document.Reader
	extractor Extractor
	backends  *backend.Registry
	store     Store
	flights   *FlightRegistry
}

func NewEngine(
	logger *slog.Logger,
	cfg common.PipelineConfig,
	reader document.Reader,
	extractor Extractor,
	backends *backend.Registry,
	store Store,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		reader:    reader,
		extractor: extractor,
		backends:  backends,
		store:     store,
		flights:   NewFlightRegistry(),
	}
}

// GetIntelligence is the sole public entry point. It always resolves to a
// valid result for reasoning, parsing, and timeout failures; only an
// unreadable document propagates an error. Concurrent callers for the same
// path attach to one in-progress computation.
func (e *Engine) GetIntelligence(ctx context.Context, path string, forceRefresh bool) (*IntelligenceResult, error) {
	canon, err := CanonicalPath(path)
	if err != nil {
		return nil, common.NewAppError("INVALID_PATH", "canonicalize path", err)
	}

	if !forceRefresh {
		if res, ok := e.store.Get(canon); ok {
			e.logger.Debug("intel.cache.hit", "path", canon)
			return res, nil
		}
	}

	f, started := e.flights.Begin(canon)
	if !started {
		e.logger.Debug("intel.flight.attach", "path", canon)
		return f.Wait(ctx)
	}

	var res *IntelligenceResult
	defer func() { e.flights.Finish(canon, f, res, err) }()
	res, err = e.compute(ctx, canon)
	return res, err
}

// ClearCache clears one cached result, or all of them when path is empty.
func (e *Engine) ClearCache(path string) error {
	if path == "" {
		e.store.ClearAll()
		return nil
	}
	canon, err := CanonicalPath(path)
	if err != nil {
		return common.NewAppError("INVALID_PATH", "canonicalize path", err)
	}
	e.store.Clear(canon)
	return nil
}

// CacheStats reports the current cache contents.
func (e *Engine) CacheStats() StoreStats {
	return e.store.Stats()
}

func (e *Engine) compute(ctx context.Context, canon string) (*IntelligenceResult, error) {
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)
	start := time.Now()
	deadline := start.Add(e.cfg.Budget())

	text, err := e.reader.ExtractText(ctx, canon)
	if err != nil {
		e.logger.Error("intel.pipeline.read_failed", "req_id", reqID, "path", canon, "error", err)
		return nil, err
	}
	fields, ferr := e.reader.ReadFormFields(ctx, canon)
	if ferr != nil {
		e.logger.Warn("intel.pipeline.fields_unreadable", "req_id", reqID, "path", canon, "error", ferr)
		fields = nil
	}

	e.logger.Info("intel.pipeline.start",
		"req_id", reqID,
		"path", canon,
		"text_len", len(text.Text),
		"pages", text.PageCount,
		"form_fields", len(fields),
		"budget_ms", e.cfg.BudgetMs,
		"quick", e.cfg.Quick,
	)

	var (
		summary  Summary
		insights Insights
		mode     string
		provider string
		conf     int
		produced bool
	)

	b, authed := e.backends.Select()
	if !authed {
		e.logger.Warn("intel.pipeline.auth_unavailable", "req_id", reqID)
	}

	if authed {
		if s, i, ok := e.runExtractFirst(ctx, b, canon, text.Text, fields, deadline); ok {
			summary, insights = s, i
			mode = constants.ModeExtractFirst
			provider = b.Name()
			conf = constants.ExtractFirstConfidence
			produced = true
		}
	}

	if authed && !produced {
		if s, i, c, ok := e.runShortSummarize(ctx, b, canon, text.Text, deadline); ok {
			summary, insights = s, i
			mode = b.Name() + constants.ShortModeSuffix
			provider = b.Name()
			conf = c
			produced = true
		}
	}

	if !produced {
		summary, insights = AnalyzeHeuristic(canon, text.Text, fields)
		mode = constants.ModeHeuristic
		provider = constants.ProviderNone
		conf = 0
	}

	// The exact field-based value always beats whatever estimate a stage
	// produced.
	if len(fields) > 0 {
		insights.Completeness = FieldCompleteness(fields)
	}

	res := &IntelligenceResult{
		Summary:  summary,
		Insights: insights,
		Metadata: Metadata{
			AnalyzedAt:       time.Now(),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Confidence:       conf,
			Provider:         provider,
			Mode:             mode,
		},
	}
	e.store.Set(canon, res)

	e.logger.Info("intel.pipeline.done",
		"req_id", reqID,
		"path", canon,
		"mode", mode,
		"provider", provider,
		"category", summary.Category,
		"confidence", conf,
		"elapsed_ms", res.Metadata.ProcessingTimeMs,
	)
	return res, nil
}

// runExtractFirst attempts the structured-extract stage and the deterministic
// build. Skipped outright in quick mode, when the remaining budget is at or
// below the quick threshold, or when the computed timeout leaves no room.
func (e *Engine) runExtractFirst(
	ctx context.Context,
	b backend.Backend,
	canon, text string,
	fields []document.FormField,
	deadline time.Time,
) (Summary, Insights, bool) {
	reqID := common.RequestIDFromContext(ctx)
	remaining := time.Until(deadline)
	if e.cfg.Quick || remaining <= e.cfg.QuickThreshold() {
		e.logger.Debug("intel.stage.extract.skipped",
			"req_id", reqID, "reason", "quick", "remaining_ms", remaining.Milliseconds())
		return Summary{}, Insights{}, false
	}

	timeout := min(e.cfg.ExtractTimeout(), max(msDur(constants.ExtractFloorMs), remaining-msDur(constants.ExtractReserveMs)))
	if timeout <= msDur(constants.ExtractSkipBelowMs) {
		e.logger.Debug("intel.stage.extract.skipped",
			"req_id", reqID, "reason", "budget", "timeout_ms", timeout.Milliseconds())
		return Summary{}, Insights{}, false
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tree, err := e.extractor.Extract(cctx, b, canon, text, "")
	if err != nil {
		e.logger.Warn("intel.stage.extract.failed", "req_id", reqID, "error", err)
		return Summary{}, Insights{}, false
	}
	if len(tree) == 0 {
		e.logger.Warn("intel.stage.extract.empty", "req_id", reqID)
		return Summary{}, Insights{}, false
	}

	summary, insights := BuildFromExtraction(tree, canon, fields)
	e.logger.Info("intel.stage.extract.ok", "req_id", reqID, "category", summary.Category)
	return summary, insights, true
}

// runShortSummarize sends the condensed document text to the back-end and
// parses, repairs, and normalizes whatever comes back.
func (e *Engine) runShortSummarize(
	ctx context.Context,
	b backend.Backend,
	canon, text string,
	deadline time.Time,
) (Summary, Insights, int, bool) {
	reqID := common.RequestIDFromContext(ctx)
	remaining := time.Until(deadline)
	if remaining <= msDur(constants.MinStageBudgetMs) {
		e.logger.Warn("intel.stage.summarize.skipped",
			"req_id", reqID, "remaining_ms", remaining.Milliseconds())
		return Summary{}, Insights{}, 0, false
	}

	timeout := min(msDur(constants.SummarizeCapMs), max(msDur(constants.SummarizeFloorMs), remaining))
	prompt := BuildSummaryPrompt(canon, CondenseText(text, e.cfg.MaxDocChars))

	raw, err := b.Invoke(ctx, prompt, timeout)
	if err != nil {
		e.logger.Warn("intel.stage.summarize.failed", "req_id", reqID, "error", err)
		return Summary{}, Insights{}, 0, false
	}

	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		e.logger.Warn("intel.stage.summarize.parse_failed", "req_id", reqID, "error", err)
		return Summary{}, Insights{}, 0, false
	}
	summary, insights, conf, err := NormalizeParsed(obj, e.logger)
	if err != nil {
		e.logger.Warn("intel.stage.summarize.invalid", "req_id", reqID, "error", err)
		return Summary{}, Insights{}, 0, false
	}
	if conf < 0 {
		conf = constants.DefaultShortConfidence
	}
	e.logger.Info("intel.stage.summarize.ok", "req_id", reqID, "category", summary.Category)
	return summary, insights, conf, true
}

func msDur(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
