package constants

// List caps applied after normalization. Anything past the cap is dropped.
const (
	MaxProcessingTips = 5
	MaxKeyInsights    = 8
	MaxNextActions    = 6
	MaxWarnings       = 6
)

// Wall-clock budget defaults, all in milliseconds to match the config surface.
const (
	DefaultBudgetMs  = 120_000 // overall pipeline budget
	QuickThresholdMs = 45_000  // at or below this remaining budget, skip structured extraction

	DefaultExtractTimeoutMs = 60_000 // configured ceiling for the structured-extract call
	ExtractFloorMs          = 10_000 // never hand the extractor less than this
	ExtractReserveMs        = 3_000  // held back from the extract stage for later stages
	ExtractSkipBelowMs      = 3_000  // computed extract timeout at or below this skips the stage

	SummarizeCapMs   = 25_000 // ceiling for the short-summarize call
	SummarizeFloorMs = 8_000  // floor for the short-summarize call

	MinStageBudgetMs = 1_000 // a stage is not attempted with less remaining than this
)

// Confidence is an integer in [0, MaxConfidence].
const (
	MaxConfidence          = 95
	ExtractFirstConfidence = 80 // deterministic build over a real extraction
	DefaultShortConfidence = 70 // short-summarize result with no model-reported confidence
)

// MaxCondensedChars bounds the document text sent on the short-summarize path.
const MaxCondensedChars = 6_000

// CacheRetentionDays is how long a cached result stays valid for an
// unchanged file before lazy eviction.
const CacheRetentionDays = 180

// Pipeline modes recorded in result metadata. The short-summarize mode is
// provider-qualified, e.g. "codex-short".
const (
	ModeExtractFirst = "extract-first"
	ModeHeuristic    = "heuristic"
	ShortModeSuffix  = "-short"
)

// ProviderNone is recorded when no back-end produced the result.
const ProviderNone = "none"
