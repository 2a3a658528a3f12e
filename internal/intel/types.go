package intel

import (
	"time"

	"github.com/docuvault/docintel/constants"
)

// Summary is the headline view of a document.
type Summary struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Category       constants.Category   `json:"category"`
	Importance     constants.Importance `json:"importance"`
	ProcessingTips []string             `json:"processingTips"` // at most 5
}

// Insights carries the actionable detail.
type Insights struct {
	DocumentType string   `json:"documentType"`
	Completeness int      `json:"completeness"` // 0..100
	KeyInsights  []string `json:"keyInsights"`  // at most 8
	NextActions  []string `json:"nextActions"`  // at most 6
	Warnings     []string `json:"warnings"`     // at most 6
}

// Metadata records how the result was produced.
type Metadata struct {
	AnalyzedAt       time.Time `json:"analyzedAt"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Confidence       int       `json:"confidence"` // 0..95
	Provider         string    `json:"provider"`   // back-end name, or "none"
	Mode             string    `json:"mode"`       // extract-first | <backend>-short | heuristic
}

// IntelligenceResult is immutable once produced and freely shared read-only
// between the cache and callers.
type IntelligenceResult struct {
	Summary  Summary  `json:"summary"`
	Insights Insights `json:"insights"`
	Metadata Metadata `json:"metadata"`
}
