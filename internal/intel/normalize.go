package intel

import (
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/common"
	"github.com/docuvault/docintel/internal/llm"
)

// rePlaceholderToken matches unfilled template entries the model sometimes
// echoes back verbatim, e.g. "tip1" or "insight2".
var rePlaceholderToken = regexp.MustCompile(`(?i)^(tip|insight|action|warning|item|fact)\d*$`)

// NormalizeParsed coerces a parsed model object into the canonical
// Summary/Insights shape, clamping and defaulting invalid values, then
// validates the result against the canonical JSON-Schema. The returned
// confidence is the model-reported value clamped into [0, 95], or -1 when the
// model reported none.
func NormalizeParsed(obj map[string]any, logger *slog.Logger) (Summary, Insights, int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Tolerate both the nested canonical shape and a flat object.
	sm := asMap(obj["summary"])
	if sm == nil {
		sm = obj
	}
	im := asMap(obj["insights"])
	if im == nil {
		im = obj
	}

	var dropped []string
	clean := func(field string, v any) string {
		s, ok := cleanString(v)
		if !ok && v != nil {
			dropped = append(dropped, field)
		}
		return s
	}

	title := clean("title", sm["title"])
	if title == "" {
		title = "Document"
	}
	category, catOK := constants.MatchCategory(stringOf(sm["category"]))
	importance, impOK := constants.MatchImportance(stringOf(sm["importance"]))
	if !catOK {
		dropped = append(dropped, "category")
	}
	if !impOK {
		dropped = append(dropped, "importance")
	}

	summary := Summary{
		Title:          title,
		Description:    clean("description", sm["description"]),
		Category:       category,
		Importance:     importance,
		ProcessingTips: cleanList(sm["processingTips"], constants.MaxProcessingTips),
	}

	docType := clean("documentType", im["documentType"])
	if docType == "" {
		docType = "document"
	}
	insights := Insights{
		DocumentType: docType,
		Completeness: coerceInt(im["completeness"], 0, 100),
		KeyInsights:  cleanList(im["keyInsights"], constants.MaxKeyInsights),
		NextActions:  cleanList(im["nextActions"], constants.MaxNextActions),
		Warnings:     cleanList(im["warnings"], constants.MaxWarnings),
	}

	if len(dropped) > 0 {
		logger.Warn("intel.normalize.dropped", "fields", dropped)
	}

	confidence := -1
	for _, v := range []any{im["confidence"], obj["confidence"]} {
		if v != nil {
			confidence = coerceInt(v, 0, constants.MaxConfidence)
			break
		}
	}

	schema, err := intelligenceSchema()
	if err != nil {
		return Summary{}, Insights{}, -1, common.WrapError(err, "compile intelligence schema")
	}
	canonical, err := json.Marshal(map[string]any{"summary": summary, "insights": insights})
	if err != nil {
		return Summary{}, Insights{}, -1, common.WrapError(err, "encode normalized result")
	}
	if err := llm.ValidateAgainstSchema(schema, canonical); err != nil {
		return Summary{}, Insights{}, -1, common.WrapError(err, common.ErrParseFailure.Error())
	}
	return summary, insights, confidence, nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

// cleanString trims a raw value and rejects placeholder artifacts: empty
// strings, "...", bare punctuation, and unfilled template tokens.
func cleanString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "..." {
		return "", false
	}
	if rePlaceholderToken.MatchString(s) {
		return "", false
	}
	hasContent := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
	if !hasContent {
		return "", false
	}
	return s, true
}

// cleanList filters placeholder entries out of a raw array and applies the
// cap. Absent or malformed arrays become empty lists, never nil.
func cleanList(v any, maxItems int) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := cleanString(item); ok {
			out = append(out, s)
			if len(out) == maxItems {
				break
			}
		}
	}
	return out
}

// coerceInt accepts numbers and numeric strings; anything unparseable becomes
// lo. The result is clamped to [lo, hi].
func coerceInt(v any, lo, hi int) int {
	var n int
	switch t := v.(type) {
	case float64:
		n = int(math.Round(t))
	case int:
		n = t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			n = int(math.Round(f))
		} else {
			n = lo
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			n = int(math.Round(f))
		} else {
			n = lo
		}
	default:
		n = lo
	}
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return n
}
