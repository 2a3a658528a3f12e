package intel

import (
	"path/filepath"
	"strings"

	"github.com/docuvault/docintel/constants"
)

// CondenseText prepares document text for the short-summarize prompt:
// duplicate lines are dropped, whitespace inside lines is collapsed, and the
// result is truncated to maxChars.
func CondenseText(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = constants.MaxCondensedChars
	}
	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	out := strings.Join(lines, "\n")
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}

// BuildSummaryPrompt composes the short-summarize instruction. The template
// shows the exact JSON shape expected back; enum placeholders are
// pipe-separated, which is why the normalizer treats a pipe in an enum field
// as an unfilled template echo.
func BuildSummaryPrompt(path, condensed string) string {
	parts := []string{
		"You are a document analyst. Read the document text below and return ONLY a JSON object, no prose.",
		"The JSON must have exactly this shape:",
		`{
  "summary": {
    "title": "short document title",
    "description": "one or two sentences",
    "category": "tax|legal|financial|business|personal|other",
    "importance": "critical|high|medium|low",
    "processingTips": ["up to 5 short tips"]
  },
  "insights": {
    "documentType": "specific document type",
    "completeness": 0,
    "keyInsights": ["up to 8 concrete facts from the document"],
    "nextActions": ["up to 6 recommended actions"],
    "warnings": ["up to 6 warnings, may be empty"]
  },
  "confidence": 0
}`,
		"Pick exactly one category and one importance. completeness and confidence are integers 0-100.",
		"Mask any SSN or EIN so only the last four digits appear.",
		"Filename: " + filepath.Base(path),
		"Document text:",
		condensed,
	}
	return strings.Join(parts, "\n\n")
}

// BuildExtractionPrompt asks a back-end for a raw key/value extraction of the
// document, optionally shaped by a template hint.
func BuildExtractionPrompt(path, condensed, template string) string {
	parts := []string{
		"You are a document data extractor. Read the document text below and return ONLY a JSON object of extracted fields, no prose.",
		"Use descriptive snake_case keys and nest related fields. Include every concrete fact: names, roles, dates, identifiers, amounts.",
	}
	if template != "" {
		parts = append(parts, "Prefer this field layout where it applies:\n"+template)
	}
	parts = append(parts,
		"Filename: "+filepath.Base(path),
		"Document text:",
		condensed,
	)
	return strings.Join(parts, "\n\n")
}
