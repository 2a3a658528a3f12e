package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docintel/constants"
)

func validParsed() map[string]any {
	return map[string]any{
		"summary": map[string]any{
			"title":          "Revocable Living Trust",
			"description":    "Trust agreement for the Smith family.",
			"category":       "legal",
			"importance":     "high",
			"processingTips": []any{"Confirm named roles"},
		},
		"insights": map[string]any{
			"documentType": "trust agreement",
			"completeness": float64(80),
			"keyInsights":  []any{"Trust: Smith Family Trust"},
			"nextActions":  []any{"Review with an attorney"},
			"warnings":     []any{},
		},
	}
}

func TestNormalizeParsedHappyPath(t *testing.T) {
	summary, insights, conf, err := NormalizeParsed(validParsed(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Revocable Living Trust", summary.Title)
	assert.Equal(t, constants.CategoryLegal, summary.Category)
	assert.Equal(t, constants.ImportanceHigh, summary.Importance)
	assert.Equal(t, 80, insights.Completeness)
	assert.Equal(t, -1, conf, "no model confidence reported")
}

func TestNormalizeParsedPipeEnumsFallBack(t *testing.T) {
	obj := validParsed()
	obj["summary"].(map[string]any)["category"] = "tax|legal|financial|business|personal|other"
	obj["summary"].(map[string]any)["importance"] = "critical|high|medium|low"

	summary, _, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryOther, summary.Category)
	assert.Equal(t, constants.ImportanceMedium, summary.Importance)
}

func TestNormalizeParsedContainmentMatch(t *testing.T) {
	obj := validParsed()
	obj["summary"].(map[string]any)["category"] = "Legal Document"
	obj["summary"].(map[string]any)["importance"] = "HIGH priority"

	summary, _, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryLegal, summary.Category)
	assert.Equal(t, constants.ImportanceHigh, summary.Importance)
}

func TestNormalizeParsedCompletenessCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want int
	}{
		{"number", float64(42), 42},
		{"numeric string", "73", 73},
		{"float string", "61.6", 62},
		{"garbage", "almost done", 0},
		{"nil", nil, 0},
		{"negative clamped", float64(-5), 0},
		{"overflow clamped", float64(250), 100},
		{"bool", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj := validParsed()
			obj["insights"].(map[string]any)["completeness"] = tc.raw
			_, insights, _, err := NormalizeParsed(obj, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, insights.Completeness)
		})
	}
}

func TestNormalizeParsedDropsPlaceholders(t *testing.T) {
	obj := validParsed()
	obj["summary"].(map[string]any)["processingTips"] = []any{
		"tip1", "...", "   ", "—", "Keep the original safe", "tip2",
	}
	obj["insights"].(map[string]any)["keyInsights"] = []any{"insight1", "Real fact"}

	summary, insights, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep the original safe"}, summary.ProcessingTips)
	assert.Equal(t, []string{"Real fact"}, insights.KeyInsights)
}

func TestNormalizeParsedCapsLists(t *testing.T) {
	tips := make([]any, 10)
	for i := range tips {
		tips[i] = "keep a copy in location " + string(rune('a'+i))
	}
	obj := validParsed()
	obj["summary"].(map[string]any)["processingTips"] = tips

	summary, _, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Len(t, summary.ProcessingTips, constants.MaxProcessingTips)
}

func TestNormalizeParsedAbsentArraysBecomeEmpty(t *testing.T) {
	obj := map[string]any{
		"summary": map[string]any{
			"title":      "Invoice",
			"category":   "financial",
			"importance": "medium",
		},
		"insights": map[string]any{
			"documentType": "invoice",
			"completeness": "90",
		},
	}
	summary, insights, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.NotNil(t, summary.ProcessingTips)
	assert.Empty(t, summary.ProcessingTips)
	assert.NotNil(t, insights.KeyInsights)
	assert.Empty(t, insights.Warnings)
	assert.Equal(t, 90, insights.Completeness)
}

func TestNormalizeParsedFlatObjectTolerated(t *testing.T) {
	obj := map[string]any{
		"title":        "Tax Return 2023",
		"category":     "tax",
		"importance":   "high",
		"documentType": "1040",
		"completeness": float64(55),
		"confidence":   float64(88),
	}
	summary, insights, conf, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.CategoryTax, summary.Category)
	assert.Equal(t, "1040", insights.DocumentType)
	assert.Equal(t, 88, conf)
}

func TestNormalizeParsedConfidenceClamped(t *testing.T) {
	obj := validParsed()
	obj["confidence"] = float64(120)
	_, _, conf, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.MaxConfidence, conf)
}

func TestNormalizeParsedDefaultsTitle(t *testing.T) {
	obj := validParsed()
	obj["summary"].(map[string]any)["title"] = "..."
	summary, _, _, err := NormalizeParsed(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, "Document", summary.Title)
}
