package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/document"
)

func TestAnalyzeHeuristicLegalTrust(t *testing.T) {
	summary, insights := AnalyzeHeuristic(
		"/docs/smith-trust.pdf",
		"Revocable living trust agreement naming a successor trustee and executor.",
		nil,
	)
	assert.Equal(t, constants.CategoryLegal, summary.Category)
	assert.Equal(t, constants.ImportanceHigh, summary.Importance)
	assert.Equal(t, "Trust", summary.Title)
	assert.Equal(t, "legal document", insights.DocumentType)
	require.NotEmpty(t, insights.KeyInsights)
	require.NotEmpty(t, insights.NextActions)
	assert.Equal(t, 0, insights.Completeness)
}

func TestAnalyzeHeuristicWillBeatsTrust(t *testing.T) {
	summary, _ := AnalyzeHeuristic(
		"/docs/estate.pdf",
		"Last will and testament, with a pour-over into the family trust.",
		nil,
	)
	assert.Equal(t, "Will", summary.Title)
}

func TestAnalyzeHeuristicTaxFromFilename(t *testing.T) {
	summary, insights := AnalyzeHeuristic("/docs/form-1040-2023.pdf", "wages and salaries", nil)
	assert.Equal(t, constants.CategoryTax, summary.Category)
	assert.Equal(t, "Tax Form", summary.Title)
	assert.Equal(t, constants.ImportanceHigh, summary.Importance)
	assert.NotEmpty(t, insights.NextActions)
}

func TestAnalyzeHeuristicFinancial(t *testing.T) {
	summary, _ := AnalyzeHeuristic(
		"/docs/january.pdf",
		"Monthly account statement. Opening balance 1,000.00.",
		nil,
	)
	assert.Equal(t, constants.CategoryFinancial, summary.Category)
	assert.Equal(t, "Financial Statement", summary.Title)
	assert.Equal(t, constants.ImportanceMedium, summary.Importance)
}

func TestAnalyzeHeuristicFallbackOther(t *testing.T) {
	summary, insights := AnalyzeHeuristic("/docs/notes.txt", "grocery list: milk, eggs", nil)
	assert.Equal(t, constants.CategoryOther, summary.Category)
	assert.Equal(t, "Document", summary.Title)
	assert.Equal(t, constants.ImportanceMedium, summary.Importance)
	assert.NotEmpty(t, insights.KeyInsights)
}

func TestAnalyzeHeuristicUsesFieldCompleteness(t *testing.T) {
	fields := []document.FormField{
		{Name: "a", Type: "text", Value: "filled"},
		{Name: "b", Type: "text", Value: ""},
	}
	_, insights := AnalyzeHeuristic("/docs/trust.pdf", "trust agreement", fields)
	assert.Equal(t, 50, insights.Completeness)
}

func TestAnalyzeHeuristicListCaps(t *testing.T) {
	summary, insights := AnalyzeHeuristic("/docs/trust.pdf", "trust", nil)
	assert.LessOrEqual(t, len(summary.ProcessingTips), constants.MaxProcessingTips)
	assert.LessOrEqual(t, len(insights.NextActions), constants.MaxNextActions)
	assert.LessOrEqual(t, len(insights.Warnings), constants.MaxWarnings)
}
