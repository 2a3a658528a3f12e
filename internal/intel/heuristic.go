package intel

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/document"
)

// Priority-ordered keyword tables. First table with a hit decides the
// category; earlier keywords within a table decide the title.
var (
	legalKeywords     = []string{"estate", "trust", "will", "executor", "guardianship"}
	taxKeywords       = []string{"irs", "1040", "schedule", "k-1", "form "}
	financialKeywords = []string{"invoice", "statement", "account", "balance"}
)

// Static per-category guidance attached by the heuristic and the
// extract-first builder.
var categoryTips = map[constants.Category][]string{
	constants.CategoryLegal: {
		"Confirm named roles (executor, trustee, guardian) are current",
		"Check for required witness and notary signatures",
		"Store the original in a safe location",
	},
	constants.CategoryTax: {
		"Verify SSN/EIN and filing year",
		"Cross-check reported totals against source records",
		"Keep for at least seven years",
	},
	constants.CategoryFinancial: {
		"Reconcile against your own records",
		"Review fees and interest charges",
		"Watch for unrecognized transactions",
	},
	constants.CategoryOther: {
		"Review the document and file it under the right category",
	},
}

var categoryActions = map[constants.Category][]string{
	constants.CategoryLegal: {
		"Review the document with an estate attorney",
		"Confirm beneficiaries and appointed roles are up to date",
	},
	constants.CategoryTax: {
		"Verify SSN/EIN and filing year",
		"Confirm the filing deadline that applies",
	},
	constants.CategoryFinancial: {
		"Reconcile the statement against your ledger",
		"Flag any unfamiliar charges",
	},
	constants.CategoryOther: {
		"Identify the document type and next steps",
	},
}

// AnalyzeHeuristic classifies a document with priority-ordered keyword checks
// over filename plus text. It never fails and makes no external calls; it is
// the guaranteed terminal stage of the pipeline.
func AnalyzeHeuristic(path, text string, fields []document.FormField) (Summary, Insights) {
	haystack := strings.ToLower(filepath.Base(path) + "\n" + text)

	var category constants.Category
	var title, docType string
	var matched []string

	switch {
	case containsAny(haystack, legalKeywords, &matched):
		category = constants.CategoryLegal
		docType = "legal document"
		switch {
		case strings.Contains(haystack, "will"):
			title = "Will"
		case strings.Contains(haystack, "trust"):
			title = "Trust"
		default:
			title = "Estate Plan"
		}
	case containsAny(haystack, taxKeywords, &matched):
		category = constants.CategoryTax
		docType = "tax form"
		title = "Tax Form"
	case containsAny(haystack, financialKeywords, &matched):
		category = constants.CategoryFinancial
		docType = "financial statement"
		title = "Financial Statement"
	default:
		category = constants.CategoryOther
		docType = "document"
		title = "Document"
	}

	importance := constants.ImportanceMedium
	if category == constants.CategoryLegal || category == constants.CategoryTax {
		importance = constants.ImportanceHigh
	}

	keyInsights := []string{fmt.Sprintf("Classified as %s from keyword analysis", docType)}
	if len(matched) > 0 {
		keyInsights = append(keyInsights, "Matched keywords: "+strings.Join(matched, ", "))
	}

	completeness := 0
	if len(fields) > 0 {
		completeness = FieldCompleteness(fields)
	}

	summary := Summary{
		Title:          title,
		Description:    fmt.Sprintf("Keyword-based classification of %s.", filepath.Base(path)),
		Category:       category,
		Importance:     importance,
		ProcessingTips: tipsFor(category),
	}
	insights := Insights{
		DocumentType: docType,
		Completeness: completeness,
		KeyInsights:  keyInsights,
		NextActions:  actionsFor(category),
		Warnings:     []string{"Generated without AI analysis; details may be incomplete"},
	}
	return summary, insights
}

func containsAny(haystack string, keywords []string, matched *[]string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			*matched = append(*matched, strings.TrimSpace(kw))
		}
	}
	return len(*matched) > 0
}

func tipsFor(category constants.Category) []string {
	if tips, ok := categoryTips[category]; ok {
		return capList(tips, constants.MaxProcessingTips)
	}
	return capList(categoryTips[constants.CategoryOther], constants.MaxProcessingTips)
}

func actionsFor(category constants.Category) []string {
	if actions, ok := categoryActions[category]; ok {
		return capList(actions, constants.MaxNextActions)
	}
	return capList(categoryActions[constants.CategoryOther], constants.MaxNextActions)
}

func capList(items []string, maxItems int) []string {
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}
