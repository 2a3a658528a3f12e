package constants

import (
	"strings"
)

type Category string

const (
	CategoryTax       Category = "tax"
	CategoryLegal     Category = "legal"
	CategoryFinancial Category = "financial"
	CategoryBusiness  Category = "business"
	CategoryPersonal  Category = "personal"
	CategoryOther     Category = "other"
)

var allCategories = []Category{
	CategoryTax,
	CategoryLegal,
	CategoryFinancial,
	CategoryBusiness,
	CategoryPersonal,
	CategoryOther,
}

func CategoriesAsStrings() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// MatchCategory maps a raw model-provided category onto the closed set.
// Matching is case-insensitive containment, so "Legal Document" resolves to
// legal. A value containing a pipe means the model echoed the enum
// placeholder instead of choosing one; that and anything unmatched fall back
// to other.
func MatchCategory(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" || strings.Contains(normalized, "|") {
		return CategoryOther, false
	}
	for _, cat := range allCategories {
		if strings.Contains(normalized, string(cat)) {
			return cat, true
		}
	}
	return CategoryOther, false
}

type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

var allImportances = []Importance{
	ImportanceCritical,
	ImportanceHigh,
	ImportanceMedium,
	ImportanceLow,
}

func ImportancesAsStrings() []string {
	result := make([]string, len(allImportances))
	for i, imp := range allImportances {
		result[i] = string(imp)
	}
	return result
}

// MatchImportance mirrors MatchCategory; the fallback is medium.
func MatchImportance(input string) (Importance, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" || strings.Contains(normalized, "|") {
		return ImportanceMedium, false
	}
	for _, imp := range allImportances {
		if strings.Contains(normalized, string(imp)) {
			return imp, true
		}
	}
	return ImportanceMedium, false
}
