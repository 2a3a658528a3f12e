package intel

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/docuvault/docintel/constants"
	"github.com/docuvault/docintel/internal/document"
)

// flatField is one (dotted-path, scalar) pair from a flattened extraction
// tree. Paths are lowercased for lookup.
type flatField struct {
	path  string
	value string
}

// BuildFromExtraction derives a category-aware result from a structured
// key/value extraction deterministically, with no further generative call.
// The insights are guaranteed non-empty even for an unrecognized tree.
func BuildFromExtraction(tree map[string]any, path string, fields []document.FormField) (Summary, Insights) {
	flat := flattenTree("", tree)
	category := detectTreeCategory(tree)

	var keyInsights []string
	var actions []string
	title := ""

	switch category {
	case constants.CategoryLegal:
		keyInsights, actions, title = legalInsights(flat)
	case constants.CategoryTax:
		keyInsights, actions, title = taxInsights(flat)
	case constants.CategoryFinancial:
		keyInsights, actions, title = financialInsights(flat)
	}
	if len(keyInsights) == 0 {
		keyInsights = genericInsights(flat)
	}
	if len(actions) == 0 {
		actions = actionsFor(category)
	}
	if title == "" {
		title = titleFor(category)
	}

	importance := constants.ImportanceMedium
	if category == constants.CategoryLegal || category == constants.CategoryTax {
		importance = constants.ImportanceHigh
	}

	completeness := completenessFromTree(flat)
	if len(fields) > 0 {
		completeness = FieldCompleteness(fields)
	}

	summary := Summary{
		Title:          title,
		Description:    fmt.Sprintf("Derived from a structured extraction with %d fields.", len(flat)),
		Category:       category,
		Importance:     importance,
		ProcessingTips: tipsFor(category),
	}
	insights := Insights{
		DocumentType: titleFor(category),
		Completeness: completeness,
		KeyInsights:  dedupeCap(keyInsights, constants.MaxKeyInsights),
		NextActions:  dedupeCap(actions, constants.MaxNextActions),
		Warnings:     []string{},
	}
	return summary, insights
}

// flattenTree turns a nested key/value tree into (dotted-path, scalar) pairs
// by recursive descent, concatenating parent keys.
func flattenTree(prefix string, v any) []flatField {
	var out []flatField
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			out = append(out, flattenTree(p, t[k])...)
		}
	case []any:
		for i, item := range t {
			out = append(out, flattenTree(fmt.Sprintf("%s.%d", prefix, i), item)...)
		}
	case nil:
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, flatField{path: strings.ToLower(prefix), value: s})
		}
	case float64:
		s := strings.TrimSuffix(fmt.Sprintf("%.2f", t), ".00")
		out = append(out, flatField{path: strings.ToLower(prefix), value: s})
	case bool:
		out = append(out, flatField{path: strings.ToLower(prefix), value: fmt.Sprintf("%t", t)})
	default:
		out = append(out, flatField{path: strings.ToLower(prefix), value: fmt.Sprintf("%v", t)})
	}
	return out
}

// detectTreeCategory runs substring checks over the lowercased serialized
// tree, legal before tax before financial.
func detectTreeCategory(tree map[string]any) constants.Category {
	raw, err := json.Marshal(tree)
	if err != nil {
		return constants.CategoryOther
	}
	serialized := strings.ToLower(string(raw))
	switch {
	case containsAnyOf(serialized, "trust", "executor", "guardianship", "will"):
		return constants.CategoryLegal
	case containsAnyOf(serialized, "irs", "schedule", "1040", "k-1"):
		return constants.CategoryTax
	case containsAnyOf(serialized, "invoice", "statement", "account"):
		return constants.CategoryFinancial
	default:
		return constants.CategoryOther
	}
}

func containsAnyOf(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// lookup returns the first non-empty value whose path contains any candidate
// substring, tried in order.
func lookup(flat []flatField, candidates ...string) string {
	for _, c := range candidates {
		for _, f := range flat {
			if strings.Contains(f.path, c) && f.value != "" {
				return f.value
			}
		}
	}
	return ""
}

// lookupExcluding is lookup for a single candidate, skipping paths that also
// contain any exclude (so "executor" does not match "alternate_executor").
func lookupExcluding(flat []flatField, candidate string, excludes ...string) string {
	for _, f := range flat {
		if !strings.Contains(f.path, candidate) || f.value == "" {
			continue
		}
		excluded := false
		for _, ex := range excludes {
			if strings.Contains(f.path, ex) {
				excluded = true
				break
			}
		}
		if !excluded {
			return f.value
		}
	}
	return ""
}

func legalInsights(flat []flatField) (insights, actions []string, title string) {
	if v := lookup(flat, "trust_name", "trustname", "trust.name", "name_of_trust"); v != "" {
		insights = append(insights, "Trust: "+v)
		title = v
	}
	if v := lookupExcluding(flat, "executor", "alternate", "successor"); v != "" {
		line := "Executor: " + v
		if alt := lookup(flat, "alternate_executor", "executor_alternate", "successor_executor"); alt != "" {
			line += " (alternate: " + alt + ")"
		}
		insights = append(insights, line)
	}
	if v := lookup(flat, "successor_trustee", "trustee_successor"); v != "" {
		insights = append(insights, "Successor trustee: "+v)
	}
	guardian := lookupExcluding(flat, "guardian", "alternate")
	if guardian != "" {
		insights = append(insights, "Guardian: "+guardian)
	}
	if v := lookup(flat, "prepared", "date_signed", "execution_date"); v != "" {
		insights = append(insights, "Prepared: "+v)
	}
	if v := lookup(flat, "charitable", "donation"); v != "" {
		insights = append(insights, "Charitable donations: "+v)
	}
	if v := lookup(flat, "distribution"); v != "" {
		insights = append(insights, "Distributions: "+v)
	}

	actions = append(actions, actionsFor(constants.CategoryLegal)...)
	if guardian != "" && lookup(flat, "alternate_guardian", "guardian_alternate") == "" {
		actions = append(actions, "Name an alternate guardian")
	}
	return insights, actions, title
}

func taxInsights(flat []flatField) (insights, actions []string, title string) {
	if v := lookup(flat, "tax_year", "year"); v != "" {
		insights = append(insights, "Tax year: "+v)
	}
	if v := lookup(flat, "ein", "employer_id"); v != "" {
		insights = append(insights, "EIN: "+MaskEIN(v))
	}
	if v := lookup(flat, "ssn", "social_security"); v != "" {
		insights = append(insights, "SSN: "+MaskSSN(v))
	}
	if v := lookup(flat, "income", "wages", "gross"); v != "" {
		insights = append(insights, "Income: "+v)
	}
	if v := lookup(flat, "deduction"); v != "" {
		insights = append(insights, "Deductions: "+v)
	}
	if v := lookup(flat, "refund"); v != "" {
		insights = append(insights, "Refund: "+v)
	} else if v := lookup(flat, "amount_owed", "owed", "balance_due"); v != "" {
		insights = append(insights, "Amount owed: "+v)
	}
	return insights, actionsFor(constants.CategoryTax), "Tax Form"
}

func financialInsights(flat []flatField) (insights, actions []string, title string) {
	if v := lookup(flat, "account_number", "account_no", "account"); v != "" {
		insights = append(insights, "Account: "+MaskAccount(v))
	}
	if v := lookup(flat, "statement_period", "period"); v != "" {
		insights = append(insights, "Statement period: "+v)
	}
	if v := lookup(flat, "closing_balance", "ending_balance", "balance"); v != "" {
		insights = append(insights, "Balance: "+v)
	}
	if v := lookup(flat, "transaction_count", "transactions"); v != "" {
		insights = append(insights, "Transactions: "+v)
	}
	if v := lookup(flat, "fee"); v != "" {
		insights = append(insights, "Fees: "+v)
	}
	if v := lookup(flat, "interest"); v != "" {
		insights = append(insights, "Interest: "+v)
	}
	return insights, actionsFor(constants.CategoryFinancial), "Financial Statement"
}

// genericInsights emits the first few short flattened values when no
// category-specific signal was found, so the result is never empty.
func genericInsights(flat []flatField) []string {
	out := []string{}
	for _, f := range flat {
		if len(f.value) > 60 {
			continue
		}
		out = append(out, f.path+": "+f.value)
		if len(out) == 4 {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "Structured extraction returned no usable fields")
	}
	return out
}

func titleFor(category constants.Category) string {
	switch category {
	case constants.CategoryLegal:
		return "Legal Document"
	case constants.CategoryTax:
		return "Tax Form"
	case constants.CategoryFinancial:
		return "Financial Statement"
	default:
		return "Document"
	}
}

// completenessFromTree is a rough richness score used only when no form
// fields exist to compute the exact value.
func completenessFromTree(flat []flatField) int {
	score := len(flat) * 5
	if score > 100 {
		score = 100
	}
	return score
}

func dedupeCap(items []string, maxItems int) []string {
	seen := make(map[string]struct{}, len(items))
	out := []string{}
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == maxItems {
			break
		}
	}
	return out
}

// MaskEIN replaces all but the trailing four digits, keeping punctuation.
func MaskEIN(s string) string {
	return maskDigits(s, 4)
}

// MaskSSN shows only the last four digits.
func MaskSSN(s string) string {
	digits := digitsOf(s)
	if len(digits) < 4 {
		return "***-**-****"
	}
	return "***-**-" + digits[len(digits)-4:]
}

// MaskAccount keeps the trailing four digits of an account number.
func MaskAccount(s string) string {
	digits := digitsOf(s)
	if len(digits) < 4 {
		return "****"
	}
	return "****" + digits[len(digits)-4:]
}

func maskDigits(s string, keep int) string {
	total := len(digitsOf(s))
	seen := 0
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= total-keep {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FieldCompleteness computes the exact fill ratio over form fields. A field
// counts as filled when: text has non-blank content, a checkbox is literally
// true, radio/dropdown carry a non-blank selection, and anything else has a
// non-blank string representation.
func FieldCompleteness(fields []document.FormField) int {
	if len(fields) == 0 {
		return 0
	}
	filled := 0
	for _, f := range fields {
		if fieldFilled(f) {
			filled++
		}
	}
	return int(math.Round(100 * float64(filled) / float64(len(fields))))
}

func fieldFilled(f document.FormField) bool {
	switch strings.ToLower(f.Type) {
	case "checkbox":
		if b, ok := f.Value.(bool); ok {
			return b
		}
		return f.Value == "true"
	case "text", "radio", "dropdown":
		s, _ := f.Value.(string)
		return strings.TrimSpace(s) != ""
	default:
		if f.Value == nil {
			return false
		}
		return strings.TrimSpace(fmt.Sprintf("%v", f.Value)) != ""
	}
}
