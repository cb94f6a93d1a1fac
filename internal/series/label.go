package series

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel strips diacritics, lowercases, collapses whitespace runs and trims.
// It is idempotent and never fails; text the transformer cannot process is used as is.
func NormalizeLabel(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// TotalRules decides which labels name an aggregate bucket. Exact entries must match the
// whole normalized label, Contains entries may appear anywhere in it.
type TotalRules struct {
	Exact    []string `yaml:"exact" json:"exact"`
	Contains []string `yaml:"contains" json:"contains"`
}

// DefaultTotalRules matches "Total", "Total general", "Ambele sexe" and the "din total"
// sub-aggregate family. The last one errs toward false positives on purpose.
func DefaultTotalRules() TotalRules {
	return TotalRules{
		Exact:    []string{"total"},
		Contains: []string{"total general", "ambele sexe", "din total"},
	}
}

// IsZero reports whether no rule is configured.
func (r TotalRules) IsZero() bool {
	return len(r.Exact) == 0 && len(r.Contains) == 0
}

// IsTotalLike reports whether label names an aggregate under these rules.
func (r TotalRules) IsTotalLike(label string) bool {
	normalized := NormalizeLabel(label)
	if normalized == "" {
		return false
	}
	for _, exact := range r.Exact {
		if rule := NormalizeLabel(exact); rule != "" && normalized == rule {
			return true
		}
	}
	for _, fragment := range r.Contains {
		if rule := NormalizeLabel(fragment); rule != "" && strings.Contains(normalized, rule) {
			return true
		}
	}
	return false
}

// IsTotalLikeLabel applies DefaultTotalRules.
func IsTotalLikeLabel(label string) bool {
	return DefaultTotalRules().IsTotalLike(label)
}
