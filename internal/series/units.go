package series

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"

	"statseries/internal/model"
)

const (
	// NoUnitKey groups observations that carry no unit metadata at all.
	NoUnitKey   = "__none__"
	NoUnitLabel = "Fără unitate de măsură"
)

// UnitOption is one distinct unit found in a dataset, with the number of observations using it.
type UnitOption struct {
	Key             string `json:"key"`
	Label           string `json:"label"`
	Count           int    `json:"count"`
	HasExplicitUnit bool   `json:"has_explicit_unit"`
}

// UnitKey picks code, then symbol, then name; NoUnitKey when none is present.
func UnitKey(unit *model.Unit) string {
	if value, ok := firstPresent(unit, func(u *model.Unit) []*string {
		return []*string{u.Code, u.Symbol, u.Name}
	}); ok {
		return value
	}
	return NoUnitKey
}

// UnitLabel picks symbol, then name, then code; NoUnitLabel when none is present.
func UnitLabel(unit *model.Unit) string {
	if value, ok := firstPresent(unit, func(u *model.Unit) []*string {
		return []*string{u.Symbol, u.Name, u.Code}
	}); ok {
		return value
	}
	return NoUnitLabel
}

func firstPresent(unit *model.Unit, fields func(*model.Unit) []*string) (string, bool) {
	if unit == nil {
		return "", false
	}
	for _, field := range fields(unit) {
		if model.Present(field) {
			return strings.TrimSpace(*field), true
		}
	}
	return "", false
}

// BuildUnitOptions counts the distinct units of the observations. Explicit units come
// before the NoUnitKey bucket, then higher counts first, then label and key. Labels are
// compared with the same collation as catalog labels.
func BuildUnitOptions(observations []model.Observation, opts ...CatalogOption) []UnitOption {
	collator := collate.New(newCatalogConfig(opts).language)
	byKey := make(map[string]int)
	options := make([]UnitOption, 0)
	for _, observation := range observations {
		key := UnitKey(observation.Unit)
		if index, ok := byKey[key]; ok {
			options[index].Count++
			continue
		}
		byKey[key] = len(options)
		options = append(options, UnitOption{
			Key:             key,
			Label:           UnitLabel(observation.Unit),
			Count:           1,
			HasExplicitUnit: key != NoUnitKey,
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.HasExplicitUnit != b.HasExplicitUnit {
			return a.HasExplicitUnit
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if cmp := collator.CompareString(a.Label, b.Label); cmp != 0 {
			return cmp < 0
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Key < b.Key
	})
	return options
}

// DefaultUnit returns the first option's key.
func DefaultUnit(options []UnitOption) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	return options[0].Key, true
}

// MergeUnit keeps previous while it is still offered, otherwise falls back to DefaultUnit.
func MergeUnit(options []UnitOption, previous string) (string, bool) {
	if previous != "" {
		for _, option := range options {
			if option.Key == previous {
				return previous, true
			}
		}
	}
	return DefaultUnit(options)
}
