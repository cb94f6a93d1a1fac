package series

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"statseries/internal/model"
)

// SeriesOption is one de-duplicated selectable value of a classification dimension.
// Code is the selection key; RawCode is the classification code as published.
type SeriesOption struct {
	Code        string `json:"code"`
	RawCode     string `json:"raw_code"`
	Label       string `json:"label"`
	TypeCode    string `json:"type_code"`
	TypeLabel   string `json:"type_label"`
	SortOrder   *int   `json:"sort_order,omitempty"`
	IsTotalLike bool   `json:"is_total_like"`
}

// SeriesGroup holds the options of one dimension. Options are in display order.
type SeriesGroup struct {
	TypeCode  string         `json:"type_code"`
	TypeLabel string         `json:"type_label"`
	Index     int            `json:"index"`
	Options   []SeriesOption `json:"options"`
}

type catalogConfig struct {
	rules    TotalRules
	language language.Tag
}

// CatalogOption configures BuildGroups and Resolve.
type CatalogOption func(*catalogConfig)

// WithTotalRules replaces the rules used to flag aggregate options. Empty rules are ignored.
func WithTotalRules(rules TotalRules) CatalogOption {
	return func(cfg *catalogConfig) {
		if !rules.IsZero() {
			cfg.rules = rules
		}
	}
}

// WithCollationLanguage sets the language used to order option and group labels.
func WithCollationLanguage(tag language.Tag) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.language = tag
	}
}

func newCatalogConfig(opts []CatalogOption) catalogConfig {
	cfg := catalogConfig{
		rules:    DefaultTotalRules(),
		language: language.Romanian,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// SelectionKey identifies a classification value. A stable id wins; without one the key
// combines code, sort order and normalized label so that a reused code with a different
// meaning stays a different option.
func SelectionKey(c model.Classification) string {
	if c.ID != nil {
		return "id:" + strconv.FormatInt(*c.ID, 10)
	}
	sortOrder := ""
	if c.SortOrder != nil {
		sortOrder = strconv.Itoa(*c.SortOrder)
	}
	return "fallback:" + c.Code + "|" + sortOrder + "|" + NormalizeLabel(classificationLabel(c))
}

func classificationLabel(c model.Classification) string {
	if label := strings.TrimSpace(c.Label); label != "" {
		return label
	}
	return c.Code
}

type groupBuilder struct {
	typeCode  string
	typeLabel string
	options   []SeriesOption
	byKey     map[string]int
}

// BuildGroups scans observations and declared dimensions and returns one group per
// classification dimension that has at least one observed value.
func BuildGroups(observations []model.Observation, dimensions []model.Dimension, opts ...CatalogOption) []SeriesGroup {
	cfg := newCatalogConfig(opts)
	collator := collate.New(cfg.language)

	builders := make(map[string]*groupBuilder)
	order := make([]string, 0)

	for _, observation := range observations {
		for _, c := range observation.Classifications {
			typeCode := strings.TrimSpace(c.TypeCode)
			if typeCode == "" {
				continue
			}
			builder, ok := builders[typeCode]
			if !ok {
				builder = &groupBuilder{typeCode: typeCode, byKey: make(map[string]int)}
				builders[typeCode] = builder
				order = append(order, typeCode)
			}
			if builder.typeLabel == "" {
				builder.typeLabel = strings.TrimSpace(c.TypeLabel)
			}

			key := SelectionKey(c)
			if index, seen := builder.byKey[key]; seen {
				if builder.options[index].SortOrder == nil && c.SortOrder != nil {
					builder.options[index].SortOrder = model.Int(*c.SortOrder)
				}
				continue
			}
			label := classificationLabel(c)
			option := SeriesOption{
				Code:        key,
				RawCode:     c.Code,
				Label:       label,
				TypeCode:    typeCode,
				IsTotalLike: cfg.rules.IsTotalLike(label),
			}
			if c.SortOrder != nil {
				option.SortOrder = model.Int(*c.SortOrder)
			}
			builder.byKey[key] = len(builder.options)
			builder.options = append(builder.options, option)
		}
	}

	declared := declaredDimensions(dimensions)
	maxIndex := -1
	for _, dim := range declared {
		if dim.index > maxIndex {
			maxIndex = dim.index
		}
	}

	groups := make([]SeriesGroup, 0, len(builders))
	used := make(map[string]struct{}, len(declared))
	for _, dim := range declared {
		builder, ok := builders[dim.code]
		if !ok {
			continue
		}
		used[dim.code] = struct{}{}
		if dim.label != "" {
			builder.typeLabel = dim.label
		}
		groups = append(groups, builder.group(dim.index, collator))
	}

	extra := make([]*groupBuilder, 0)
	for _, typeCode := range order {
		if _, ok := used[typeCode]; ok {
			continue
		}
		extra = append(extra, builders[typeCode])
	}
	sort.SliceStable(extra, func(i, j int) bool {
		a, b := extra[i].label(), extra[j].label()
		if cmp := collator.CompareString(a, b); cmp != 0 {
			return cmp < 0
		}
		return extra[i].typeCode < extra[j].typeCode
	})
	for i, builder := range extra {
		groups = append(groups, builder.group(maxIndex+1+i, collator))
	}

	return groups
}

func (b *groupBuilder) label() string {
	if b.typeLabel != "" {
		return b.typeLabel
	}
	return b.typeCode
}

func (b *groupBuilder) group(index int, collator *collate.Collator) SeriesGroup {
	typeLabel := b.label()
	options := make([]SeriesOption, len(b.options))
	copy(options, b.options)
	for i := range options {
		options[i].TypeLabel = typeLabel
	}
	sortOptions(options, collator)
	return SeriesGroup{
		TypeCode:  b.typeCode,
		TypeLabel: typeLabel,
		Index:     index,
		Options:   options,
	}
}

// sortOptions orders totals first, then by sort order (missing last), label and code.
func sortOptions(options []SeriesOption, collator *collate.Collator) {
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.IsTotalLike != b.IsTotalLike {
			return a.IsTotalLike
		}
		switch {
		case a.SortOrder != nil && b.SortOrder == nil:
			return true
		case a.SortOrder == nil && b.SortOrder != nil:
			return false
		case a.SortOrder != nil && b.SortOrder != nil && *a.SortOrder != *b.SortOrder:
			return *a.SortOrder < *b.SortOrder
		}
		if cmp := collator.CompareString(a.Label, b.Label); cmp != 0 {
			return cmp < 0
		}
		return a.Code < b.Code
	})
}

type declaredDimension struct {
	code  string
	label string
	index int
}

// declaredDimensions keeps classification axes in declared index order, first declaration wins.
func declaredDimensions(dimensions []model.Dimension) []declaredDimension {
	declared := make([]declaredDimension, 0, len(dimensions))
	seen := make(map[string]struct{}, len(dimensions))
	for _, dim := range dimensions {
		code := dim.ClassificationCode()
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		declared = append(declared, declaredDimension{
			code:  code,
			label: strings.TrimSpace(dim.ClassificationType.Label),
			index: dim.Index,
		})
	}
	sort.SliceStable(declared, func(i, j int) bool {
		if declared[i].index != declared[j].index {
			return declared[i].index < declared[j].index
		}
		return declared[i].code < declared[j].code
	})
	return declared
}
