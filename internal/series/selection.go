package series

// Selection maps a dimension type code to the chosen option codes.
// A present but empty list means the caller dropped the constraint on that dimension.
type Selection map[string][]string

// Clone returns a deep copy; nil stays nil.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	for typeCode, codes := range s {
		copied := make([]string, len(codes))
		copy(copied, codes)
		out[typeCode] = copied
	}
	return out
}

// DefaultSelection picks, per group, its total-like option or else its first option.
func DefaultSelection(groups []SeriesGroup) Selection {
	selection := make(Selection, len(groups))
	for _, group := range groups {
		if option, ok := defaultOption(group); ok {
			selection[group.TypeCode] = []string{option.Code}
		}
	}
	return selection
}

func defaultOption(group SeriesGroup) (SeriesOption, bool) {
	if len(group.Options) == 0 {
		return SeriesOption{}, false
	}
	for _, option := range group.Options {
		if option.IsTotalLike {
			return option, true
		}
	}
	return group.Options[0], true
}

// MergeSelection reconciles a previous, possibly stale selection with freshly built groups.
// Every current group ends up named. Codes may match by selection key or by raw code, a
// total is never kept next to one of its components, and a group whose previous codes all
// vanished falls back to its default option.
func MergeSelection(groups []SeriesGroup, previous Selection) Selection {
	merged := make(Selection, len(groups))
	for _, group := range groups {
		codes, named := previous[group.TypeCode]
		if named && len(codes) == 0 {
			merged[group.TypeCode] = []string{}
			continue
		}

		resolved := resolveCodes(group, codes)
		if len(resolved) > 0 {
			merged[group.TypeCode] = dropMixedTotals(resolved)
			continue
		}
		if option, ok := defaultOption(group); ok {
			merged[group.TypeCode] = []string{option.Code}
		}
	}
	return merged
}

func resolveCodes(group SeriesGroup, codes []string) []SeriesOption {
	if len(codes) == 0 {
		return nil
	}
	byKey := make(map[string]SeriesOption, len(group.Options))
	byRaw := make(map[string]SeriesOption, len(group.Options))
	for _, option := range group.Options {
		byKey[option.Code] = option
		// first in display order wins when a raw code is shared
		if _, ok := byRaw[option.RawCode]; !ok {
			byRaw[option.RawCode] = option
		}
	}

	resolved := make([]SeriesOption, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		option, ok := byKey[code]
		if !ok {
			option, ok = byRaw[code]
		}
		if !ok {
			continue
		}
		if _, dup := seen[option.Code]; dup {
			continue
		}
		seen[option.Code] = struct{}{}
		resolved = append(resolved, option)
	}
	return resolved
}

// dropMixedTotals removes totals that sit next to components. A list made only of totals,
// or only of components, is not a mix and is returned as is.
func dropMixedTotals(options []SeriesOption) []string {
	components := make([]string, 0, len(options))
	for _, option := range options {
		if !option.IsTotalLike {
			components = append(components, option.Code)
		}
	}
	if len(components) == 0 || len(components) == len(options) {
		return codesOf(options)
	}
	return components
}

func codesOf(options []SeriesOption) []string {
	codes := make([]string, len(options))
	for i, option := range options {
		codes[i] = option.Code
	}
	return codes
}
