package series

import (
	"encoding/json"
	"sort"
	"strings"

	"statseries/internal/model"
	"statseries/internal/period"
)

// DeterministicScore ranks duplicate observations of one period: +4 without a status flag,
// +2 with a non-blank value, +1 with an explicit unit.
func DeterministicScore(observation model.Observation) int {
	score := 0
	if !observation.HasStatus() {
		score += 4
	}
	if observation.HasValue() {
		score += 2
	}
	if UnitKey(observation.Unit) != NoUnitKey {
		score++
	}
	return score
}

// BuildStableSeries keeps one observation per ISO period and sorts them newest first.
// The representative does not depend on the order of the input.
func BuildStableSeries(slice []model.Observation) []model.Observation {
	best := make(map[string]model.Observation)
	for _, observation := range slice {
		isoPeriod := observation.ISOPeriod()
		if isoPeriod == "" {
			continue
		}
		current, ok := best[isoPeriod]
		if !ok || compareCandidates(observation, current) > 0 {
			best[isoPeriod] = observation
		}
	}

	series := make([]model.Observation, 0, len(best))
	for _, observation := range best {
		series = append(series, observation)
	}
	sort.Slice(series, func(i, j int) bool {
		a, b := periodKey(series[i]), periodKey(series[j])
		if a != b {
			return a > b
		}
		return series[i].ISOPeriod() > series[j].ISOPeriod()
	})
	return series
}

func periodKey(observation model.Observation) int {
	if observation.TimePeriod == nil {
		return 0
	}
	return period.Key(*observation.TimePeriod)
}

// compareCandidates returns a positive number when a should represent the period over b.
func compareCandidates(a, b model.Observation) int {
	if diff := DeterministicScore(a) - DeterministicScore(b); diff != 0 {
		return diff
	}
	if cmp := strings.Compare(ClassificationSignature(a), ClassificationSignature(b)); cmp != 0 {
		return -cmp
	}
	if cmp := strings.Compare(UnitKey(a.Unit), UnitKey(b.Unit)); cmp != 0 {
		return -cmp
	}
	// the larger value text wins; kept as is so the same duplicate keeps winning
	if cmp := strings.Compare(a.RawValue(), b.RawValue()); cmp != 0 {
		return cmp
	}
	if cmp := strings.Compare(a.DatasetCode, b.DatasetCode); cmp != 0 {
		return -cmp
	}
	if cmp := strings.Compare(selectionSignature(a), selectionSignature(b)); cmp != 0 {
		return -cmp
	}
	// rows equal so far may still differ in status text, unit fields, labels or period fields
	if cmp := strings.Compare(encodeObservation(a, true), encodeObservation(b, true)); cmp != 0 {
		return -cmp
	}
	return -strings.Compare(encodeObservation(a, false), encodeObservation(b, false))
}

// encodeObservation renders every field of the observation as JSON. With sorted set, the
// classifications are put in a fixed order first.
func encodeObservation(observation model.Observation, sorted bool) string {
	if sorted && len(observation.Classifications) > 1 {
		classifications := make([]model.Classification, len(observation.Classifications))
		copy(classifications, observation.Classifications)
		encoded := make([]string, len(classifications))
		for i, c := range classifications {
			encoded[i] = encodeJSON(c)
		}
		sort.Sort(byEncoding{classifications: classifications, encoded: encoded})
		observation.Classifications = classifications
	}
	return encodeJSON(observation)
}

func encodeJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

type byEncoding struct {
	classifications []model.Classification
	encoded         []string
}

func (b byEncoding) Len() int           { return len(b.encoded) }
func (b byEncoding) Less(i, j int) bool { return b.encoded[i] < b.encoded[j] }
func (b byEncoding) Swap(i, j int) {
	b.classifications[i], b.classifications[j] = b.classifications[j], b.classifications[i]
	b.encoded[i], b.encoded[j] = b.encoded[j], b.encoded[i]
}

// ClassificationSignature is the sorted "type_code:code" list of an observation joined by "|".
func ClassificationSignature(observation model.Observation) string {
	parts := make([]string, 0, len(observation.Classifications))
	for _, c := range observation.Classifications {
		parts = append(parts, c.TypeCode+":"+c.Code)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func selectionSignature(observation model.Observation) string {
	parts := make([]string, 0, len(observation.Classifications))
	for _, c := range observation.Classifications {
		parts = append(parts, c.TypeCode+":"+SelectionKey(c))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
