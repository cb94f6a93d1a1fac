package series

import (
	"strings"

	"statseries/internal/model"
)

// FilterObservations returns the observations matching every constrained dimension of
// selection and, when unitKey is not empty, the unit. Dimensions that are missing from
// selection or hold an empty list do not constrain the slice.
func FilterObservations(observations []model.Observation, selection Selection, unitKey string) []model.Observation {
	sets := make(map[string]map[string]struct{}, len(selection))
	for typeCode, codes := range selection {
		if len(codes) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
		sets[strings.TrimSpace(typeCode)] = set
	}

	slice := make([]model.Observation, 0)
	for _, observation := range observations {
		if unitKey != "" && UnitKey(observation.Unit) != unitKey {
			continue
		}
		if matchesSelection(observation, sets) {
			slice = append(slice, observation)
		}
	}
	return slice
}

func matchesSelection(observation model.Observation, sets map[string]map[string]struct{}) bool {
	for typeCode, set := range sets {
		key, ok := observationKey(observation, typeCode)
		if !ok {
			return false
		}
		if _, ok := set[key]; !ok {
			return false
		}
	}
	return true
}

// observationKey returns the selection key of the first classification of the given type.
func observationKey(observation model.Observation, typeCode string) (string, bool) {
	for _, c := range observation.Classifications {
		if strings.TrimSpace(c.TypeCode) == typeCode {
			return SelectionKey(c), true
		}
	}
	return "", false
}
