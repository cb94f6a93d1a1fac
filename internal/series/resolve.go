package series

import "statseries/internal/model"

// State is what a caller keeps between two resolutions of the same dataset.
type State struct {
	Selection Selection `json:"selection"`
	UnitKey   string    `json:"unit_key,omitempty"`
}

// Result is one full resolution of a dataset.
type Result struct {
	Groups []SeriesGroup       `json:"groups"`
	Units  []UnitOption        `json:"units"`
	State  State               `json:"state"`
	Series []model.Observation `json:"series"`
	Points []Point             `json:"points"`
}

// Resolve runs catalog, selection, unit, slice and assembly in one pass. previous may be
// the zero State; stale entries in it are reconciled, never rejected.
func Resolve(dataset model.Dataset, previous State, opts ...CatalogOption) Result {
	groups := BuildGroups(dataset.Observations, dataset.Dimensions, opts...)
	units := BuildUnitOptions(dataset.Observations, opts...)

	var selection Selection
	if previous.Selection == nil {
		selection = DefaultSelection(groups)
	} else {
		selection = MergeSelection(groups, previous.Selection)
	}
	unitKey, _ := MergeUnit(units, previous.UnitKey)

	series := BuildStableSeries(FilterObservations(dataset.Observations, selection, unitKey))
	return Result{
		Groups: groups,
		Units:  units,
		State:  State{Selection: selection, UnitKey: unitKey},
		Series: series,
		Points: Points(series),
	}
}
