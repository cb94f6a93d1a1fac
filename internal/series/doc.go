// Package series resolves a single, gap-free time series out of a multi-dimensional
// statistics cube.
//
// The flow is BuildGroups (one group of options per classification dimension),
// DefaultSelection or MergeSelection (one list of option codes per dimension),
// BuildUnitOptions with MergeUnit (one unit), FilterObservations (the slice) and
// BuildStableSeries (one observation per period, newest first). Resolve runs all of it.
//
// Every function is pure: no I/O, no shared state, no errors. Inputs are never modified,
// so calls for unrelated datasets can run concurrently without coordination.
package series
