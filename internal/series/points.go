package series

import (
	"strings"

	"github.com/shopspring/decimal"

	"statseries/internal/model"
)

// Point is a chart-ready view of one observation of a stable series.
type Point struct {
	Period string              `json:"period"`
	Year   int                 `json:"year"`
	Value  decimal.NullDecimal `json:"value"`
	Status string              `json:"status,omitempty"`
	Unit   string              `json:"unit,omitempty"`
}

// Points converts a stable series into chart points, keeping its order. Values that are
// absent or not decimal text become null.
func Points(series []model.Observation) []Point {
	points := make([]Point, 0, len(series))
	for _, observation := range series {
		point := Point{Period: observation.ISOPeriod()}
		if observation.TimePeriod != nil {
			point.Year = observation.TimePeriod.Year
		}
		if observation.HasValue() {
			if value, err := decimal.NewFromString(strings.TrimSpace(*observation.Value)); err == nil {
				point.Value = decimal.NewNullDecimal(value)
			}
		}
		if observation.HasStatus() {
			point.Status = strings.TrimSpace(*observation.ValueStatus)
		}
		if key := UnitKey(observation.Unit); key != NoUnitKey {
			point.Unit = UnitLabel(observation.Unit)
		}
		points = append(points, point)
	}
	return points
}
