package series_test

import (
	"fmt"

	"statseries/internal/model"
	"statseries/internal/series"
)

// ExampleResolve resolves the default Total/Total series of a two-dimensional cube.
func ExampleResolve() {
	dataset := model.Dataset{
		Code:         "POP107D",
		Dimensions:   catOwnDimensions(),
		Observations: catOwnObservations(),
	}

	result := series.Resolve(dataset, series.State{})
	for _, group := range result.Groups {
		fmt.Println(group.TypeCode, len(group.Options), result.State.Selection[group.TypeCode])
	}
	fmt.Println(result.State.UnitKey)
	for _, point := range result.Points {
		fmt.Println(point.Period, point.Value.Decimal)
	}
	// Output:
	// CAT 3 [fallback:TOT|0|total]
	// OWN 3 [fallback:TOTAL|0|total]
	// PERS
	// 2024 480
	// 2023 500
}
