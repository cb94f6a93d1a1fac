package series_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"statseries/internal/model"
	"statseries/internal/series"
)

func tag(typeCode, code, label string, sortOrder *int) model.Classification {
	return model.Classification{TypeCode: typeCode, Code: code, Label: label, SortOrder: sortOrder}
}

func taggedID(id int64, typeCode, code, label string) model.Classification {
	return model.Classification{ID: model.Int64(id), TypeCode: typeCode, Code: code, Label: label}
}

func year(y int) *model.TimePeriod {
	return &model.TimePeriod{
		Year:        y,
		Periodicity: model.PeriodicityAnnual,
		ISOPeriod:   strconv.Itoa(y),
	}
}

func obs(y int, value string, tags ...model.Classification) model.Observation {
	return model.Observation{
		DatasetCode:     "POP107D",
		Value:           model.String(value),
		TimePeriod:      year(y),
		Unit:            &model.Unit{Code: model.String("PERS"), Symbol: model.String("pers.")},
		Classifications: tags,
	}
}

func catOwnDimensions() []model.Dimension {
	return []model.Dimension{
		{Index: 1, Type: model.DimensionClassification, ClassificationType: &model.ClassificationType{Code: "CAT", Label: "Categorii"}},
		{Index: 2, Type: model.DimensionClassification, ClassificationType: &model.ClassificationType{Code: "OWN", Label: "Forme de proprietate"}},
		{Index: 0, Type: model.DimensionTemporal},
	}
}

// catOwnObservations: two years, each with a Total/Total row and component rows.
func catOwnObservations() []model.Observation {
	return []model.Observation{
		obs(2024, "480", tag("CAT", "TOT", "Total", model.Int(0)), tag("OWN", "TOTAL", "Total", model.Int(0))),
		obs(2024, "220", tag("CAT", "MED", "Medici", model.Int(2)), tag("OWN", "PUB", "Proprietate publica", model.Int(1))),
		obs(2024, "260", tag("CAT", "MED", "Medici", model.Int(2)), tag("OWN", "PRIV", "Proprietate privata", model.Int(2))),
		obs(2024, "90", tag("CAT", "STOM", "Stomatologi", model.Int(3)), tag("OWN", "TOTAL", "Total", model.Int(0))),
		obs(2023, "500", tag("CAT", "TOT", "Total", model.Int(0)), tag("OWN", "TOTAL", "Total", model.Int(0))),
		obs(2023, "230", tag("CAT", "MED", "Medici", model.Int(2)), tag("OWN", "PUB", "Proprietate publica", model.Int(1))),
		obs(2023, "85", tag("CAT", "STOM", "Stomatologi", model.Int(3)), tag("OWN", "PRIV", "Proprietate privata", model.Int(2))),
	}
}

func sexGroupObservations() []model.Observation {
	return []model.Observation{
		obs(2024, "100", tag("SEX", "T", "Total", nil)),
		obs(2024, "48", tag("SEX", "M", "Masculin", model.Int(1))),
		obs(2024, "52", tag("SEX", "F", "Feminin", model.Int(2))),
	}
}

func optionByLabel(t *testing.T, groups []series.SeriesGroup, typeCode, label string) series.SeriesOption {
	t.Helper()
	for _, group := range groups {
		if group.TypeCode != typeCode {
			continue
		}
		for _, option := range group.Options {
			if option.Label == label {
				return option
			}
		}
	}
	require.Failf(t, "option not found", "%s/%s", typeCode, label)
	return series.SeriesOption{}
}
