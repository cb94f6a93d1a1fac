package period_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statseries/internal/model"
	"statseries/internal/period"
)

// TestParse_Shapes checks every accepted raw period shape and its canonical ISO form.
func TestParse_Shapes(t *testing.T) {
	cases := map[string]string{
		"2024":     "2024",
		" 2024 ":   "2024",
		"2024-Q3":  "2024-Q3",
		"2024q1":   "2024-Q1",
		"2024-07":  "2024-07",
		"202407":   "2024-07",
		"2024-M11": "2024-11",
	}
	for raw, want := range cases {
		tp, ok := period.Parse(raw)
		require.True(t, ok, "parse %q", raw)
		assert.Equal(t, want, tp.ISOPeriod, "iso period for %q", raw)
		assert.Equal(t, 2024, tp.Year, "year for %q", raw)
	}
}

// TestParse_Rejects covers strings that are not periods.
func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "abc", "2024-Q5", "2024-13", "24", "2024-Q", "2024-+3", "2024-M-3", "2024-Q+1", "2024Q-1", "+202-03", "2024- 3", "2024-"} {
		_, ok := period.Parse(raw)
		assert.False(t, ok, "%q should not parse", raw)
	}
}

// TestKey_Ordering verifies the numeric key orders months and quarters inside a year.
func TestKey_Ordering(t *testing.T) {
	year, _ := period.Parse("2024")
	q2, _ := period.Parse("2024-Q2")
	march, _ := period.Parse("2024-03")
	previous, _ := period.Parse("2023-12")

	assert.Equal(t, 20240000, period.Key(year))
	assert.Equal(t, 20240200, period.Key(q2))
	assert.Equal(t, 20240003, period.Key(march))
	assert.Less(t, period.Key(previous), period.Key(year))
}

// TestNormalize_FillsISOPeriod fills iso period and periodicity from structured parts.
func TestNormalize_FillsISOPeriod(t *testing.T) {
	tp := &model.TimePeriod{Year: 2022, Quarter: model.Int(4)}
	period.Normalize(tp)
	assert.Equal(t, "2022-Q4", tp.ISOPeriod)
	assert.Equal(t, model.PeriodicityQuarterly, tp.Periodicity)

	kept := &model.TimePeriod{Year: 2022, ISOPeriod: " 2022 ", Periodicity: model.PeriodicityAnnual}
	period.Normalize(kept)
	assert.Equal(t, "2022", kept.ISOPeriod)

	period.Normalize(nil)
}
