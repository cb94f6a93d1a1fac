package series_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statseries/internal/model"
	"statseries/internal/series"
)

// TestDeterministicScore weighs status, value and unit.
func TestDeterministicScore(t *testing.T) {
	full := obs(2024, "1")
	assert.Equal(t, 7, series.DeterministicScore(full))

	flagged := obs(2024, "1")
	flagged.ValueStatus = model.String("c")
	assert.Equal(t, 3, series.DeterministicScore(flagged))

	blank := obs(2024, "  ")
	blank.Unit = nil
	assert.Equal(t, 4, series.DeterministicScore(blank))

	assert.Equal(t, 4, series.DeterministicScore(model.Observation{ValueStatus: model.String(" ")}))
}

// TestBuildStableSeries_TotalScenario resolves two yearly points from the Total/Total slice.
func TestBuildStableSeries_TotalScenario(t *testing.T) {
	observations := catOwnObservations()
	groups := series.BuildGroups(observations, catOwnDimensions())
	slice := series.FilterObservations(observations, series.DefaultSelection(groups), "")

	result := series.BuildStableSeries(slice)
	require.Len(t, result, 2)
	assert.Equal(t, 2024, result[0].TimePeriod.Year)
	assert.Equal(t, "480", result[0].RawValue())
	assert.Equal(t, 2023, result[1].TimePeriod.Year)
	assert.Equal(t, "500", result[1].RawValue())
	for _, observation := range result {
		assert.Equal(t, "CAT:TOT|OWN:TOTAL", series.ClassificationSignature(observation))
	}
}

// TestBuildStableSeries_ScorePrefersUsableRows keeps a valued row over a suppressed one.
func TestBuildStableSeries_ScorePrefersUsableRows(t *testing.T) {
	suppressed := obs(2024, "")
	suppressed.Value = nil
	suppressed.ValueStatus = model.String("confidential")
	usable := obs(2024, "12")

	result := series.BuildStableSeries([]model.Observation{suppressed, usable})
	require.Len(t, result, 1)
	assert.Equal(t, "12", result[0].RawValue())

	only := series.BuildStableSeries([]model.Observation{suppressed})
	require.Len(t, only, 1, "a flagged row is kept when it is all there is")
}

// TestBuildStableSeries_TieBreaks walks the tie-break chain after equal scores.
func TestBuildStableSeries_TieBreaks(t *testing.T) {
	a := obs(2024, "10", tag("SEX", "A", "A", nil))
	b := obs(2024, "99", tag("SEX", "B", "B", nil))
	assert.Equal(t, "10", series.BuildStableSeries([]model.Observation{b, a})[0].RawValue(), "smaller signature wins")

	lei := obs(2024, "10")
	lei.Unit = &model.Unit{Code: model.String("LEI")}
	eur := obs(2024, "99")
	eur.Unit = &model.Unit{Code: model.String("EUR")}
	assert.Equal(t, "99", series.BuildStableSeries([]model.Observation{lei, eur})[0].RawValue(), "smaller unit key wins")

	low := obs(2024, "100")
	high := obs(2024, "99")
	assert.Equal(t, "99", series.BuildStableSeries([]model.Observation{low, high})[0].RawValue(), "larger value text wins")

	first := obs(2024, "5")
	first.DatasetCode = "B"
	second := obs(2024, "5")
	second.DatasetCode = "A"
	assert.Equal(t, "A", series.BuildStableSeries([]model.Observation{first, second})[0].DatasetCode)
}

// TestBuildStableSeries_DropsMissingPeriods ignores rows without an ISO period.
func TestBuildStableSeries_DropsMissingPeriods(t *testing.T) {
	noPeriod := obs(2024, "1")
	noPeriod.TimePeriod = nil
	blankPeriod := obs(2024, "1")
	blankPeriod.TimePeriod = &model.TimePeriod{Year: 2024}

	assert.Empty(t, series.BuildStableSeries([]model.Observation{noPeriod, blankPeriod}))
	assert.Empty(t, series.BuildStableSeries(nil))
}

// TestBuildStableSeries_PeriodOrder sorts months and quarters newest first.
func TestBuildStableSeries_PeriodOrder(t *testing.T) {
	at := func(iso string, y int, quarter, month *int) model.Observation {
		o := obs(y, iso)
		o.TimePeriod = &model.TimePeriod{Year: y, Quarter: quarter, Month: month, ISOPeriod: iso}
		return o
	}
	result := series.BuildStableSeries([]model.Observation{
		at("2023-12", 2023, nil, model.Int(12)),
		at("2024-01", 2024, nil, model.Int(1)),
		at("2024-02", 2024, nil, model.Int(2)),
		at("2023-Q4", 2023, model.Int(4), nil),
	})
	periods := make([]string, 0)
	for _, observation := range result {
		periods = append(periods, observation.ISOPeriod())
	}
	assert.Equal(t, []string{"2024-02", "2024-01", "2023-Q4", "2023-12"}, periods)
}

// TestBuildStableSeries_PermutationInvariant shuffles duplicates and expects the same series.
func TestBuildStableSeries_PermutationInvariant(t *testing.T) {
	observations := catOwnObservations()
	for _, y := range []int{2023, 2024} {
		dup := obs(y, "7", tag("CAT", "TOT", "Total", model.Int(0)), tag("OWN", "TOTAL", "Total", model.Int(0)))
		flagged := obs(y, "", tag("CAT", "TOT", "Total", model.Int(0)), tag("OWN", "TOTAL", "Total", model.Int(0)))
		flagged.ValueStatus = model.String("x")
		other := obs(y, "480", tag("CAT", "TOT", "Total", model.Int(0)), tag("OWN", "TOTAL", "Total", model.Int(0)))
		other.DatasetCode = "POP107A"
		observations = append(observations, dup, flagged, other)
	}
	observations = append(observations, nearDuplicates()...)
	expected := series.BuildStableSeries(observations)
	ids := make(map[string]bool)
	for _, observation := range expected {
		assert.False(t, ids[observation.ISOPeriod()], "period %s appears twice", observation.ISOPeriod())
		ids[observation.ISOPeriod()] = true
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		shuffled := make([]model.Observation, len(observations))
		copy(shuffled, observations)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, expected, series.BuildStableSeries(shuffled), "round %d", round)
	}
}

// nearDuplicates returns pairs of rows per period that agree on score, signatures, unit key,
// value and dataset but differ in status text, unit symbol, labels, sort order or periodicity.
func nearDuplicates() []model.Observation {
	total := func() model.Classification { return tag("CAT", "TOT", "Total", model.Int(0)) }

	statusC := obs(2019, "", total())
	statusC.Value, statusC.ValueStatus = nil, model.String("c")
	statusColon := obs(2019, "", total())
	statusColon.Value, statusColon.ValueStatus = nil, model.String(":")

	short := obs(2018, "10", total())
	long := obs(2018, "10", total())
	long.Unit.Symbol = model.String("persoane")

	labelled := obs(2017, "11", total())
	relabelled := obs(2017, "11", tag("CAT", "TOT", "Total general", model.Int(0)))

	ordered := obs(2016, "12", tag("CAT", "TOT", "Total", model.Int(0)))
	reordered := obs(2016, "12", tag("CAT", "TOT", "Total", model.Int(5)))

	annual := obs(2015, "13", total(), tag("OWN", "TOTAL", "Total", nil))
	untyped := obs(2015, "13", tag("OWN", "TOTAL", "Total", nil), total())
	untyped.TimePeriod.Periodicity = ""

	return []model.Observation{statusC, statusColon, short, long, labelled, relabelled, ordered, reordered, annual, untyped}
}

// TestBuildStableSeries_NearDuplicatesIgnoreOrder picks the same row whichever comes first.
func TestBuildStableSeries_NearDuplicatesIgnoreOrder(t *testing.T) {
	rows := nearDuplicates()
	for i := 0; i < len(rows); i += 2 {
		forward := series.BuildStableSeries([]model.Observation{rows[i], rows[i+1]})
		backward := series.BuildStableSeries([]model.Observation{rows[i+1], rows[i]})
		require.Len(t, forward, 1)
		assert.Equal(t, forward, backward, "period %s", rows[i].ISOPeriod())
		assert.Equal(t, series.Points(forward), series.Points(backward), "period %s", rows[i].ISOPeriod())
	}
}

// TestPoints converts values to decimals and keeps suppressed rows as nulls.
func TestPoints(t *testing.T) {
	valued := obs(2024, " 480.50 ")
	suppressed := obs(2023, "")
	suppressed.Value = nil
	suppressed.ValueStatus = model.String("c")
	garbage := obs(2022, "n/a")
	garbage.Unit = nil

	points := series.Points([]model.Observation{valued, suppressed, garbage})
	require.Len(t, points, 3)
	assert.Equal(t, "2024", points[0].Period)
	require.True(t, points[0].Value.Valid)
	assert.Equal(t, "480.5", points[0].Value.Decimal.String())
	assert.Equal(t, "pers.", points[0].Unit)

	assert.False(t, points[1].Value.Valid)
	assert.Equal(t, "c", points[1].Status)

	assert.False(t, points[2].Value.Valid)
	assert.Empty(t, points[2].Unit)
	assert.Equal(t, 2022, points[2].Year)
}
