package file_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statseries/internal/model"
	"statseries/internal/providers"
	"statseries/internal/providers/file"
)

// TestProvider_FetchDataset decodes an export and fills dataset codes and ISO periods.
func TestProvider_FetchDataset(t *testing.T) {
	p, err := file.New("testdata")
	require.NoError(t, err)

	dataset, err := providers.FetchDataset(context.Background(), p, "pop107d")
	require.NoError(t, err)
	assert.Equal(t, "POP107D", dataset.Code)
	require.Len(t, dataset.Dimensions, 2)
	assert.Equal(t, "SEX", dataset.Dimensions[1].ClassificationCode())
	require.Len(t, dataset.Observations, 3)

	for _, observation := range dataset.Observations {
		assert.Equal(t, "POP107D", observation.DatasetCode)
	}
	assert.Equal(t, "2024", dataset.Observations[1].ISOPeriod())
	assert.Equal(t, model.PeriodicityAnnual, dataset.Observations[1].TimePeriod.Periodicity)
	assert.Equal(t, "2023-Q4", dataset.Observations[2].ISOPeriod())
	assert.True(t, dataset.Observations[2].HasStatus())
	assert.Equal(t, int64(2), *dataset.Observations[1].Classifications[0].ID)
}

// TestProvider_Missing maps an absent export to ErrNoRecords.
func TestProvider_Missing(t *testing.T) {
	p, err := file.New("testdata")
	require.NoError(t, err)

	_, err = p.FetchObservations(context.Background(), "NOPE")
	assert.ErrorIs(t, err, file.ErrNoRecords)

	_, err = p.ListDimensions(context.Background(), " ")
	assert.Error(t, err)

	_, err = file.New("")
	assert.Error(t, err)
}

// TestProvider_Canceled honours a canceled context.
func TestProvider_Canceled(t *testing.T) {
	p, err := file.New("testdata")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.FetchObservations(ctx, "POP107D")
	assert.ErrorIs(t, err, context.Canceled)
}
