package providers

import (
	"context"
	"strings"

	"statseries/internal/model"
)

// Provider fetches dataset metadata and observations from an upstream statistics source.
// Observations are returned as published, duplicates included.
type Provider interface {
	Name() string
	ListDimensions(ctx context.Context, datasetCode string) ([]model.Dimension, error)
	FetchObservations(ctx context.Context, datasetCode string) ([]model.Observation, error)
}

// FetchDataset loads dimensions and observations of one dataset through p.
func FetchDataset(ctx context.Context, p Provider, datasetCode string) (model.Dataset, error) {
	datasetCode = strings.ToUpper(strings.TrimSpace(datasetCode))
	dimensions, err := p.ListDimensions(ctx, datasetCode)
	if err != nil {
		return model.Dataset{}, err
	}
	observations, err := p.FetchObservations(ctx, datasetCode)
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{Code: datasetCode, Dimensions: dimensions, Observations: observations}, nil
}
