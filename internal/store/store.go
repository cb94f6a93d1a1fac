package store

import (
	"context"
	"errors"
	"time"

	"statseries/internal/model"
)

var ErrNotFound = errors.New("store: dataset not found")

// Store keeps fetched datasets so series can be resolved without going back upstream.
type Store interface {
	UpsertDataset(ctx context.Context, dataset model.Dataset) (string, error)
	LoadDataset(ctx context.Context, datasetCode string) (model.Dataset, error)
	ListDatasets(ctx context.Context) ([]DatasetInfo, error)
	Close() error
}

type DatasetInfo struct {
	Code             string
	BatchID          string
	ObservationCount int
	IngestedAt       time.Time
}

type NopStore struct{}

func (s *NopStore) UpsertDataset(ctx context.Context, dataset model.Dataset) (string, error) {
	_ = ctx
	_ = dataset
	return "", nil
}

func (s *NopStore) LoadDataset(ctx context.Context, datasetCode string) (model.Dataset, error) {
	_ = ctx
	_ = datasetCode
	return model.Dataset{}, ErrNotFound
}

func (s *NopStore) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	_ = ctx
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
