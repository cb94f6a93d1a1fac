package store

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"statseries/internal/model"
)

const defaultCacheSize = 16

// Cached keeps recently loaded datasets in memory. Upserts go through to the wrapped
// store and evict the dataset they replace.
type Cached struct {
	Store
	datasets *lru.Cache[string, model.Dataset]
}

func NewCached(inner Store, size int) (*Cached, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	datasets, err := lru.New[string, model.Dataset](size)
	if err != nil {
		return nil, err
	}
	return &Cached{Store: inner, datasets: datasets}, nil
}

func (c *Cached) UpsertDataset(ctx context.Context, dataset model.Dataset) (string, error) {
	batchID, err := c.Store.UpsertDataset(ctx, dataset)
	c.datasets.Remove(cacheKey(dataset.Code))
	return batchID, err
}

func (c *Cached) LoadDataset(ctx context.Context, datasetCode string) (model.Dataset, error) {
	key := cacheKey(datasetCode)
	if dataset, ok := c.datasets.Get(key); ok {
		return dataset, nil
	}
	dataset, err := c.Store.LoadDataset(ctx, datasetCode)
	if err != nil {
		return model.Dataset{}, err
	}
	c.datasets.Add(key, dataset)
	return dataset, nil
}

func (c *Cached) Len() int {
	return c.datasets.Len()
}

func cacheKey(datasetCode string) string {
	return strings.ToUpper(strings.TrimSpace(datasetCode))
}
