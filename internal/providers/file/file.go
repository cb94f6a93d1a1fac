package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"statseries/internal/model"
	"statseries/internal/period"
	"statseries/internal/providers"
)

var ErrNoRecords = errors.New("file: no records found")

type export struct {
	Dimensions   []model.Dimension   `json:"dimensions"`
	Observations []model.Observation `json:"observations"`
}

// Provider reads dataset exports stored as <dir>/<DATASET>.json.
type Provider struct {
	dir     string
	mu      sync.Mutex
	exports map[string]export
}

func New(dir string) (*Provider, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file: source dir is required")
	}
	return &Provider{dir: dir, exports: make(map[string]export)}, nil
}

func (p *Provider) Name() string {
	return "file"
}

func (p *Provider) ListDimensions(ctx context.Context, datasetCode string) ([]model.Dimension, error) {
	loaded, err := p.load(ctx, datasetCode)
	if err != nil {
		return nil, err
	}
	return loaded.Dimensions, nil
}

func (p *Provider) FetchObservations(ctx context.Context, datasetCode string) ([]model.Observation, error) {
	loaded, err := p.load(ctx, datasetCode)
	if err != nil {
		return nil, err
	}
	if len(loaded.Observations) == 0 {
		return nil, ErrNoRecords
	}
	return loaded.Observations, nil
}

func (p *Provider) load(ctx context.Context, datasetCode string) (export, error) {
	if err := ctx.Err(); err != nil {
		return export{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(datasetCode))
	if code == "" {
		return export{}, errors.New("file: dataset code is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.exports[code]; ok {
		return cached, nil
	}

	path := filepath.Join(p.dir, code+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return export{}, ErrNoRecords
	}
	if err != nil {
		return export{}, err
	}

	var decoded export
	if err := json.Unmarshal(data, &decoded); err != nil {
		return export{}, fmt.Errorf("file: decode %s: %w", path, err)
	}
	for i := range decoded.Observations {
		if decoded.Observations[i].DatasetCode == "" {
			decoded.Observations[i].DatasetCode = code
		}
		period.Normalize(decoded.Observations[i].TimePeriod)
	}
	p.exports[code] = decoded
	return decoded, nil
}

var _ providers.Provider = (*Provider)(nil)
