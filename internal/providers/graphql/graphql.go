package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"statseries/internal/model"
	"statseries/internal/period"
	"statseries/internal/providers"
)

const (
	defaultEndpoint        = "http://localhost:4000/graphql"
	defaultPageSize        = 1000
	defaultMaxPages        = 200
	defaultRateLimitPerSec = 5
	defaultRateLimitBurst  = 5
	defaultTimeoutSeconds  = 20
	defaultUserAgent       = "statseries/0.1"
	defaultAPIKeyHeader    = "X-API-Key"
)

var ErrNoRecords = errors.New("graphql: no records found")

const dimensionsQuery = `query Dimensions($code: String!) {
  insDataset(code: $code) {
    dimensions { index type classificationType { code label } }
  }
}`

const observationsQuery = `query Observations($code: String!, $limit: Int!, $offset: Int!) {
  insObservations(filter: { datasetCode: $code }, limit: $limit, offset: $offset) {
    nodes {
      datasetCode value valueStatus
      timePeriod { year quarter month periodicity isoPeriod }
      unit { code symbol name }
      classifications { id typeCode typeLabel code label sortOrder }
    }
    pageInfo { hasNextPage }
  }
}`

type Config struct {
	Endpoint        string
	APIKey          string
	APIKeyHeader    string
	PageSize        int
	MaxPages        int
	RateLimitPerSec int
	RateLimitBurst  int
	Timeout         time.Duration
	UserAgent       string
}

// Provider queries a statistics GraphQL API. Failed requests are returned, not retried.
type Provider struct {
	config  Config
	client  *http.Client
	limiter *rateLimiter
}

func NewWithConfig(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("graphql endpoint is required")
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = defaultAPIKeyHeader
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = defaultRateLimitPerSec
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Provider{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	}, nil
}

func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Endpoint:     getenv("STATSERIES_ENDPOINT", defaultEndpoint),
		APIKey:       strings.TrimSpace(os.Getenv("STATSERIES_API_KEY")),
		APIKeyHeader: getenv("STATSERIES_API_KEY_HEADER", defaultAPIKeyHeader),
		UserAgent:    getenv("STATSERIES_USER_AGENT", defaultUserAgent),
	}
	cfg.PageSize = getenvInt("STATSERIES_PAGE_SIZE", defaultPageSize)
	cfg.MaxPages = getenvInt("STATSERIES_MAX_PAGES", defaultMaxPages)
	cfg.RateLimitPerSec = getenvInt("STATSERIES_RATE_LIMIT_PER_SEC", defaultRateLimitPerSec)
	cfg.RateLimitBurst = getenvInt("STATSERIES_RATE_LIMIT_BURST", defaultRateLimitBurst)
	cfg.Timeout = time.Duration(getenvInt("STATSERIES_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second
	return cfg, nil
}

// Close releases the rate limiter. It is safe to call more than once.
func (p *Provider) Close() error {
	p.limiter.Stop()
	return nil
}

func (p *Provider) Name() string {
	return "graphql"
}

func (p *Provider) ListDimensions(ctx context.Context, datasetCode string) ([]model.Dimension, error) {
	var payload struct {
		InsDataset *struct {
			Dimensions []gqlDimension `json:"dimensions"`
		} `json:"insDataset"`
	}
	if err := p.query(ctx, dimensionsQuery, map[string]any{"code": datasetCode}, &payload); err != nil {
		return nil, err
	}
	if payload.InsDataset == nil {
		return nil, ErrNoRecords
	}

	dimensions := make([]model.Dimension, 0, len(payload.InsDataset.Dimensions))
	for _, dim := range payload.InsDataset.Dimensions {
		dimensions = append(dimensions, dim.toModel())
	}
	return dimensions, nil
}

func (p *Provider) FetchObservations(ctx context.Context, datasetCode string) ([]model.Observation, error) {
	observations := make([]model.Observation, 0)
	for page := 0; page < p.config.MaxPages; page++ {
		var payload struct {
			InsObservations struct {
				Nodes    []gqlObservation `json:"nodes"`
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
			} `json:"insObservations"`
		}
		variables := map[string]any{
			"code":   datasetCode,
			"limit":  p.config.PageSize,
			"offset": page * p.config.PageSize,
		}
		if err := p.query(ctx, observationsQuery, variables, &payload); err != nil {
			return nil, err
		}
		for _, node := range payload.InsObservations.Nodes {
			observation := node.toModel()
			if observation.DatasetCode == "" {
				observation.DatasetCode = datasetCode
			}
			observations = append(observations, observation)
		}
		if !payload.InsObservations.PageInfo.HasNextPage {
			break
		}
	}

	if len(observations) == 0 {
		return nil, ErrNoRecords
	}
	return observations, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *Provider) query(ctx context.Context, query string, variables map[string]any, dest any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	raw, err := p.doRequest(ctx, body)
	if err != nil {
		return err
	}

	var response gqlResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(response.Errors) > 0 {
		messages := make([]string, 0, len(response.Errors))
		for _, e := range response.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("graphql: %s", strings.Join(messages, "; "))
	}
	if len(response.Data) == 0 || string(response.Data) == "null" {
		return ErrNoRecords
	}

	decoder := json.NewDecoder(bytes.NewReader(response.Data))
	decoder.UseNumber()
	return decoder.Decode(dest)
}

func (p *Provider) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}
	if p.config.APIKey != "" {
		req.Header.Set(p.config.APIKeyHeader, p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoRecords
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("graphql: request failed (%s): %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

type rateLimiter struct {
	tokens chan struct{}
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func newRateLimiter(ratePerSec, burst int) *rateLimiter {
	if ratePerSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := &rateLimiter{
		tokens: make(chan struct{}, burst),
		done:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		limiter.tokens <- struct{}{}
	}

	interval := time.Second / time.Duration(ratePerSec)
	if interval <= 0 {
		interval = time.Second
	}
	limiter.ticker = time.NewTicker(interval)
	limiter.wg.Add(1)
	go limiter.refill()

	return limiter
}

func (l *rateLimiter) refill() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C:
			select {
			case l.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Stop ends the refill goroutine and waits for it. Tokens already in the bucket stay usable.
func (l *rateLimiter) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.ticker.Stop()
		close(l.done)
	})
	l.wg.Wait()
}

func (l *rateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.tokens:
		return nil
	}
}

type gqlDimension struct {
	Index              int    `json:"index"`
	Type               string `json:"type"`
	ClassificationType *struct {
		Code  string `json:"code"`
		Label string `json:"label"`
	} `json:"classificationType"`
}

func (d gqlDimension) toModel() model.Dimension {
	dim := model.Dimension{
		Index: d.Index,
		Type:  model.DimensionType(strings.ToUpper(strings.TrimSpace(d.Type))),
	}
	if d.ClassificationType != nil {
		dim.ClassificationType = &model.ClassificationType{
			Code:  strings.TrimSpace(d.ClassificationType.Code),
			Label: strings.TrimSpace(d.ClassificationType.Label),
		}
	}
	return dim
}

type gqlObservation struct {
	DatasetCode string `json:"datasetCode"`
	Value       any    `json:"value"`
	ValueStatus any    `json:"valueStatus"`
	TimePeriod  *struct {
		Year        any    `json:"year"`
		Quarter     any    `json:"quarter"`
		Month       any    `json:"month"`
		Periodicity string `json:"periodicity"`
		ISOPeriod   string `json:"isoPeriod"`
	} `json:"timePeriod"`
	Unit *struct {
		Code   any `json:"code"`
		Symbol any `json:"symbol"`
		Name   any `json:"name"`
	} `json:"unit"`
	Classifications []struct {
		ID        any    `json:"id"`
		TypeCode  string `json:"typeCode"`
		TypeLabel string `json:"typeLabel"`
		Code      string `json:"code"`
		Label     string `json:"label"`
		SortOrder any    `json:"sortOrder"`
	} `json:"classifications"`
}

func (o gqlObservation) toModel() model.Observation {
	observation := model.Observation{
		DatasetCode: strings.TrimSpace(o.DatasetCode),
		Value:       optionalString(o.Value),
		ValueStatus: optionalString(o.ValueStatus),
	}

	if o.TimePeriod != nil {
		tp := model.TimePeriod{
			Periodicity: model.Periodicity(strings.ToUpper(strings.TrimSpace(o.TimePeriod.Periodicity))),
			ISOPeriod:   strings.TrimSpace(o.TimePeriod.ISOPeriod),
		}
		if year, ok := getInt(o.TimePeriod.Year); ok {
			tp.Year = year
		}
		if quarter, ok := getInt(o.TimePeriod.Quarter); ok {
			tp.Quarter = model.Int(quarter)
		}
		if month, ok := getInt(o.TimePeriod.Month); ok {
			tp.Month = model.Int(month)
		}
		if tp.Year == 0 && tp.ISOPeriod != "" {
			if parsed, ok := period.Parse(tp.ISOPeriod); ok {
				tp = parsed
			}
		}
		period.Normalize(&tp)
		observation.TimePeriod = &tp
	}

	if o.Unit != nil {
		observation.Unit = &model.Unit{
			Code:   optionalString(o.Unit.Code),
			Symbol: optionalString(o.Unit.Symbol),
			Name:   optionalString(o.Unit.Name),
		}
	}

	for _, c := range o.Classifications {
		classification := model.Classification{
			TypeCode:  strings.TrimSpace(c.TypeCode),
			TypeLabel: strings.TrimSpace(c.TypeLabel),
			Code:      c.Code,
			Label:     c.Label,
		}
		if id, ok := getInt(c.ID); ok {
			classification.ID = model.Int64(int64(id))
		}
		if sortOrder, ok := getInt(c.SortOrder); ok {
			classification.SortOrder = model.Int(sortOrder)
		}
		observation.Classifications = append(observation.Classifications, classification)
	}
	return observation
}

// optionalString keeps the text of a scalar as published; null stays nil.
func optionalString(value any) *string {
	text, ok := getString(value)
	if !ok {
		return nil
	}
	return &text
}

func getString(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case json.Number:
		return typed.String(), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

func getInt(value any) (int, bool) {
	switch typed := value.(type) {
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	case float64:
		return int(typed), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

var _ providers.Provider = (*Provider)(nil)
