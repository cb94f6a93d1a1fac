package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"statseries/internal/config"
	"statseries/internal/model"
	"statseries/internal/series"
	"statseries/internal/store"
	"statseries/internal/store/sqlite"
)

type seriesFile struct {
	GeneratedAt string               `json:"generated_at"`
	Dataset     string               `json:"dataset"`
	Groups      []series.SeriesGroup `json:"groups"`
	Units       []series.UnitOption  `json:"units"`
	State       series.State         `json:"state"`
	Series      []model.Observation  `json:"series"`
	Points      []series.Point       `json:"points"`
}

// selectFlag collects repeated -select TYPE=code1,code2 values. "TYPE=" selects nothing.
type selectFlag struct {
	values series.Selection
}

func (f *selectFlag) String() string {
	if f == nil || len(f.values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(f.values))
	for key := range f.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strings.Join(f.values[key], ","))
	}
	return strings.Join(parts, " ")
}

func (f *selectFlag) Set(value string) error {
	typeCode, codes, ok := strings.Cut(value, "=")
	typeCode = strings.TrimSpace(typeCode)
	if !ok || typeCode == "" {
		return fmt.Errorf("expected TYPE=code1,code2, got %q", value)
	}
	if f.values == nil {
		f.values = series.Selection{}
	}
	selected := make([]string, 0)
	for _, code := range strings.Split(codes, ",") {
		if trimmed := strings.TrimSpace(code); trimmed != "" {
			selected = append(selected, trimmed)
		}
	}
	f.values[typeCode] = selected
	return nil
}

type buildOptions struct {
	Datasets   []string
	OutDir     string
	Selections series.Selection
	UnitKey    string
	UnitSet    bool
	Reset      bool
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		build(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func build(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	datasets := fs.String("dataset", "", "comma-separated dataset codes")
	outDir := fs.String("out", "site/data", "output directory")
	dbPath := fs.String("db", "", "sqlite database path (default from config)")
	configPath := fs.String("config", "", "path to YAML config file")
	unitKey := fs.String("unit", "", "unit key to keep")
	reset := fs.Bool("reset", false, "ignore the stored state and start from defaults")
	verbose := fs.Bool("verbose", false, "log resolution details")
	var selections selectFlag
	fs.Var(&selections, "select", "classification selection TYPE=code1,code2 (repeatable)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "publisher build failed:", err)
		os.Exit(1)
	}
	unitSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.Database = *dbPath
		case "unit":
			unitSet = true
		}
	})

	opts := buildOptions{
		Datasets:   parseList(*datasets),
		OutDir:     *outDir,
		Selections: selections.values,
		UnitKey:    strings.TrimSpace(*unitKey),
		UnitSet:    unitSet,
		Reset:      *reset,
	}
	logger := newLogger(os.Stderr, *verbose)
	if err := runBuild(context.Background(), cfg, opts, logger); err != nil {
		fmt.Fprintln(os.Stderr, "publisher build failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: publisher build [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -dataset   comma-separated dataset codes (required)")
	fmt.Fprintln(os.Stderr, "  -out       output directory (default: site/data)")
	fmt.Fprintln(os.Stderr, "  -db        sqlite database path (default: statseries.db)")
	fmt.Fprintln(os.Stderr, "  -config    path to YAML config file")
	fmt.Fprintln(os.Stderr, "  -select    classification selection TYPE=code1,code2, repeatable")
	fmt.Fprintln(os.Stderr, "  -unit      unit key to keep")
	fmt.Fprintln(os.Stderr, "  -reset     ignore the stored state")
	fmt.Fprintln(os.Stderr, "  -verbose   log resolution details")
}

func runBuild(ctx context.Context, cfg config.Config, opts buildOptions, logger *slog.Logger) error {
	if len(opts.Datasets) == 0 {
		return errors.New("no datasets provided")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return errors.New("db path is required")
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	inner, err := sqlite.New(cfg.Database)
	if err != nil {
		return err
	}
	st, err := store.NewCached(inner, cfg.CacheSize)
	if err != nil {
		_ = inner.Close()
		return err
	}
	defer st.Close()

	catalogOpts := cfg.CatalogOptions()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, code := range opts.Datasets {
		dataset, err := st.LoadDataset(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("dataset %s has not been collected", code)
			}
			return err
		}

		statePath := filepath.Join(opts.OutDir, dataset.Code+".state.json")
		previous := series.State{}
		if !opts.Reset {
			previous, err = readState(statePath)
			if err != nil {
				return err
			}
		}
		previous = applyOverrides(previous, opts)

		result := series.Resolve(dataset, previous, catalogOpts...)
		logger.Debug("resolved",
			slog.String("dataset", dataset.Code),
			slog.Int("groups", len(result.Groups)),
			slog.Int("units", len(result.Units)),
			slog.String("unit", result.State.UnitKey),
			slog.Int("points", len(result.Points)),
		)
		if len(result.Series) == 0 && len(dataset.Observations) > 0 {
			logger.Warn("selection matches no observations", slog.String("dataset", dataset.Code))
		}

		out := seriesFile{
			GeneratedAt: now,
			Dataset:     dataset.Code,
			Groups:      result.Groups,
			Units:       result.Units,
			State:       result.State,
			Series:      result.Series,
			Points:      result.Points,
		}
		if err := writeJSON(filepath.Join(opts.OutDir, dataset.Code+".series.json"), out); err != nil {
			return fmt.Errorf("write series for %s: %w", dataset.Code, err)
		}
		if err := writeJSON(statePath, result.State); err != nil {
			return fmt.Errorf("write state for %s: %w", dataset.Code, err)
		}

		fmt.Printf("publisher build %s (observations=%s points=%d unit=%s)\n",
			dataset.Code, humanize.Comma(int64(len(dataset.Observations))), len(result.Points), result.State.UnitKey,
		)
	}

	logger.Debug("dataset cache", slog.Int("cached", st.Len()))
	fmt.Printf("publisher build complete (out=%s datasets=%d)\n", opts.OutDir, len(opts.Datasets))
	return nil
}

// readState returns the zero State when no state was written yet.
func readState(path string) (series.State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return series.State{}, nil
	}
	if err != nil {
		return series.State{}, err
	}
	var state series.State
	if err := json.Unmarshal(data, &state); err != nil {
		return series.State{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return state, nil
}

func applyOverrides(state series.State, opts buildOptions) series.State {
	if len(opts.Selections) > 0 {
		merged := state.Selection.Clone()
		if merged == nil {
			merged = series.Selection{}
		}
		for typeCode, codes := range opts.Selections.Clone() {
			merged[typeCode] = codes
		}
		state.Selection = merged
	}
	if opts.UnitSet {
		state.UnitKey = opts.UnitKey
	}
	return state
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("component", "publisher"))
}

func parseList(value string) []string {
	raw := strings.Split(value, ",")
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.ToUpper(strings.TrimSpace(item))
		if trimmed == "" {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}
