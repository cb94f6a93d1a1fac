package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"statseries/internal/config"
	"statseries/internal/period"
	"statseries/internal/providers"
	"statseries/internal/providers/file"
	"statseries/internal/providers/graphql"
	"statseries/internal/store"
	"statseries/internal/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	case "list":
		list(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	datasets := fs.String("dataset", "", "comma-separated dataset codes")
	provider := fs.String("provider", "", "provider id: file or graphql (default from config)")
	source := fs.String("source", "", "dataset directory for the file provider (default from config)")
	dbPath := fs.String("db", "", "sqlite database path (default from config)")
	configPath := fs.String("config", "", "path to YAML config file")
	verbose := fs.Bool("verbose", false, "log each stored dataset")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*provider) != "" {
		cfg.Provider = *provider
	}
	if strings.TrimSpace(*source) != "" {
		cfg.Source.Dir = *source
	}
	if isFlagSet(fs, "db") {
		cfg.Database = *dbPath
	}

	logger := newLogger(os.Stderr, *verbose)
	if err := runCollector(context.Background(), cfg, parseList(*datasets), logger); err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}
}

func list(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite database path (default from config)")
	configPath := fs.String("config", "", "path to YAML config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "collector list failed:", err)
		os.Exit(1)
	}
	if isFlagSet(fs, "db") {
		cfg.Database = *dbPath
	}

	if err := listDatasets(context.Background(), cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "collector list failed:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: collector <run|list> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "run options:")
	fmt.Fprintln(os.Stderr, "  -dataset     comma-separated dataset codes (required)")
	fmt.Fprintln(os.Stderr, "  -provider    provider id: file or graphql (default: file)")
	fmt.Fprintln(os.Stderr, "  -source      dataset directory for the file provider (default: data/datasets)")
	fmt.Fprintln(os.Stderr, "  -db          sqlite database path, empty disables persistence (default: statseries.db)")
	fmt.Fprintln(os.Stderr, "  -config      path to YAML config file")
	fmt.Fprintln(os.Stderr, "  -verbose     log each stored dataset")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "list options:")
	fmt.Fprintln(os.Stderr, "  -db          sqlite database path (default: statseries.db)")
	fmt.Fprintln(os.Stderr, "  -config      path to YAML config file")
}

func runCollector(ctx context.Context, cfg config.Config, datasetCodes []string, logger *slog.Logger) error {
	if len(datasetCodes) == 0 {
		return errors.New("no datasets provided")
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	st, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	success := 0
	failed := 0
	skipped := 0
	stored := 0

	for _, code := range datasetCodes {
		dataset, err := providers.FetchDataset(ctx, provider, code)
		if err != nil {
			if errors.Is(err, file.ErrNoRecords) || errors.Is(err, graphql.ErrNoRecords) {
				skipped++
				logger.Debug("skip no-records", slog.String("dataset", code))
				continue
			}
			failed++
			logger.Error("fetch failed", slog.String("dataset", code), slog.Any("error", err))
			continue
		}

		unparsed := 0
		for i := range dataset.Observations {
			period.Normalize(dataset.Observations[i].TimePeriod)
			if dataset.Observations[i].ISOPeriod() == "" {
				unparsed++
			}
		}
		if unparsed > 0 {
			logger.Warn("observations without a usable period", slog.String("dataset", dataset.Code), slog.Int("count", unparsed))
		}

		batchID, err := st.UpsertDataset(ctx, dataset)
		if err != nil {
			return fmt.Errorf("store %s: %w", dataset.Code, err)
		}
		success++
		stored += len(dataset.Observations)
		logger.Debug("stored dataset",
			slog.String("dataset", dataset.Code),
			slog.String("batch", batchID),
			slog.Int("dimensions", len(dataset.Dimensions)),
			slog.Int("observations", len(dataset.Observations)),
		)
	}

	fmt.Printf("collector run complete (provider=%s datasets=%d success=%d failed=%d observations=%s)\n",
		provider.Name(), len(datasetCodes), success, failed, humanize.Comma(int64(stored)),
	)
	if skipped > 0 {
		fmt.Printf("collector run skipped=%d\n", skipped)
	}
	if success == 0 && failed > 0 {
		return errors.New("no dataset could be fetched")
	}
	return nil
}

func listDatasets(ctx context.Context, cfg config.Config, out io.Writer) error {
	st, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListDatasets(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(out, "%s\t%s observations\tbatch=%s\tingested %s\n",
			info.Code, humanize.Comma(int64(info.ObservationCount)), info.BatchID, humanize.Time(info.IngestedAt),
		)
	}
	return nil
}

func buildProvider(cfg config.Config) (providers.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "file":
		return file.New(cfg.Source.Dir)
	case "graphql":
		gcfg, err := graphql.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		if cfg.Source.Endpoint != "" {
			gcfg.Endpoint = cfg.Source.Endpoint
		}
		if cfg.Source.APIKey != "" {
			gcfg.APIKey = cfg.Source.APIKey
		}
		if cfg.Source.RateLimitPerSec > 0 {
			gcfg.RateLimitPerSec = cfg.Source.RateLimitPerSec
		}
		if cfg.Source.TimeoutSeconds > 0 {
			gcfg.Timeout = cfg.Timeout()
		}
		return graphql.NewWithConfig(gcfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func openStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("component", "collector"))
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		trimmed := strings.ToUpper(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
