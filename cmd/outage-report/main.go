// Command outage-report reads a saved outage history (a JSON array in the NES
// feed format) and writes the area report as JSON or the history as CSV.
//
// Usage:
//
//	outage-report -i history.json -z 37206 -f csv -o outages.csv
//	outage-report -i history.json --resolve
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/couchcryptid/outage-insights-service/internal/adapter/nominatim"
	"github.com/couchcryptid/outage-insights-service/internal/config"
	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/geocache"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

type Options struct {
	Input   string `short:"i" long:"in" description:"History file path. Reads from stdin if empty"`
	Output  string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format  string `short:"f" long:"format" description:"Output format" choice:"json" choice:"csv" default:"json"`
	ZipCode string `short:"z" long:"zip" description:"Focus the report (or filter the CSV) on one zip code"`
	Resolve bool   `short:"r" long:"resolve" description:"Fill in missing zip codes before reporting"`
	Offline bool   `long:"offline" description:"With --resolve, skip reverse geocoding and use the nearest registered zip"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	domain.SetLocation(loc)

	in := io.Reader(os.Stdin)
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	history, err := readHistory(in)
	if err != nil {
		return err
	}

	registry := domain.DefaultRegistry()
	if opts.Resolve {
		resolver, err := newResolver(cfg, registry, opts.Offline, logger)
		if err != nil {
			return err
		}
		history = resolver.ResolveAll(ctx, history)
	}

	if opts.Output == "" {
		return write(os.Stdout, registry, history, opts)
	}
	return writeFile(opts.Output, registry, history, opts)
}

// writeFile writes the output to path, including any error from closing it.
func writeFile(path string, registry *domain.ZipRegistry, history []domain.OutageEvent, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f, registry, history, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func newResolver(cfg *config.Config, registry *domain.ZipRegistry, offline bool, logger *slog.Logger) (*domain.ZipResolver, error) {
	store, err := storage.New(cfg.StorageOptions(), logger)
	if err != nil {
		return nil, err
	}

	var geocoder domain.ZipGeocoder
	if cfg.GeocoderEnabled && !offline {
		client := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger, observability.NewMetrics())
		geocoder = nominatim.NewRateLimited(client, cfg.GeocoderRateLimit)
	}
	return domain.NewZipResolver(registry, geocoder, geocache.New(store, cfg.GeocodeCacheKey), logger), nil
}

func readHistory(r io.Reader) ([]domain.OutageEvent, error) {
	var history []domain.OutageEvent
	if err := json.NewDecoder(r).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

func write(w io.Writer, registry *domain.ZipRegistry, history []domain.OutageEvent, opts Options) error {
	if opts.Format == "csv" {
		if _, err := io.WriteString(w, registry.ToCSV(history, opts.ZipCode)+"\n"); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(registry.BuildReport(history, opts.ZipCode)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
