package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-chunk/config"
	"github.com/aluiziolira/go-scrape-chunk/models"
	"github.com/aluiziolira/go-scrape-chunk/pipeline"
	"github.com/aluiziolira/go-scrape-chunk/scraper"
)

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	labels := make([]string, 0, len(s.Categories()))
	for _, c := range s.Categories() {
		labels = append(labels, c.Label())
	}
	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.String("categories", strings.Join(labels, ",")),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Int("workers", cfg.Parallelism),
		slog.String("format", cfg.OutputFormat),
	)

	writer, err := createWriter(cfg)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(cfg.Parallelism)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	startTime := time.Now()
	result, runErr := s.Run(ctx, p)
	if err := p.Close(); err != nil {
		return fmt.Errorf("pipeline shutdown: %w", err)
	}
	interrupted := errors.Is(runErr, scraper.ErrInterrupted)
	if runErr != nil && !interrupted {
		return fmt.Errorf("crawl failed: %w", runErr)
	}

	if err := writer.Validate(); err != nil {
		slog.Warn("output validation failed", slog.Any("error", err))
	}

	title := "Crawl complete"
	if interrupted {
		title = "Crawl interrupted, partial results"
	}
	printSummary(cmd, title, result, time.Since(startTime), cfg, p.GetMetrics())
	return runErr
}

func createWriter(cfg *config.Config) (pipeline.OutputWriter, error) {
	switch cfg.OutputFormat {
	case "json":
		return pipeline.NewJSONWriter(cfg.OutputFile)
	case "csv":
		return pipeline.NewCSVWriter(cfg.OutputFile)
	case "dual":
		jsonFilename := strings.TrimSuffix(cfg.OutputFile, filepath.Ext(cfg.OutputFile)) + ".jsonl"
		return pipeline.NewDualWriter(cfg.OutputFile, jsonFilename)
	case "analytics":
		return pipeline.NewAnalyticsWriter(cfg.OutputFile)
	case "mongo":
		return pipeline.NewMongoWriter(cfg.Mongo)
	default:
		return nil, fmt.Errorf("unsupported format: %s", cfg.OutputFormat)
	}
}

func printSummary(cmd *cobra.Command, title string, result *models.CrawlResult, duration time.Duration, cfg *config.Config, metrics map[string]interface{}) {
	out := cmd.OutOrStdout()
	separator := "--------------------------------------------------"
	fmt.Fprintln(out, "\n"+separator)
	fmt.Fprintln(out, title)

	written := int64(0)
	if n, ok := metrics["written_records"].(int64); ok {
		written = n
	}
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(written) / duration.Seconds()
	}

	fmt.Fprintf(out, "  Products:      %d written, %d discovered\n", written, result.ProductsDiscovered)
	fmt.Fprintf(out, "  Listing pages: %d %s\n", result.PageCount, formatCounts(result.PagesByCategory))
	fmt.Fprintf(out, "  Duplicates:    %d\n", result.DuplicateLinks)
	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Fprintf(out, "  Success rate:  %.2f%%\n", successRate)
	fmt.Fprintf(out, "  Errors:        %d\n", result.ErrorCount)
	fmt.Fprintf(out, "  Retries:       %d\n", result.RetryCount)
	fmt.Fprintf(out, "  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(out, "  Error types:   %s\n", formatCounts(result.ErrorsByType))
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Fprintf(out, "  Validation:    %s\n", formatCounts(valErrors))
	}
	fmt.Fprintf(out, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Items/sec:     %.2f\n", itemsPerSec)
	if cfg.OutputFormat == "mongo" {
		fmt.Fprintf(out, "  Output:        %s.%s\n", cfg.Mongo.Database, cfg.Mongo.Collection)
	} else {
		fmt.Fprintf(out, "  Output file:   %s\n", cfg.OutputFile)
	}
	fmt.Fprintln(out, separator)
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
