package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-chunk/config"
	"github.com/aluiziolira/go-scrape-chunk/models"
)

func TestCategoriesCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"categories"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Mashups", "/add-ons", "Worlds", "Textures", "/skins"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCreateWriter(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"csv", "json", "dual", "analytics"} {
		cfg := config.DefaultConfig()
		cfg.OutputFormat = format
		cfg.OutputFile = filepath.Join(dir, format, "products.csv")

		w, err := createWriter(cfg)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("%s close: %v", format, err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.OutputFormat = "xml"
	if _, err := createWriter(cfg); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestFormatCounts(t *testing.T) {
	got := formatCounts(map[string]int{"timeout": 2, "not_found": 1})
	if got != "(not_found=1 timeout=2)" {
		t.Fatalf("formatCounts = %q", got)
	}
}

func TestPrintSummaryTitle(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	result := &models.CrawlResult{RequestCount: 4, ErrorCount: 1, PageCount: 1}
	printSummary(cmd, "Crawl interrupted, partial results", result, time.Second, config.DefaultConfig(),
		map[string]interface{}{"written_records": int64(2)})

	got := out.String()
	if !strings.Contains(got, "Crawl interrupted") || strings.Contains(got, "Crawl complete") {
		t.Fatalf("summary title wrong:\n%s", got)
	}
	if !strings.Contains(got, "2 written") || !strings.Contains(got, "75.00%") {
		t.Fatalf("summary counts wrong:\n%s", got)
	}
}
