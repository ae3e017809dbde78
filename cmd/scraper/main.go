package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-chunk/catalog"
	"github.com/aluiziolira/go-scrape-chunk/config"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootCmd crawls by default; "crawl" is an explicit alias.
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "marketcrawl",
		Short: "Crawl the chunk.gg marketplace into product records",
		Long: `Walk the marketplace category listings, fetch every product page once
and write one normalized record per product.

Settings come from defaults, an optional marketcrawl.yaml, MARKETCRAWL_*
environment variables and flags, in increasing priority.`,
		SilenceUsage: true,
		RunE:         runCrawl,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	addCrawlFlags(root)

	crawl := &cobra.Command{
		Use:          "crawl",
		Short:        "Crawl the selected categories (default command)",
		SilenceUsage: true,
		RunE:         runCrawl,
	}
	addCrawlFlags(crawl)

	root.AddCommand(crawl, categoriesCmd())
	return root
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories accepted by --categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, c := range catalog.All() {
				fmt.Fprintf(out, "%-10s %s\n", c.Label(), c.Path())
			}
			return nil
		},
	}
}

// addCrawlFlags registers one flag per setting. Flag names match the
// settings keys so config.Load can bind them by name.
func addCrawlFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()

	f.String("base-url", d.BaseURL, "marketplace root URL")
	f.String("categories", d.Categories, "comma-separated category filter (empty crawls all)")
	f.IntP("max-pages", "p", d.MaxPages, "maximum listing pages per category")
	f.IntP("parallelism", "n", d.Parallelism, "number of concurrent requests")
	f.Duration("delay", d.Delay, "delay between requests")
	f.Duration("random-delay", d.RandomDelay, "random jitter added to delay")
	f.Duration("timeout", d.Timeout, "per-request timeout")
	f.Int("max-retries", d.MaxRetries, "maximum retry attempts per URL")
	f.Duration("retry-backoff", d.RetryBackoff, "initial retry backoff")
	f.Duration("retry-backoff-max", d.RetryBackoffMax, "maximum retry backoff")
	f.Bool("respect-robots", d.RespectRobotsTxt, "respect robots.txt directives")
	f.String("user-agent", d.UserAgent, "User-Agent header")
	f.StringP("output", "o", d.OutputFile, "output file path")
	f.StringP("format", "f", d.OutputFormat, "output format: csv, json, dual, analytics or mongo")
	f.Int("buffer-size", d.PipelineBufferSize, "pipeline queue size")
	f.Int("batch-size", d.BatchSize, "records per writer batch")
	f.Int("dedupe-max-size", d.DedupeMaxSize, "product URLs remembered for output de-duplication")
	f.String("metrics-addr", d.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	f.String("mongo-uri", d.Mongo.URI, "MongoDB connection URI")
	f.String("mongo-database", d.Mongo.Database, "MongoDB database")
	f.String("mongo-collection", d.Mongo.Collection, "MongoDB collection")
	f.BoolP("verbose", "v", d.Verbose, "enable verbose logging")
}
