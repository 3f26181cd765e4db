package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"book-crawler/pkg/config"
	"book-crawler/pkg/crawler"
	"book-crawler/pkg/download"
	"book-crawler/pkg/fetch"
	"book-crawler/pkg/manifest"
	"book-crawler/pkg/models"
)

const version = "1.0.0"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel) // Default level

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "crawl":
		runCrawl(os.Args[2:], log)
	case "validate":
		runValidate(os.Args[2:], log)
	case "version":
		fmt.Printf("book-crawler %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: book-crawler <command> [flags]

Commands:
  crawl     Crawl a catalog category: download texts, covers, write the manifest
  validate  Load and validate a config file, then exit
  version   Print the version

Run 'book-crawler <command> -h' for command flags.
`)
}

func runCrawl(args []string, log *logrus.Logger) {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	// Flags override values from the config file; defaults meaning "not set"
	// keep the file's value.
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	category := fs.String("category", "", "Category base URL to crawl")
	startPage := fs.Int("start-page", 0, "First listing page (default 1)")
	endPage := fs.Int("end-page", -1, "Last listing page inclusive (0 = discover from the site)")
	skipText := fs.Bool("skip-txt", false, "Do not download book texts")
	skipCovers := fs.Bool("skip-covers", false, "Do not download cover images")
	dest := fs.String("dest", "", "Destination directory (must exist)")
	manifestPath := fs.String("manifest", "", "Manifest output path")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus metrics listen address (empty to disable)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	fs.Parse(args)

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevel, err)
	} else {
		log.SetLevel(level)
	}

	// --- Load & Validate Configuration ---
	appCfg := loadConfig(*configFile, log)
	if *category != "" {
		appCfg.CategoryURL = *category
	}
	if *startPage > 0 {
		appCfg.StartPage = *startPage
	}
	if *endPage >= 0 {
		appCfg.EndPage = *endPage
	}
	if *skipText {
		appCfg.SkipText = true
	}
	if *skipCovers {
		appCfg.SkipCovers = true
	}
	if *dest != "" {
		appCfg.DestDir = *dest
	}
	if *manifestPath != "" {
		appCfg.ManifestPath = *manifestPath
	}
	if *metricsAddr != "" {
		appCfg.MetricsAddr = *metricsAddr
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Infof("Config: Category:%s, Pages:%d..%d, Dest:%s, Manifest:%s",
		appCfg.CategoryURL, appCfg.StartPage, appCfg.EndPage, appCfg.DestDir, appCfg.ManifestPath)
	log.Infof("Config: SkipText:%t, SkipCovers:%t, RobotsTxt:%t, RetryDelay:%v",
		appCfg.SkipText, appCfg.SkipCovers, appCfg.RespectRobotsTxt, appCfg.ConnectRetryDelay)

	// --- Setup Global Context & Signal Handling ---
	crawlCtx, cancelCrawl := context.WithCancel(context.Background())
	defer cancelCrawl()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelCrawl()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// --- Initialize Components ---
	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, appCfg.UserAgent, appCfg.MaxPageSizeBytes, log)

	var robots *fetch.RobotsGate
	if appCfg.RespectRobotsTxt {
		robots = fetch.NewRobotsGate(httpClient, appCfg.UserAgent, log)
	}

	downloader := download.NewDownloader(fetcher,
		filepath.Join(appCfg.DestDir, appCfg.BooksSubdir),
		filepath.Join(appCfg.DestDir, appCfg.CoversSubdir),
		log)

	books := manifest.New()
	metrics := crawler.NewMetrics()

	// --- Metrics Endpoint (Optional) ---
	if appCfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			log.Infof("Serving Prometheus metrics on http://%s/metrics", appCfg.MetricsAddr)
			if serveErr := http.ListenAndServe(appCfg.MetricsAddr, mux); serveErr != nil {
				log.Errorf("Metrics server failed: %v", serveErr)
			}
		}()
	}

	// --- Run ---
	c := crawler.New(appCfg, fetcher, robots, downloader, books, metrics, log)
	result, runErr := c.Run(crawlCtx)

	// The manifest covers every book completed before the run ended, so it is
	// written even after cancellation or a fatal error mid-crawl.
	manifestFile := appCfg.ManifestPath
	if !filepath.IsAbs(manifestFile) {
		manifestFile = filepath.Join(appCfg.DestDir, manifestFile)
	}
	if writeErr := books.WriteFile(manifestFile); writeErr != nil {
		log.Errorf("Failed to write manifest: %v", writeErr)
	} else {
		log.Infof("Manifest written to %s (%d books)", manifestFile, books.Len())
	}

	logResult(result, log)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warn("Crawl cancelled gracefully.")
			os.Exit(0)
		}
		log.Errorf("Crawl finished with error: %v", runErr)
		os.Exit(1)
	}
	log.Info("Crawl completed successfully.")
}

func runValidate(args []string, log *logrus.Logger) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to YAML config file")
	fs.Parse(args)

	appCfg := loadConfig(*configFile, log)
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Infof("Config '%s' is valid (%d warnings)", *configFile, len(warnings))
}

// loadConfig reads and parses the YAML config file. An empty path returns a
// zero config so the crawl can be driven entirely by flags.
func loadConfig(path string, log *logrus.Logger) *config.AppConfig {
	var appCfg config.AppConfig
	if path == "" {
		return &appCfg
	}
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Read config file '%s' error: %v", path, err)
	}
	if err := yaml.Unmarshal(yamlFile, &appCfg); err != nil {
		log.Fatalf("Parse config file '%s' error: %v", path, err)
	}
	return &appCfg
}

func logResult(result *models.CrawlResult, log *logrus.Logger) {
	log.Infof("Run summary: Pages:%d, LastPage:%d, Saved:%d, Skipped:%d, Retries:%d, Duration:%v",
		result.PagesCrawled, result.LastPage, result.BooksSaved, result.BooksSkipped,
		result.RetryCount, result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	for category, count := range result.ErrorsByType {
		log.Infof("Errors[%s]: %d", category, count)
	}
}
