package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-hys/config"
	"github.com/aluiziolira/go-scrape-hys/models"
	"github.com/aluiziolira/go-scrape-hys/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.DefaultConfig()

	if value, ok := config.EnvString("SCRAPER_DIR"); ok {
		cfg.TargetDir = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_SLEEP"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_SLEEP: %v\n", err)
		os.Exit(1)
	} else if ok {
		cfg.SleepTime = time.Duration(value) * time.Second
	}
	if value, ok, err := config.EnvBool("SCRAPER_NO_ATTACHMENTS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_NO_ATTACHMENTS: %v\n", err)
		os.Exit(1)
	} else if ok {
		cfg.DownloadAttachments = !value
	}
	if value, ok := config.EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	targetDir := flag.String("dir", cfg.TargetDir, "Directory to save outputs to (default: derived from the publication)")
	noAttachments := flag.Bool("no-attachments", !cfg.DownloadAttachments, "Skip downloading feedback attachments")
	sleepSeconds := flag.Int("sleep", int(cfg.SleepTime/time.Second), "Minimum seconds between consecutive HTTP requests")
	timeoutSeconds := flag.Int("timeout", int(cfg.Timeout/time.Second), "HTTP request timeout in seconds")
	maxRetries := flag.Int("max-retries", cfg.MaxRetries, "Maximum retry attempts per request")
	outputFormat := flag.String("format", cfg.OutputFormat, "Output format: csv, json, or dual")
	configPath := flag.String("config", "", "Path to a YAML config file")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] PUBLICATION_ID\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Scrape feedback and statistics for one 'Have your Say' publication.")
		fmt.Fprintln(os.Stderr, "PUBLICATION_ID is what follows 'p_id=' in the initiative's URL.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.PublicationID = flag.Arg(0)

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			slog.Error("loading config file", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Explicitly set flags win over env vars and the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.TargetDir = *targetDir
		case "no-attachments":
			cfg.DownloadAttachments = !*noAttachments
		case "sleep":
			cfg.SleepTime = time.Duration(*sleepSeconds) * time.Second
		case "timeout":
			cfg.Timeout = time.Duration(*timeoutSeconds) * time.Second
		case "max-retries":
			cfg.MaxRetries = *maxRetries
		case "format":
			cfg.OutputFormat = strings.ToLower(*outputFormat)
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	cfg.Verbose = *verbose

	s, err := scraper.New(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	var printer *progressPrinter
	if isTerminal(os.Stdout) && !cfg.Verbose {
		printer = &progressPrinter{}
		s.Progress = printer.update
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
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
	}

	slog.Info("starting scrape",
		slog.String("publication_id", cfg.PublicationID),
		slog.Duration("sleep", cfg.SleepTime),
		slog.Bool("attachments", cfg.DownloadAttachments),
	)

	result, err := s.Scrape(ctx)
	if printer != nil {
		printer.finish()
	}
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, s.TargetDir())
}

func printSummary(result *models.ScrapeResult, dir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Feedbacks:     %d\n", result.Feedbacks.Len())
	fmt.Printf("  Pages:         %d\n", result.PageCount)
	fmt.Printf("  Countries:     %d\n", result.Countries.Len())
	fmt.Printf("  Categories:    %d\n", result.Categories.Len())
	if result.Attachments != nil {
		fmt.Printf("  Attachments:   %d (%d skipped)\n", result.Attachments.Len(), result.SkippedAttachments)
	}
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output dir:    %s\n", dir)
	fmt.Println(separator)
}

// progressPrinter rewrites a single console line per stage, moving to a
// fresh line when the stage changes.
type progressPrinter struct {
	stage  string
	maxLen int
}

func (p *progressPrinter) update(stage string, current, total int) {
	if p.stage != "" && stage != p.stage {
		fmt.Println()
		p.maxLen = 0
	}
	p.stage = stage

	line := fmt.Sprintf("Scraping %s: [%d of %d]", stage, current, total)
	if len(line) > p.maxLen {
		p.maxLen = len(line)
	}
	fmt.Printf("\r%-*s", p.maxLen, line)
}

func (p *progressPrinter) finish() {
	if p.stage != "" {
		fmt.Println()
	}
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
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
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
