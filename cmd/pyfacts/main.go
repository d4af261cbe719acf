package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pyfacts/internal/analyzer"
	"pyfacts/internal/app"
	"pyfacts/internal/config"
	"pyfacts/internal/output"
	"pyfacts/internal/shared/observability"
)

var (
	configPath   = flag.String("config", "./pyfacts.toml", "Path to config file")
	scanPath     = flag.String("scan", "", "Scan a directory tree instead of reading a request from stdin")
	format       = flag.String("format", "json", "Output format for scan mode: json or tsv")
	watch        = flag.Bool("watch", false, "Re-analyze files as they change")
	recent       = flag.String("recent", "", "Print recent history snapshots for a file path")
	recentLimit  = flag.Int("recent-limit", 20, "Maximum snapshots to print with -recent")
	serveMetrics = flag.String("serve-metrics", "", "Expose Prometheus metrics and health on this address (e.g. :9090)")
	otlpEndpoint = flag.String("otlp", "", "OTLP gRPC endpoint for traces (overrides config)")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pyfacts v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "./pyfacts.toml" {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		// Default path is optional; fall back to built-in defaults.
		cfg = config.Defaults()
	}

	if *scanPath != "" {
		cfg.ScanPaths = []string{*scanPath}
	}
	if *otlpEndpoint != "" {
		cfg.Observability.OTLPEndpoint = *otlpEndpoint
	}
	if *format != "json" && *format != "tsv" {
		fmt.Fprintf(os.Stderr, "unknown format %q, expected json or tsv\n", *format)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Warn("failed to initialize tracing", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}()
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if *serveMetrics != "" {
		srv := observability.NewServer(*serveMetrics, nil)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				slog.Warn("failed to stop metrics server", "error", err)
			}
		}()
	}

	switch {
	case *recent != "":
		runRecent(a)
	case *watch:
		runWatch(ctx, a)
	case *scanPath != "":
		runScan(ctx, a)
	default:
		runRequest(ctx, a)
	}
}

// runRecent prints the history rows for one file, newest first.
func runRecent(a *app.App) {
	snapshots, err := a.RecentSnapshots(*recent, *recentLimit)
	if err != nil {
		slog.Error("failed to read history", "path", *recent, "error", err)
		os.Exit(1)
	}
	if err := output.WriteSnapshots(os.Stdout, snapshots); err != nil {
		slog.Error("failed to write snapshots", "error", err)
		os.Exit(1)
	}
}

// runRequest handles the default mode: one JSON request on stdin, one fact
// sheet on stdout. Unparseable Python is a degraded result and still exits 0;
// only a malformed request is a failure.
func runRequest(ctx context.Context, a *app.App) {
	res, err := a.HandleRequest(ctx, os.Stdin)
	if err != nil {
		if werr := output.WriteError(os.Stdout, err.Error()); werr != nil {
			slog.Error("failed to write error payload", "error", werr)
		}
		os.Exit(1)
	}

	if err := output.WriteResult(os.Stdout, res); err != nil {
		slog.Error("failed to write result", "error", err)
		os.Exit(1)
	}
}

func runScan(ctx context.Context, a *app.App) {
	results, err := a.RunScan(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	switch *format {
	case "tsv":
		fmt.Print(output.GenerateTSV(results))
	default:
		if err := output.WriteBatch(os.Stdout, results); err != nil {
			slog.Error("failed to write results", "error", err)
			os.Exit(1)
		}
	}
}

func runWatch(ctx context.Context, a *app.App) {
	err := a.RunWatch(ctx, func(results []*analyzer.AnalysisResult) {
		if *format == "tsv" {
			fmt.Print(output.GenerateTSV(results))
			return
		}
		if err := output.WriteBatch(os.Stdout, results); err != nil {
			slog.Error("failed to write results", "error", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("watch failed", "error", err)
		os.Exit(1)
	}
}
