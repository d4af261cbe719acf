package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"pyfacts/internal/analyzer"
	"pyfacts/internal/config"
	"pyfacts/internal/core/errors"
	"pyfacts/internal/history"
	"pyfacts/internal/shared/observability"
	"pyfacts/internal/shared/util"
	"pyfacts/internal/watcher"
)

// Request is the stdin payload for single-file analysis.
type Request struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

// App wires the analyzer, the history store and the watcher together
// according to one loaded configuration.
type App struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer

	history       *history.Store
	limiter       *util.Limiter
	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Analyzer: analyzer.New(cfg.Analysis.DataLibs),
		limiter:  util.NewLimiter(cfg.Watch.EventsPerSec, cfg.Watch.EventBurst),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.history = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// HandleRequest reads one JSON request from r and returns the fact sheet.
// Malformed input or a missing file path is a request-level error; source
// that does not parse is not, it yields a degraded result.
func (a *App) HandleRequest(ctx context.Context, r io.Reader) (*analyzer.AnalysisResult, error) {
	var req Request
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid request payload")
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, errors.New(errors.CodeValidationError, "request is missing filePath")
	}

	return a.Analyzer.Analyze(ctx, req.FilePath, req.Content), nil
}

// RunScan walks the configured scan paths, analyzes every Python file with a
// bounded worker pool and returns results ordered by path. When the history
// store is enabled, the run's snapshots are persisted under one run id.
func (a *App) RunScan(ctx context.Context) ([]*analyzer.AnalysisResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.RunScan")
	defer span.End()

	files, err := a.collectFiles()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("scan.files", len(files)))
	slog.Info("scan started", "files", len(files), "workers", a.Config.Scan.Workers)

	results := a.analyzeAll(ctx, files)

	if a.history != nil {
		if err := a.recordRun(results); err != nil {
			slog.Warn("failed to persist scan snapshots", "error", err)
		}
	}

	return results, nil
}

// analyzeAll fans files out to a worker pool and keeps output in input order.
func (a *App) analyzeAll(ctx context.Context, files []string) []*analyzer.AnalysisResult {
	workers := a.Config.Scan.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	results := make([]*analyzer.AnalysisResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.analyzePath(ctx, files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// analyzePath reads one file from disk and analyzes it. An unreadable file
// still produces a degraded result so batch output stays positional.
func (a *App) analyzePath(ctx context.Context, path string) *analyzer.AnalysisResult {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read file", "path", path, "error", err)
		observability.FilesAnalyzedTotal.WithLabelValues(observability.OutcomeError).Inc()
		return analyzer.Degraded(path, fmt.Sprintf("read failed: %v", err))
	}
	return a.Analyzer.Analyze(ctx, path, string(content))
}

// collectFiles walks the scan paths and returns every Python source that the
// exclude globs do not drop, sorted by path.
func (a *App) collectFiles() ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Dirs))
	for _, p := range a.Config.Exclude.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Files))
	for _, p := range a.Config.Exclude.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		fileGlobs = append(fileGlobs, g)
	}

	seen := make(map[string]bool)
	var files []string

	for _, root := range a.Config.ScanPaths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !strings.HasSuffix(base, ".py") {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// RunWatch analyzes changed Python files as they settle and hands each batch
// to onResults. It blocks until ctx is cancelled.
func (a *App) RunWatch(ctx context.Context, onResults func([]*analyzer.AnalysisResult)) error {
	changes := make(chan []string, 8)

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) { changes <- paths },
	)
	if err != nil {
		return err
	}
	a.activeWatcher = w

	if err := w.Watch(a.Config.ScanPaths); err != nil {
		return err
	}
	slog.Info("watch started", "paths", a.Config.ScanPaths, "debounce", a.Config.Watch.Debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case paths := <-changes:
			if err := a.limiter.Wait(ctx, 1); err != nil {
				return err
			}

			sort.Strings(paths)
			results := make([]*analyzer.AnalysisResult, 0, len(paths))
			for _, path := range paths {
				if _, err := os.Stat(path); err != nil {
					// Removed between the event and now.
					continue
				}
				results = append(results, a.analyzePath(ctx, path))
			}
			if len(results) == 0 {
				continue
			}

			if a.history != nil {
				if err := a.recordRun(results); err != nil {
					slog.Warn("failed to persist watch snapshots", "error", err)
				}
			}
			if onResults != nil {
				onResults(results)
			}
		}
	}
}

// recordRun persists one run's snapshots under a fresh run id.
func (a *App) recordRun(results []*analyzer.AnalysisResult) error {
	runID := uuid.NewString()
	now := time.Now()

	snapshots := make([]history.Snapshot, 0, len(results))
	for _, res := range results {
		snapshots = append(snapshots, history.SnapshotOf(runID, now, res))
	}
	return a.history.Record(snapshots)
}

// RecentSnapshots returns up to limit history rows for one file, newest
// first. It fails when history is disabled in the configuration.
func (a *App) RecentSnapshots(path string, limit int) ([]history.Snapshot, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeNotSupported, "history is disabled; enable [history] in the config")
	}
	return a.history.Recent(path, limit)
}
