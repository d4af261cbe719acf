package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"pyfacts/internal/analyzer"
	"pyfacts/internal/shared/observability"
)

const driverName = "sqlite"

// Snapshot is one analyzed file's metric row within one run.
type Snapshot struct {
	RunID                string    `json:"run_id"`
	Path                 string    `json:"path"`
	Timestamp            time.Time `json:"timestamp"`
	Degraded             bool      `json:"degraded"`
	LinesOfCode          int       `json:"lines_of_code"`
	TotalLines           int       `json:"total_lines"`
	CommentLines         int       `json:"comment_lines"`
	FunctionCount        int       `json:"function_count"`
	ClassCount           int       `json:"class_count"`
	CyclomaticComplexity int       `json:"cyclomatic_complexity"`
	ImportCount          int       `json:"import_count"`
	QueryCount           int       `json:"query_count"`
	DataOpCount          int       `json:"data_op_count"`
}

// SnapshotOf summarizes an analysis result into a history row.
func SnapshotOf(runID string, ts time.Time, res *analyzer.AnalysisResult) Snapshot {
	m := res.ComplexityMetrics
	return Snapshot{
		RunID:                runID,
		Path:                 res.FilePath,
		Timestamp:            ts,
		Degraded:             res.Degraded(),
		LinesOfCode:          m.LinesOfCode,
		TotalLines:           m.TotalLines,
		CommentLines:         m.CommentLines,
		FunctionCount:        m.FunctionCount,
		ClassCount:           m.ClassCount,
		CyclomaticComplexity: m.CyclomaticComplexity,
		ImportCount:          m.ImportCount,
		QueryCount:           len(res.SQLQueries),
		DataOpCount:          len(res.DataOperations),
	}
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists the snapshots of one run in a single transaction.
func (s *Store) Record(snapshots []Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}

	query := `
INSERT INTO file_snapshots (
  run_id, path, ts_utc, degraded, lines_of_code, total_lines, comment_lines,
  function_count, class_count, cyclomatic_complexity, import_count,
  query_count, data_op_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
  ts_utc=excluded.ts_utc,
  degraded=excluded.degraded,
  lines_of_code=excluded.lines_of_code,
  total_lines=excluded.total_lines,
  comment_lines=excluded.comment_lines,
  function_count=excluded.function_count,
  class_count=excluded.class_count,
  cyclomatic_complexity=excluded.cyclomatic_complexity,
  import_count=excluded.import_count,
  query_count=excluded.query_count,
  data_op_count=excluded.data_op_count
`
	for _, snap := range snapshots {
		ts := snap.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		degraded := 0
		if snap.Degraded {
			degraded = 1
		}
		if _, err := tx.Exec(
			query,
			snap.RunID,
			snap.Path,
			ts.UTC().Format(time.RFC3339Nano),
			degraded,
			snap.LinesOfCode,
			snap.TotalLines,
			snap.CommentLines,
			snap.FunctionCount,
			snap.ClassCount,
			snap.CyclomaticComplexity,
			snap.ImportCount,
			snap.QueryCount,
			snap.DataOpCount,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert snapshot for %q: %w", snap.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot transaction: %w", err)
	}
	observability.SnapshotWritesTotal.Add(float64(len(snapshots)))
	return nil
}

// Recent returns up to limit snapshots for one file, newest first.
func (s *Store) Recent(path string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
SELECT
  run_id, path, ts_utc, degraded, lines_of_code, total_lines, comment_lines,
  function_count, class_count, cyclomatic_complexity, import_count,
  query_count, data_op_count
FROM file_snapshots
WHERE path = ?
ORDER BY ts_utc DESC
LIMIT ?
`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for %q: %w", path, err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap     Snapshot
			tsRaw    string
			degraded int
		)
		if err := rows.Scan(
			&snap.RunID,
			&snap.Path,
			&tsRaw,
			&degraded,
			&snap.LinesOfCode,
			&snap.TotalLines,
			&snap.CommentLines,
			&snap.FunctionCount,
			&snap.ClassCount,
			&snap.CyclomaticComplexity,
			&snap.ImportCount,
			&snap.QueryCount,
			&snap.DataOpCount,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Degraded = degraded != 0
		if ts, err := time.Parse(time.RFC3339Nano, tsRaw); err == nil {
			snap.Timestamp = ts
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
