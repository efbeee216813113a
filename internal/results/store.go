// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results indexes evaluation result files into a SQLite database
// for querying and export across runs.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pr-bench/pkg/types"
)

const (
	indexDir      = "index"
	dbFile        = "pr-bench.db"
	resultsSuffix = "-results.json"
)

// Store manages the results index SQLite database. Result files live in
// resultsDir; the database and exports live in resultsDir/index/.
type Store struct {
	db         *sql.DB
	resultsDir string
	maxResults int
}

// NewStore opens or creates the results index at resultsDir/index/pr-bench.db,
// creating the schema if it does not exist.
func NewStore(resultsDir string, maxResults int) (*Store, error) {
	dbDir := filepath.Join(resultsDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		resultsDir: resultsDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			name TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cases (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run TEXT NOT NULL REFERENCES runs(name),
			repo TEXT,
			pr INTEGER,
			difficulty TEXT,
			question_type TEXT,
			scope TEXT,
			status TEXT NOT NULL,
			score REAL,
			raw_score REAL,
			factual_correctness REAL,
			fact_coverage REAL,
			specificity REAL,
			specificity_na INTEGER,
			facts_covered INTEGER,
			total_facts INTEGER,
			overreported INTEGER,
			legacy INTEGER,
			question TEXT,
			analysis TEXT,
			evaluated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_run ON cases(run)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_repo ON cases(repo)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='cases_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE cases_fts USING fts5(question, analysis, content=cases, content_rowid=rowid)`,
			`CREATE TRIGGER cases_ai AFTER INSERT ON cases BEGIN
				INSERT INTO cases_fts(rowid, question, analysis) VALUES (new.rowid, new.question, new.analysis);
			END`,
			`CREATE TRIGGER cases_ad AFTER DELETE ON cases BEGIN
				INSERT INTO cases_fts(cases_fts, rowid, question, analysis) VALUES('delete', old.rowid, old.question, old.analysis);
			END`,
			`CREATE TRIGGER cases_au AFTER UPDATE ON cases BEGIN
				INSERT INTO cases_fts(cases_fts, rowid, question, analysis) VALUES('delete', old.rowid, old.question, old.analysis);
				INSERT INTO cases_fts(rowid, question, analysis) VALUES (new.rowid, new.question, new.analysis);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of result files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads every result file (*-results.json) in the results directory
// and populates the index. Files unchanged since the last indexing are
// skipped; changed files replace their previous rows.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.resultsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading results directory %s: %w", s.resultsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), resultsSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		run := strings.TrimSuffix(entry.Name(), resultsSuffix)
		filePath := filepath.Join(s.resultsDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", run, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM runs WHERE name = ?`, run,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", run)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", run, err)
			summary.Failed++
			continue
		}

		var results []types.EvaluatedCase
		if err := json.Unmarshal(data, &results); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", run, err)
			summary.Failed++
			continue
		}

		if err := s.ingestRun(ctx, run, results, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", run, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d cases)\n", run, len(results))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d cases)\n", run, len(results))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestRun(ctx context.Context, run string, results []types.EvaluatedCase, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (name, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		run, modTime,
	); err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE run = ?`, run); err != nil {
			return fmt.Errorf("deleting old cases: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO cases (
			id, run, repo, pr, difficulty, question_type, scope, status,
			score, raw_score, factual_correctness, fact_coverage, specificity,
			specificity_na, facts_covered, total_facts, overreported, legacy,
			question, analysis, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		tc, ev := r.TestCase, r.Evaluation
		evaluatedAt := ""
		if !ev.EvaluatedAt.IsZero() {
			evaluatedAt = ev.EvaluatedAt.UTC().Format(time.RFC3339)
		}
		_, err := stmt.ExecContext(ctx,
			tc.ID, run, tc.Repo, tc.PR,
			tc.Metadata.Difficulty, tc.Metadata.Type, tc.Metadata.Scope,
			string(ev.Status),
			ev.Score, ev.RawScore, ev.FactualCorrectness, ev.FactCoverage, ev.Specificity,
			boolInt(ev.SpecificityNA), ev.FactsCovered, ev.TotalFacts,
			boolInt(ev.FactsOverreported), boolInt(ev.Legacy),
			tc.Question, ev.Analysis, evaluatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting case %s: %w", tc.ID, err)
		}
	}

	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
