// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for results index queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search over questions and analyses.
	Query string

	// Run filters by result file (file name minus the -results.json suffix).
	Run string

	// Repo filters by "owner/name" source repository.
	Repo string

	// Status filters by evaluation status (scored, skipped, error).
	Status string

	// Difficulty filters by case difficulty.
	Difficulty string

	// MinScore keeps only cases scoring at or above this value. Applies to
	// scored cases; combined with Status it narrows further.
	MinScore *float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Run == "" && q.Repo == "" && q.Status == "" &&
		q.Difficulty == "" && q.MinScore == nil
}

// QueryResult is one indexed case row.
type QueryResult struct {
	CaseID             string    `json:"case_id" yaml:"case_id"`
	Run                string    `json:"run" yaml:"run"`
	Repo               string    `json:"repo" yaml:"repo"`
	PR                 int       `json:"pr" yaml:"pr"`
	Difficulty         string    `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Status             string    `json:"status" yaml:"status"`
	Score              float64   `json:"score" yaml:"score"`
	RawScore           float64   `json:"raw_score" yaml:"raw_score"`
	FactualCorrectness float64   `json:"factual_correctness" yaml:"factual_correctness"`
	FactCoverage       float64   `json:"fact_coverage" yaml:"fact_coverage"`
	Specificity        float64   `json:"specificity" yaml:"specificity"`
	SpecificityNA      bool      `json:"specificity_na,omitempty" yaml:"specificity_na,omitempty"`
	FactsCovered       int       `json:"facts_covered" yaml:"facts_covered"`
	TotalFacts         int       `json:"total_facts" yaml:"total_facts"`
	Question           string    `json:"question" yaml:"question"`
	Analysis           string    `json:"analysis" yaml:"analysis"`
	EvaluatedAt        time.Time `json:"evaluated_at,omitempty" yaml:"evaluated_at,omitempty"`
}

// Retrieve queries the results index with optional full-text search and
// structured filters. Full-text queries are ranked by relevance; otherwise
// rows are sorted by run, then score descending.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.id, c.run, c.repo, c.pr, c.difficulty, c.status,
				c.score, c.raw_score, c.factual_correctness, c.fact_coverage,
				c.specificity, c.specificity_na, c.facts_covered, c.total_facts,
				c.question, c.analysis, c.evaluated_at
			FROM cases_fts
			JOIN cases c ON c.rowid = cases_fts.rowid
			WHERE cases_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.id, c.run, c.repo, c.pr, c.difficulty, c.status,
				c.score, c.raw_score, c.factual_correctness, c.fact_coverage,
				c.specificity, c.specificity_na, c.facts_covered, c.total_facts,
				c.question, c.analysis, c.evaluated_at
			FROM cases c
			WHERE 1=1`)
	}

	if opts.Run != "" {
		qb.WriteString(` AND c.run = ?`)
		args = append(args, opts.Run)
	}
	if opts.Repo != "" {
		qb.WriteString(` AND c.repo = ?`)
		args = append(args, opts.Repo)
	}
	if opts.Status != "" {
		qb.WriteString(` AND c.status = ?`)
		args = append(args, opts.Status)
	}
	if opts.Difficulty != "" {
		qb.WriteString(` AND c.difficulty = ?`)
		args = append(args, opts.Difficulty)
	}
	if opts.MinScore != nil {
		qb.WriteString(` AND c.status = 'scored' AND c.score >= ?`)
		args = append(args, *opts.MinScore)
	}

	if useFTS {
		qb.WriteString(` ORDER BY cases_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.run, c.score DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying results index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			specNA      int
			difficulty  sql.NullString
			question    sql.NullString
			analysis    sql.NullString
			evaluatedAt sql.NullString
		)

		if err := rows.Scan(
			&qr.CaseID, &qr.Run, &qr.Repo, &qr.PR, &difficulty, &qr.Status,
			&qr.Score, &qr.RawScore, &qr.FactualCorrectness, &qr.FactCoverage,
			&qr.Specificity, &specNA, &qr.FactsCovered, &qr.TotalFacts,
			&question, &analysis, &evaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.SpecificityNA = specNA != 0
		qr.Difficulty = difficulty.String
		qr.Question = question.String
		qr.Analysis = analysis.String
		if evaluatedAt.Valid && evaluatedAt.String != "" {
			if ts, err := time.Parse(time.RFC3339, evaluatedAt.String); err == nil {
				qr.EvaluatedAt = ts
			}
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}
