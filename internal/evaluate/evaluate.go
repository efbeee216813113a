// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"text/template"
	"time"

	"github.com/pdiddy/pr-bench/pkg/types"
)

// maxRawScore is the weighted-sum ceiling: 2*10 + 10 + 10.
const maxRawScore = 40

// Backend abstracts the Generative AI judge so tests can supply a mock.
// Evaluate sends one judging prompt and returns the raw model text.
type Backend interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
}

// BatchSummary holds counts from one evaluation run.
type BatchSummary struct {
	Scored  int
	Skipped int
	Failed  int
}

// Total returns the number of cases processed.
func (s BatchSummary) Total() int {
	return s.Scored + s.Skipped + s.Failed
}

// HasFailures reports whether any cases failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// timeNow is stubbed in tests so evaluation timestamps are reproducible.
var timeNow = time.Now

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the judge with exponential backoff.
func callWithRetry(ctx context.Context, backend Backend, prompt string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := backend.Evaluate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// aggregate turns a parsed verdict into an evaluation. The weighted sum
// doubles factual correctness; a not-applicable specificity contributes
// zero to the sum but is flagged so statistics can exclude it. A reported
// fact count above the supplied total is preserved and flagged, never
// clamped.
func aggregate(v verdict, totalFacts int) types.Evaluation {
	ev := types.Evaluation{
		Status:      types.EvalScored,
		Analysis:    v.analysis,
		TotalFacts:  totalFacts,
		EvaluatedAt: timeNow().UTC(),
	}

	if v.legacy {
		ev.Legacy = true
		ev.Score = v.legacyScore / 100
		ev.RawScore = ev.Score * maxRawScore
		return ev
	}

	ev.FactualCorrectness = v.factual
	ev.FactCoverage = v.coverage
	ev.Specificity = v.specificity
	ev.SpecificityNA = v.specificityNA
	ev.FactsCovered = v.factsCovered
	ev.FactsOverreported = v.factsCovered > totalFacts

	ev.RawScore = 2*v.factual + v.coverage + v.specificity
	ev.Score = ev.RawScore / maxRawScore
	return ev
}

// errorEvaluation records a failed judge call or unparseable response. The
// zero score is a placeholder: Status and Error mark it for exclusion from
// statistics.
func errorEvaluation(totalFacts int, err error) types.Evaluation {
	return types.Evaluation{
		Status:      types.EvalError,
		Error:       true,
		Analysis:    err.Error(),
		TotalFacts:  totalFacts,
		EvaluatedAt: timeNow().UTC(),
	}
}

// EvaluateAll scores every answered test case through the judge. Cases
// without a recorded answer are marked skipped; a failed judge call or an
// unparseable response yields an error evaluation for that case and the run
// continues. A case missing its question or ground truth aborts the run,
// since every later case would be judged against the same broken input
// file.
func EvaluateAll(ctx context.Context, backend Backend, tmpl *template.Template, cases []types.TestCase, cfg types.EvalConfig, w io.Writer) ([]types.EvaluatedCase, BatchSummary, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var summary BatchSummary
	results := make([]types.EvaluatedCase, 0, len(cases))

	for _, tc := range cases {
		if tc.Status != types.CaseCompleted || tc.SystemAnswer == "" {
			fmt.Fprintf(w, "skipped %s: no answer\n", tc.ID)
			summary.Skipped++
			results = append(results, types.EvaluatedCase{
				TestCase: tc,
				Evaluation: types.Evaluation{
					CaseID:      tc.ID,
					Status:      types.EvalSkipped,
					TotalFacts:  len(tc.Facts),
					EvaluatedAt: timeNow().UTC(),
				},
			})
			continue
		}

		if tc.Question == "" || tc.GroundTruth == "" {
			return nil, summary, fmt.Errorf("case %s: missing question or ground truth", tc.ID)
		}

		prompt, err := BuildPrompt(tmpl, tc)
		if err != nil {
			return nil, summary, err
		}

		ev := judgeCase(ctx, backend, prompt, len(tc.Facts), maxRetries)
		ev.CaseID = tc.ID
		if ev.Status == types.EvalError {
			fmt.Fprintf(w, "failed  %s: %s\n", tc.ID, ev.Analysis)
			summary.Failed++
		} else {
			fmt.Fprintf(w, "scored  %s: %.2f\n", tc.ID, ev.Score)
			summary.Scored++
		}
		results = append(results, types.EvaluatedCase{TestCase: tc, Evaluation: ev})
	}

	return results, summary, nil
}

// judgeCase runs one case through the judge and parses the verdict.
func judgeCase(ctx context.Context, backend Backend, prompt string, totalFacts, maxRetries int) types.Evaluation {
	text, err := callWithRetry(ctx, backend, prompt, maxRetries)
	if err != nil {
		return errorEvaluation(totalFacts, err)
	}

	v, err := parseVerdict(text)
	if err != nil {
		return errorEvaluation(totalFacts, err)
	}

	return aggregate(v, totalFacts)
}

// LoadCases reads a test case file (a JSON array of cases).
func LoadCases(path string) ([]types.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test cases %s: %w", path, err)
	}
	var cases []types.TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing test cases %s: %w", path, err)
	}
	return cases, nil
}

// WriteResults writes the evaluated cases as an indented JSON array.
func WriteResults(path string, results []types.EvaluatedCase) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
