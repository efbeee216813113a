// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CaseStatus tracks the lifecycle of a test case through the pipeline.
type CaseStatus string

const (
	CasePending   CaseStatus = "pending"
	CaseCompleted CaseStatus = "completed"
	CaseError     CaseStatus = "error"
)

// CaseMetadata classifies a test case for statistics breakdowns.
type CaseMetadata struct {
	// Difficulty is easy, moderate, or hard.
	Difficulty string `json:"difficulty" yaml:"difficulty"`

	// Type is the question category (e.g. "implementation", "design").
	Type string `json:"type" yaml:"type"`

	// Scope is the breadth of the question (e.g. "single-file", "cross-module").
	Scope string `json:"scope" yaml:"scope"`
}

// TestCase is one generated question with its ground truth and, once the
// target system has answered, the answer to score.
type TestCase struct {
	// ID identifies the test case.
	ID string `json:"id" yaml:"id"`

	// Repo is the "owner/name" of the source repository.
	Repo string `json:"repo" yaml:"repo"`

	// PR is the source pull request number.
	PR int `json:"pr" yaml:"pr"`

	// Commit is the merge commit the question refers to.
	Commit string `json:"commit" yaml:"commit"`

	// Question is the generated question text.
	Question string `json:"question" yaml:"question"`

	// GroundTruth is the reference answer.
	GroundTruth string `json:"ground_truth" yaml:"ground_truth"`

	// Facts enumerates the discrete facts a correct answer should cover.
	Facts []string `json:"facts" yaml:"facts"`

	// SystemAnswer is the answer produced by the system under evaluation.
	SystemAnswer string `json:"system_answer" yaml:"system_answer"`

	// Status is pending until an answer is recorded.
	Status CaseStatus `json:"status" yaml:"status"`

	// Metadata classifies the case for breakdowns.
	Metadata CaseMetadata `json:"metadata" yaml:"metadata"`
}

// EvalStatus describes how an evaluation concluded.
type EvalStatus string

const (
	// EvalScored means the evaluator response parsed and produced a score.
	EvalScored EvalStatus = "scored"

	// EvalSkipped means the case had no answer to score.
	EvalSkipped EvalStatus = "skipped"

	// EvalError means the evaluator call failed or its response did not
	// parse. The zero score attached to such an evaluation is excluded
	// from statistics, never counted as a scored zero.
	EvalError EvalStatus = "error"
)

// Evaluation is the scored outcome for one test case. Raw sub-scores are on
// a 0-10 scale; Score is the weighted sum normalized to [0,1].
type Evaluation struct {
	// CaseID links back to the test case.
	CaseID string `json:"case_id" yaml:"case_id"`

	// Status is scored, skipped, or error.
	Status EvalStatus `json:"status" yaml:"status"`

	// Score is RawScore/40, in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// RawScore is 2*FactualCorrectness + FactCoverage + Specificity,
	// in [0,40]. Specificity counts as 0 when SpecificityNA is set.
	RawScore float64 `json:"raw_score" yaml:"raw_score"`

	// FactualCorrectness is the evaluator's 0-10 correctness sub-score.
	FactualCorrectness float64 `json:"factual_correctness" yaml:"factual_correctness"`

	// FactCoverage is the evaluator's 0-10 coverage sub-score.
	FactCoverage float64 `json:"fact_coverage" yaml:"fact_coverage"`

	// Specificity is the evaluator's 0-10 specificity sub-score, or 0 when
	// not applicable.
	Specificity float64 `json:"specificity" yaml:"specificity"`

	// SpecificityNA is set when the evaluator marked specificity as not
	// applicable. Distinct from a real zero: statistics exclude NA values
	// from specificity averages.
	SpecificityNA bool `json:"specificity_na" yaml:"specificity_na"`

	// FactsCovered is the number of facts the evaluator reported finding.
	FactsCovered int `json:"facts_covered" yaml:"facts_covered"`

	// TotalFacts is the number of facts supplied to the evaluator.
	TotalFacts int `json:"total_facts" yaml:"total_facts"`

	// FactsOverreported is set when FactsCovered exceeds TotalFacts. The
	// count is preserved rather than clamped so the data-quality issue
	// stays visible downstream.
	FactsOverreported bool `json:"facts_overreported,omitempty" yaml:"facts_overreported,omitempty"`

	// Analysis is the evaluator's free-text summary, or the parse/API
	// error message when Status is error.
	Analysis string `json:"analysis" yaml:"analysis"`

	// Legacy is set when the response used the old {score: 0..100} shape,
	// which carries no sub-scores.
	Legacy bool `json:"legacy,omitempty" yaml:"legacy,omitempty"`

	// Error mirrors Status == error for the result file schema.
	Error bool `json:"error,omitempty" yaml:"error,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at" yaml:"evaluated_at"`
}

// Excluded reports whether the evaluation is left out of aggregate
// statistics (errored or skipped cases).
func (e Evaluation) Excluded() bool {
	return e.Status == EvalSkipped || e.Status == EvalError
}

// EvaluatedCase pairs a test case with its evaluation in result files.
type EvaluatedCase struct {
	TestCase   TestCase   `json:"test_case" yaml:"test_case"`
	Evaluation Evaluation `json:"evaluation" yaml:"evaluation"`
}
