// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"testing"

	"github.com/pdiddy/pr-bench/pkg/types"
)

func scoredCase(difficulty string, ev types.Evaluation) types.EvaluatedCase {
	ev.Status = types.EvalScored
	return types.EvaluatedCase{
		TestCase:   types.TestCase{Metadata: types.CaseMetadata{Difficulty: difficulty}},
		Evaluation: ev,
	}
}

func TestComputeStatsMeans(t *testing.T) {
	results := []types.EvaluatedCase{
		scoredCase("easy", types.Evaluation{Score: 0.8, FactualCorrectness: 8, FactCoverage: 8, Specificity: 8}),
		scoredCase("hard", types.Evaluation{Score: 0.4, FactualCorrectness: 4, FactCoverage: 4, Specificity: 4}),
	}

	stats := ComputeStats(results)
	if stats.Total != 2 || stats.Scored != 2 {
		t.Errorf("Total = %d, Scored = %d", stats.Total, stats.Scored)
	}
	if !almostEqual(stats.MeanScore, 0.6) {
		t.Errorf("MeanScore = %v, want 0.6", stats.MeanScore)
	}
	if !almostEqual(stats.MeanFactualCorrectness, 6) || !almostEqual(stats.MeanFactCoverage, 6) || !almostEqual(stats.MeanSpecificity, 6) {
		t.Errorf("sub-score means = %v/%v/%v, want 6/6/6",
			stats.MeanFactualCorrectness, stats.MeanFactCoverage, stats.MeanSpecificity)
	}
	if !almostEqual(stats.MeanScoreByDifficulty["easy"], 0.8) || !almostEqual(stats.MeanScoreByDifficulty["hard"], 0.4) {
		t.Errorf("by difficulty = %v", stats.MeanScoreByDifficulty)
	}
}

func TestComputeStatsExcludesErroredAndSkipped(t *testing.T) {
	results := []types.EvaluatedCase{
		scoredCase("", types.Evaluation{Score: 1.0, FactualCorrectness: 10, FactCoverage: 10, Specificity: 10}),
		{Evaluation: types.Evaluation{Status: types.EvalError, Error: true}},
		{Evaluation: types.Evaluation{Status: types.EvalSkipped}},
	}

	stats := ComputeStats(results)
	if stats.Scored != 1 || stats.Errored != 1 || stats.Skipped != 1 {
		t.Errorf("partition = %d/%d/%d, want 1/1/1", stats.Scored, stats.Errored, stats.Skipped)
	}
	// The errored case's zero score must not drag the mean down.
	if !almostEqual(stats.MeanScore, 1.0) {
		t.Errorf("MeanScore = %v, want 1.0", stats.MeanScore)
	}
}

func TestComputeStatsSpecificityNAExcluded(t *testing.T) {
	results := []types.EvaluatedCase{
		scoredCase("", types.Evaluation{Score: 0.75, FactualCorrectness: 10, FactCoverage: 10, SpecificityNA: true}),
		scoredCase("", types.Evaluation{Score: 1.0, FactualCorrectness: 10, FactCoverage: 10, Specificity: 10}),
	}

	stats := ComputeStats(results)
	if stats.SpecificityNA != 1 {
		t.Errorf("SpecificityNA = %d, want 1", stats.SpecificityNA)
	}
	// Only the applicable case contributes; an NA zero would halve this.
	if !almostEqual(stats.MeanSpecificity, 10) {
		t.Errorf("MeanSpecificity = %v, want 10", stats.MeanSpecificity)
	}
}

func TestComputeStatsLegacyExcludedFromSubScores(t *testing.T) {
	results := []types.EvaluatedCase{
		scoredCase("", types.Evaluation{Score: 0.85, Legacy: true}),
		scoredCase("", types.Evaluation{Score: 0.5, FactualCorrectness: 5, FactCoverage: 5, Specificity: 5}),
	}

	stats := ComputeStats(results)
	if !almostEqual(stats.MeanScore, 0.675) {
		t.Errorf("MeanScore = %v, want 0.675 (legacy counts here)", stats.MeanScore)
	}
	if !almostEqual(stats.MeanFactualCorrectness, 5) {
		t.Errorf("MeanFactualCorrectness = %v, want 5 (legacy has no sub-scores)", stats.MeanFactualCorrectness)
	}
	if stats.Legacy != 1 {
		t.Errorf("Legacy = %d, want 1", stats.Legacy)
	}
}

func TestComputeStatsOverreportedCount(t *testing.T) {
	results := []types.EvaluatedCase{
		scoredCase("", types.Evaluation{Score: 0.9, FactsOverreported: true}),
		scoredCase("", types.Evaluation{Score: 0.9}),
	}

	stats := ComputeStats(results)
	if stats.Overreported != 1 {
		t.Errorf("Overreported = %d, want 1", stats.Overreported)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.Total != 0 || stats.MeanScore != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
	if stats.MeanScoreByDifficulty != nil {
		t.Errorf("MeanScoreByDifficulty = %v, want nil", stats.MeanScoreByDifficulty)
	}
}
