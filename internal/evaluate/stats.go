// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"github.com/pdiddy/pr-bench/pkg/types"
)

// Stats aggregates one evaluation run. Skipped and errored cases are
// counted but excluded from every mean; legacy single-score evaluations
// count toward the overall mean but carry no sub-scores, so they are
// excluded from the sub-score means.
type Stats struct {
	// Total is the number of cases in the run.
	Total int `json:"total" yaml:"total"`

	// Scored, Skipped, and Errored partition the cases by outcome.
	Scored  int `json:"scored" yaml:"scored"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Errored int `json:"errored" yaml:"errored"`

	// MeanScore is the mean normalized score over scored cases.
	MeanScore float64 `json:"mean_score" yaml:"mean_score"`

	// MeanFactualCorrectness, MeanFactCoverage, and MeanSpecificity are
	// sub-score means on the 0-10 scale. Specificity additionally excludes
	// cases the judge marked not applicable.
	MeanFactualCorrectness float64 `json:"mean_factual_correctness" yaml:"mean_factual_correctness"`
	MeanFactCoverage       float64 `json:"mean_fact_coverage" yaml:"mean_fact_coverage"`
	MeanSpecificity        float64 `json:"mean_specificity" yaml:"mean_specificity"`

	// SpecificityNA counts scored cases where specificity was not
	// applicable.
	SpecificityNA int `json:"specificity_na" yaml:"specificity_na"`

	// Legacy counts scored cases that used the old single-score response
	// shape.
	Legacy int `json:"legacy" yaml:"legacy"`

	// Overreported counts scored cases where the judge reported more facts
	// covered than were supplied.
	Overreported int `json:"overreported" yaml:"overreported"`

	// MeanScoreByDifficulty breaks the mean score down by case difficulty.
	MeanScoreByDifficulty map[string]float64 `json:"mean_score_by_difficulty,omitempty" yaml:"mean_score_by_difficulty,omitempty"`
}

// ComputeStats aggregates evaluated cases into run statistics.
func ComputeStats(results []types.EvaluatedCase) Stats {
	stats := Stats{Total: len(results)}

	var scoreSum, factualSum, coverageSum, specSum float64
	var subScored, specScored int
	diffSums := map[string]float64{}
	diffCounts := map[string]int{}

	for _, r := range results {
		ev := r.Evaluation
		if ev.Excluded() {
			if ev.Status == types.EvalSkipped {
				stats.Skipped++
			} else {
				stats.Errored++
			}
			continue
		}

		stats.Scored++
		scoreSum += ev.Score

		if d := r.TestCase.Metadata.Difficulty; d != "" {
			diffSums[d] += ev.Score
			diffCounts[d]++
		}

		if ev.FactsOverreported {
			stats.Overreported++
		}

		if ev.Legacy {
			stats.Legacy++
			continue
		}
		subScored++
		factualSum += ev.FactualCorrectness
		coverageSum += ev.FactCoverage
		if ev.SpecificityNA {
			stats.SpecificityNA++
		} else {
			specScored++
			specSum += ev.Specificity
		}
	}

	if stats.Scored > 0 {
		stats.MeanScore = scoreSum / float64(stats.Scored)
	}
	if subScored > 0 {
		stats.MeanFactualCorrectness = factualSum / float64(subScored)
		stats.MeanFactCoverage = coverageSum / float64(subScored)
	}
	if specScored > 0 {
		stats.MeanSpecificity = specSum / float64(specScored)
	}
	if len(diffSums) > 0 {
		stats.MeanScoreByDifficulty = make(map[string]float64, len(diffSums))
		for d, sum := range diffSums {
			stats.MeanScoreByDifficulty[d] = sum / float64(diffCounts[d])
		}
	}

	return stats
}
