// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// verdict is the parsed judge output before aggregation. Exactly one of the
// two response shapes produced it: the current sub-score shape, or the
// legacy single-score shape (legacy set).
type verdict struct {
	factual       float64
	coverage      float64
	specificity   float64
	specificityNA bool
	factsCovered  int
	analysis      string

	legacy      bool
	legacyScore float64
}

// rawScores is the "scores" object of the current response shape.
// Specificity stays raw because it is a number or the string "N/A".
type rawScores struct {
	FactualCorrectness *float64        `json:"factual_correctness"`
	FactCoverage       *float64        `json:"fact_coverage"`
	Specificity        json.RawMessage `json:"specificity"`
}

// rawReasoning is the judge's enumerated evidence. The covered-fact count
// is the length of facts_found, not a number the judge reports separately.
type rawReasoning struct {
	FactsFound []json.RawMessage `json:"facts_found"`
}

// rawResponse covers both response shapes; which one applies is decided
// once, by which top-level key is present.
type rawResponse struct {
	Scores    *rawScores    `json:"scores"`
	Score     *float64      `json:"score"`
	Reasoning *rawReasoning `json:"reasoning"`
	Summary   string        `json:"summary"`

	// Flat alternates some judge prompts emit instead of reasoning/summary.
	FactsCovered int    `json:"facts_covered"`
	Analysis     string `json:"analysis"`
}

// parseVerdict extracts and validates the judge's JSON from a raw model
// response. Responses wrapped in Markdown code fences or surrounded by
// prose are tolerated; a response with neither a "scores" object nor a
// legacy "score" field is an error.
func parseVerdict(text string) (verdict, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return verdict{}, err
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return verdict{}, fmt.Errorf("parsing judge response: %w", err)
	}

	switch {
	case raw.Scores != nil:
		s := raw.Scores
		if s.FactualCorrectness == nil {
			return verdict{}, fmt.Errorf("judge response missing factual_correctness")
		}
		if s.FactCoverage == nil {
			return verdict{}, fmt.Errorf("judge response missing fact_coverage")
		}
		spec, na, err := parseSpecificity(s.Specificity)
		if err != nil {
			return verdict{}, err
		}
		factsCovered := raw.FactsCovered
		if raw.Reasoning != nil {
			factsCovered = len(raw.Reasoning.FactsFound)
		}
		return verdict{
			factual:       *s.FactualCorrectness,
			coverage:      *s.FactCoverage,
			specificity:   spec,
			specificityNA: na,
			factsCovered:  factsCovered,
			analysis:      firstNonEmpty(raw.Summary, raw.Analysis),
		}, nil

	case raw.Score != nil:
		return verdict{
			legacy:      true,
			legacyScore: *raw.Score,
			analysis:    firstNonEmpty(raw.Summary, raw.Analysis),
		}, nil

	default:
		return verdict{}, fmt.Errorf("judge response has neither scores nor score")
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// parseSpecificity interprets the specificity value: a number is a score,
// "N/A" (or null, or absence) means not applicable.
func parseSpecificity(raw json.RawMessage) (float64, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, true, nil
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "n/a") {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("judge response specificity %q is neither a number nor N/A", s)
	}

	return 0, false, fmt.Errorf("judge response specificity %s is neither a number nor N/A", raw)
}

// extractJSON locates the JSON object inside a model response, stripping
// Markdown code fences and any surrounding prose.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in judge response")
	}
	return text[start : end+1], nil
}
