// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"strings"
	"testing"
)

func TestParseVerdictCurrentShape(t *testing.T) {
	text := `{"scores": {"factual_correctness": 8, "fact_coverage": 6, "specificity": 4}, "reasoning": {"facts_found": ["adds a cache", "cache is LRU", "fronts lookups"]}, "summary": "mostly right"}`

	v, err := parseVerdict(text)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.legacy {
		t.Error("legacy = true for current shape")
	}
	if v.factual != 8 || v.coverage != 6 || v.specificity != 4 {
		t.Errorf("sub-scores = %v/%v/%v, want 8/6/4", v.factual, v.coverage, v.specificity)
	}
	if v.specificityNA {
		t.Error("specificityNA = true for a numeric specificity")
	}
	if v.factsCovered != 3 {
		t.Errorf("factsCovered = %d, want len(facts_found) = 3", v.factsCovered)
	}
	if v.analysis != "mostly right" {
		t.Errorf("analysis = %q, want the summary text", v.analysis)
	}
}

// Some judge prompts emit a flat facts_covered count and an analysis field
// instead of reasoning/summary; both spellings must parse.
func TestParseVerdictFlatCountAndAnalysis(t *testing.T) {
	text := `{"scores": {"factual_correctness": 8, "fact_coverage": 6, "specificity": 4}, "facts_covered": 3, "analysis": "mostly right"}`

	v, err := parseVerdict(text)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.factsCovered != 3 {
		t.Errorf("factsCovered = %d, want 3", v.factsCovered)
	}
	if v.analysis != "mostly right" {
		t.Errorf("analysis = %q", v.analysis)
	}
}

// When both spellings appear, the enumerated facts_found list wins over the
// flat count, and summary wins over analysis.
func TestParseVerdictEnumeratedFactsWin(t *testing.T) {
	text := `{"scores": {"factual_correctness": 8, "fact_coverage": 6, "specificity": 4}, "reasoning": {"facts_found": ["a", "b"]}, "facts_covered": 9, "summary": "two facts", "analysis": "ignored"}`

	v, err := parseVerdict(text)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.factsCovered != 2 {
		t.Errorf("factsCovered = %d, want 2 (facts_found takes precedence)", v.factsCovered)
	}
	if v.analysis != "two facts" {
		t.Errorf("analysis = %q, want the summary text", v.analysis)
	}
}

func TestParseVerdictCodeFence(t *testing.T) {
	text := "```json\n{\"scores\": {\"factual_correctness\": 10, \"fact_coverage\": 10, \"specificity\": 10}, \"reasoning\": {\"facts_found\": [\"all of them\"]}, \"summary\": \"perfect\"}\n```"

	v, err := parseVerdict(text)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.factual != 10 || v.coverage != 10 || v.specificity != 10 {
		t.Errorf("sub-scores = %v/%v/%v, want 10/10/10", v.factual, v.coverage, v.specificity)
	}
}

func TestParseVerdictSurroundingProse(t *testing.T) {
	text := `Here is my evaluation:

{"scores": {"factual_correctness": 5, "fact_coverage": 5, "specificity": 5}, "reasoning": {"facts_found": ["one", "two"]}, "summary": "partial"}

Let me know if you need more detail.`

	v, err := parseVerdict(text)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.factual != 5 {
		t.Errorf("factual = %v, want 5", v.factual)
	}
}

func TestParseVerdictSpecificityNA(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"string N/A", `{"scores": {"factual_correctness": 10, "fact_coverage": 10, "specificity": "N/A"}, "reasoning": {"facts_found": ["a"]}, "summary": "x"}`},
		{"lowercase n/a", `{"scores": {"factual_correctness": 10, "fact_coverage": 10, "specificity": "n/a"}, "reasoning": {"facts_found": ["a"]}, "summary": "x"}`},
		{"null", `{"scores": {"factual_correctness": 10, "fact_coverage": 10, "specificity": null}, "reasoning": {"facts_found": ["a"]}, "summary": "x"}`},
		{"absent", `{"scores": {"factual_correctness": 10, "fact_coverage": 10}, "reasoning": {"facts_found": ["a"]}, "summary": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.text)
			if err != nil {
				t.Fatalf("parseVerdict: %v", err)
			}
			if !v.specificityNA {
				t.Error("specificityNA = false")
			}
			if v.specificity != 0 {
				t.Errorf("specificity = %v, want 0 when not applicable", v.specificity)
			}
		})
	}
}

func TestParseVerdictLegacyShape(t *testing.T) {
	v, err := parseVerdict(`{"score": 85, "analysis": "good answer"}`)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if !v.legacy {
		t.Fatal("legacy = false for legacy shape")
	}
	if v.legacyScore != 85 {
		t.Errorf("legacyScore = %v, want 85", v.legacyScore)
	}
	if v.analysis != "good answer" {
		t.Errorf("analysis = %q", v.analysis)
	}
}

func TestParseVerdictErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "no JSON at all",
			text:    "I cannot evaluate this answer.",
			wantErr: "no JSON object",
		},
		{
			name:    "neither shape",
			text:    `{"analysis": "no scores here"}`,
			wantErr: "neither scores nor score",
		},
		{
			name:    "missing factual correctness",
			text:    `{"scores": {"fact_coverage": 6, "specificity": 4}, "analysis": "x"}`,
			wantErr: "factual_correctness",
		},
		{
			name:    "missing fact coverage",
			text:    `{"scores": {"factual_correctness": 6, "specificity": 4}, "analysis": "x"}`,
			wantErr: "fact_coverage",
		},
		{
			name:    "specificity is a random string",
			text:    `{"scores": {"factual_correctness": 6, "fact_coverage": 6, "specificity": "high"}, "analysis": "x"}`,
			wantErr: "specificity",
		},
		{
			name:    "malformed JSON",
			text:    `{"scores": {`,
			wantErr: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseVerdict(tt.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, should contain %q", err, tt.wantErr)
			}
		})
	}
}
