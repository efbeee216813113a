// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores system answers against ground truth using an AI
// judge, and aggregates the judge's sub-scores into a normalized score.
package evaluate

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/pdiddy/pr-bench/pkg/types"
)

// defaultPromptTmpl is the judging prompt sent to the Claude API for each
// answered test case. It instructs the model to score the answer on three
// axes and respond with bare JSON.
var defaultPromptTmpl = template.Must(template.New("judge").Parse(`You are an expert evaluator of answers to questions about code changes in a software repository. Score the candidate answer against the reference answer and the list of key facts.

Question:
{{.Question}}

Reference answer:
{{.GroundTruth}}

Key facts a correct answer should cover ({{.TotalFacts}} total):
{{.Facts}}

Candidate answer:
{{.Answer}}

Score the candidate answer on three axes, each an integer from 0 to 10:
- factual_correctness: are the statements in the answer accurate with respect to the reference? 10 means no errors, 0 means entirely wrong.
- fact_coverage: how many of the key facts does the answer cover? 10 means all of them, 0 means none.
- specificity: does the answer name concrete files, functions, and values rather than generalities? If the question does not call for specifics, use "N/A".

Also list, in reasoning.facts_found, each key fact the answer covers, and give a one-paragraph summary of your judgment.

Respond with a JSON object and no other text:
{"scores": {"factual_correctness": 0-10, "fact_coverage": 0-10, "specificity": 0-10 or "N/A"}, "reasoning": {"facts_found": ["..."]}, "summary": "..."}
`))

// promptData is the template input for one test case.
type promptData struct {
	Question    string
	GroundTruth string
	Facts       string
	Answer      string
	TotalFacts  int
}

// LoadPromptTemplate parses a custom judging prompt from path, or returns
// the built-in prompt when path is empty. Custom prompts use the same
// template fields as the built-in one.
func LoadPromptTemplate(path string) (*template.Template, error) {
	if path == "" {
		return defaultPromptTmpl, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file %s: %w", path, err)
	}
	tmpl, err := template.New("judge").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt file %s: %w", path, err)
	}
	return tmpl, nil
}

// BuildPrompt renders the judging prompt for one test case. Facts are
// presented as a numbered list so the judge can report coverage by count.
func BuildPrompt(tmpl *template.Template, tc types.TestCase) (string, error) {
	var facts strings.Builder
	for i, f := range tc.Facts {
		fmt.Fprintf(&facts, "%d. %s\n", i+1, f)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Question:    tc.Question,
		GroundTruth: tc.GroundTruth,
		Facts:       strings.TrimRight(facts.String(), "\n"),
		Answer:      tc.SystemAnswer,
		TotalFacts:  len(tc.Facts),
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt for case %s: %w", tc.ID, err)
	}
	return buf.String(), nil
}
