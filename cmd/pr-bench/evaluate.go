// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pr-bench/internal/evaluate"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <cases.json>",
	Short: "Score answered test cases with the AI judge",
	Long: `Evaluate reads a test case file, sends each answered case to the AI
judge, and writes a result file plus run statistics to the results
directory. Cases without an answer are skipped; a case whose judge call
fails is recorded with an error marker and the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}
	evalCfg := cfg.Evaluation

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		evalCfg.Model = model
	}
	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		evalCfg.OutputDir = outputDir
	}
	if promptFile, _ := cmd.Flags().GetString("prompt-file"); promptFile != "" {
		evalCfg.PromptFile = promptFile
	}
	if evalCfg.OutputDir == "" {
		evalCfg.OutputDir = "results"
	}
	evalCfg.APIKey = secretDefault("anthropic-api-key", evalCfg.APIKey)
	if evalCfg.APIKey == "" {
		evalCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	backend, err := evaluate.NewClaudeBackend(evalCfg)
	if err != nil {
		return err
	}
	tmpl, err := evaluate.LoadPromptTemplate(evalCfg.PromptFile)
	if err != nil {
		return err
	}

	casesPath := args[0]
	cases, err := evaluate.LoadCases(casesPath)
	if err != nil {
		return err
	}

	results, summary, err := evaluate.EvaluateAll(context.Background(), backend, tmpl, cases, evalCfg, os.Stdout)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(evalCfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	run := strings.TrimSuffix(filepath.Base(casesPath), ".json")
	resultsPath := filepath.Join(evalCfg.OutputDir, run+"-results.json")
	if err := evaluate.WriteResults(resultsPath, results); err != nil {
		return err
	}

	stats := evaluate.ComputeStats(results)
	statsPath := filepath.Join(evalCfg.OutputDir, run+"-stats.json")
	statsData, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := os.WriteFile(statsPath, statsData, 0o644); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nscored: %d, skipped: %d, failed: %d\n", summary.Scored, summary.Skipped, summary.Failed)
	fmt.Fprintf(os.Stdout, "mean score: %.3f\n", stats.MeanScore)
	fmt.Fprintf(os.Stdout, "results: %s\n", resultsPath)

	if summary.HasFailures() {
		return fmt.Errorf("%d case(s) failed evaluation", summary.Failed)
	}
	return nil
}

func init() {
	evaluateCmd.Flags().String("model", "", "AI model identifier for judging (overrides config)")
	evaluateCmd.Flags().String("output-dir", "", "directory for result files (overrides config)")
	evaluateCmd.Flags().String("prompt-file", "", "custom judging prompt template (overrides config)")

	rootCmd.AddCommand(evaluateCmd)
}
