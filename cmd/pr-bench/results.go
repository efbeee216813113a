// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pr-bench/internal/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage the results index (store, retrieve, export)",
	Long: `Results manages a local SQLite index built from evaluation result files.
Use subcommands to index runs, query scored cases, or export.`,
}

// --- store subcommand ---

var resultsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest evaluation result files into the results index",
	Long: `Store reads result files (*-results.json) from the results directory and
ingests them into a SQLite database with FTS5 indexing over questions and
analyses. Unchanged runs are skipped on subsequent runs.`,
	RunE: runResultsStore,
}

func runResultsStore(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d run(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var resultsRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the results index with full-text search and filters",
	Long: `Retrieve searches the results index using FTS5 full-text search over
questions and analyses, structured filters (run, repo, status, difficulty,
minimum score), or a combination of both.`,
	RunE: runResultsRetrieve,
}

func runResultsRetrieve(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := resultsQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --run, --repo, --status, --difficulty, or --min-score")
	}

	rows, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatResultsOutput(rows, jsonOutput)
}

func formatResultsOutput(rows []results.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-24s  %-20s  %-8s  %-6s  %s\n",
		"Rank", "Case", "Repo", "Status", "Score", "Question")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range rows {
		caseID := r.CaseID
		if len(caseID) > 24 {
			caseID = caseID[:21] + "..."
		}
		repo := r.Repo
		if len(repo) > 20 {
			repo = repo[:17] + "..."
		}
		question := r.Question
		if len(question) > 40 {
			question = question[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-24s  %-20s  %-8s  %-6.2f  %s\n",
			i+1, caseID, repo, r.Status, r.Score, question)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(rows))
	return nil
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the results index to YAML or JSON",
	Long: `Export writes the full results index (or a filtered subset) to
results/index/export.yaml or export.json. Supports the same filter flags
as retrieve for partial exports.`,
	RunE: runResultsExport,
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openResultsStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := resultsQueryOpts(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to results/index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to results/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openResultsStore(cmd *cobra.Command) (*results.Store, error) {
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	if resultsDir == "" {
		resultsDir = "results"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return results.NewStore(resultsDir, maxResults)
}

func resultsQueryOpts(cmd *cobra.Command, args []string) results.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	run, _ := cmd.Flags().GetString("run")
	repo, _ := cmd.Flags().GetString("repo")
	status, _ := cmd.Flags().GetString("status")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := results.QueryOptions{
		Query:      queryText,
		Run:        run,
		Repo:       repo,
		Status:     status,
		Difficulty: difficulty,
		MaxResults: limit,
	}
	if cmd.Flags().Changed("min-score") {
		min, _ := cmd.Flags().GetFloat64("min-score")
		opts.MinScore = &min
	}
	return opts
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	resultsCmd.PersistentFlags().String("results-dir", "results", "directory containing result files (index/ is created inside)")
	resultsCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	resultsRetrieveCmd.Flags().String("query", "", "full-text search query")
	resultsRetrieveCmd.Flags().String("run", "", "filter by run name")
	resultsRetrieveCmd.Flags().String("repo", "", "filter by owner/name repository")
	resultsRetrieveCmd.Flags().String("status", "", "filter by evaluation status: scored, skipped, error")
	resultsRetrieveCmd.Flags().String("difficulty", "", "filter by case difficulty")
	resultsRetrieveCmd.Flags().Float64("min-score", 0, "keep only scored cases at or above this score")
	resultsRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	resultsRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	resultsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	resultsExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	resultsExportCmd.Flags().String("run", "", "filter by run name for partial export")
	resultsExportCmd.Flags().String("repo", "", "filter by repository for partial export")
	resultsExportCmd.Flags().String("status", "", "filter by status for partial export")
	resultsExportCmd.Flags().String("difficulty", "", "filter by difficulty for partial export")
	resultsExportCmd.Flags().Float64("min-score", 0, "minimum score filter for partial export")
	resultsExportCmd.Flags().Int("limit", 0, "maximum cases to export (0 = all)")

	// Wire subcommands.
	resultsCmd.AddCommand(resultsStoreCmd)
	resultsCmd.AddCommand(resultsRetrieveCmd)
	resultsCmd.AddCommand(resultsExportCmd)

	rootCmd.AddCommand(resultsCmd)
}
