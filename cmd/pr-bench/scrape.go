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

	"github.com/pdiddy/pr-bench/internal/githubapi"
	"github.com/pdiddy/pr-bench/internal/scrape"
	"github.com/pdiddy/pr-bench/pkg/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect filtered pull requests from the configured repositories",
	Long: `Scrape lists closed pull requests for each configured repository, newest
first, keeps the ones that pass the substance filters, and writes them to
per-repository output directories. Progress is checkpointed, so an
interrupted run resumes where it left off, and a repository that fails
does not stop the others.`,
	RunE: runScrape,
}

// repoSummary is one repository's line in the cross-repository summary file.
type repoSummary struct {
	Repo     string `json:"repo"`
	Fetched  int    `json:"fetched"`
	Checked  int    `json:"checked"`
	Included int    `json:"included"`
	Skipped  int    `json:"skipped"`
	Stopped  string `json:"stopped,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		cfg.Scraping.OutputDir = outputDir
	}
	if maxPRs, _ := cmd.Flags().GetInt("max-prs"); maxPRs > 0 {
		cfg.Scraping.MaxPRsPerRepo = maxPRs
	}
	if cfg.Scraping.OutputDir == "" {
		cfg.Scraping.OutputDir = "scraped"
	}

	targets := cfg.Repositories
	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		target, err := parseRepoArg(repo)
		if err != nil {
			return err
		}
		targets = target
	}
	if len(targets) == 0 {
		return fmt.Errorf("no repositories configured: add a repositories list to the config or pass --repo owner/name")
	}

	tokenEnv := cfg.GitHub.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "GITHUB_TOKEN"
	}
	token := secretDefault("github-token", os.Getenv(tokenEnv))

	client, err := githubapi.NewClient(cfg.GitHub, token, os.Stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var summaries []repoSummary
	failed := 0

	for _, target := range targets {
		if !target.IsEnabled() {
			continue
		}
		repo := target.Owner + "/" + target.Name
		fmt.Fprintf(os.Stdout, "scraping %s\n", repo)

		repoDir := filepath.Join(cfg.Scraping.OutputDir, target.Owner+"-"+target.Name)
		store, err := scrape.NewCheckpointStore(repoDir)
		if err != nil {
			return err
		}

		collector := scrape.NewCollector(client, cfg.Filters, cfg.Scraping, store, os.Stdout)
		accepted, summary, err := collector.Collect(ctx, target.Owner, target.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed  %s: %v\n", repo, err)
			failed++
			summaries = append(summaries, repoSummary{Repo: repo, Error: err.Error()})
			continue
		}

		fmt.Fprintf(os.Stdout, "done    %s: %d accepted\n", repo, len(accepted))
		summaries = append(summaries, repoSummary{
			Repo:     repo,
			Fetched:  summary.Fetched,
			Checked:  summary.Checked,
			Included: summary.Included,
			Skipped:  summary.Skipped,
			Stopped:  string(summary.Stopped),
		})
	}

	if err := writeScrapeSummary(cfg.Scraping.OutputDir, summaries); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d repositories failed", failed)
	}
	return nil
}

func parseRepoArg(repo string) ([]types.RepoTarget, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}
	return []types.RepoTarget{{Owner: owner, Name: name}}, nil
}

func writeScrapeSummary(outputDir string, summaries []repoSummary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	path := filepath.Join(outputDir, "summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func init() {
	scrapeCmd.Flags().String("output-dir", "", "base directory for per-repository output (overrides config)")
	scrapeCmd.Flags().Int("max-prs", 0, "target accepted pull requests per repository (overrides config)")
	scrapeCmd.Flags().String("repo", "", "scrape a single owner/name repository instead of the configured list")

	rootCmd.AddCommand(scrapeCmd)
}
