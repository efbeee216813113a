// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pr-bench/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GitHubConfig holds settings for the GitHub API client.
type GitHubConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIBaseURL is the REST API root (default "https://api.github.com").
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url"`

	// TokenEnv names the environment variable holding the access token
	// (default "GITHUB_TOKEN"). A token from .secrets/github-token takes
	// precedence when present.
	TokenEnv string `json:"token_env" yaml:"token_env"`

	// RateLimitBuffer is the number of remaining API calls below which the
	// client waits for the quota window to reset (default 100).
	RateLimitBuffer int `json:"rate_limit_buffer" yaml:"rate_limit_buffer"`
}

// FilterConfig holds the pull request acceptance criteria. Loaded once per
// run and read-only thereafter.
type FilterConfig struct {
	// MergedOnly rejects pull requests without a merge timestamp.
	MergedOnly bool `json:"merged_only" yaml:"merged_only"`

	// CreatedBefore, when non-zero, rejects pull requests created on or
	// after this cutoff.
	CreatedBefore time.Time `json:"created_before,omitempty" yaml:"created_before,omitempty"`

	// MaxAgeMonths, when non-nil, rejects pull requests merged more than
	// this many months (30-day months) ago. Hitting this bound also stops
	// the scan: the listing is sorted by creation date descending, so every
	// later candidate is older still.
	MaxAgeMonths *int `json:"max_age_months,omitempty" yaml:"max_age_months,omitempty"`

	// MinFilesChanged is the inclusive lower bound on changed file count.
	MinFilesChanged int `json:"min_files_changed" yaml:"min_files_changed"`

	// MaxFilesChanged is the inclusive upper bound on changed file count.
	MaxFilesChanged int `json:"max_files_changed" yaml:"max_files_changed"`

	// RequireDescription rejects pull requests whose body is shorter than
	// MinDescriptionLength.
	RequireDescription bool `json:"require_description" yaml:"require_description"`

	// MinDescriptionLength is the minimum body length in bytes.
	MinDescriptionLength int `json:"min_description_length" yaml:"min_description_length"`

	// ExcludePatterns lists glob patterns for files that do not count as
	// substantive changes (e.g. "*.md", "docs/*").
	ExcludePatterns []string `json:"exclude_patterns" yaml:"exclude_patterns"`

	// State is the listing state requested from the API (default "closed").
	State string `json:"state" yaml:"state"`
}

// ScrapeConfig holds settings for the collection stage.
type ScrapeConfig struct {
	// MaxPRsPerRepo is the target number of accepted pull requests per
	// repository.
	MaxPRsPerRepo int `json:"max_prs_per_repo" yaml:"max_prs_per_repo"`

	// PerPage is the listing page size (default 100).
	PerPage int `json:"per_page" yaml:"per_page"`

	// CheckpointInterval is the number of accepted pull requests between
	// periodic checkpoint writes (default 5).
	CheckpointInterval int `json:"checkpoint_interval" yaml:"checkpoint_interval"`

	// MaxPRsToCheck caps the number of candidates examined per repository,
	// bounding scans of inactive repositories (default 500).
	MaxPRsToCheck int `json:"max_prs_to_check" yaml:"max_prs_to_check"`

	// OutputDir is the base directory for per-repository output
	// (checkpoint.json, prs.json) and the cross-repository summary.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// RepoTarget identifies one repository to scrape.
type RepoTarget struct {
	// Owner is the repository owner login.
	Owner string `json:"owner" yaml:"owner"`

	// Name is the repository name.
	Name string `json:"name" yaml:"name"`

	// Enabled controls whether the repository is scraped (default true).
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the target should be scraped. A nil Enabled
// field counts as enabled.
func (r RepoTarget) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-haiku-4-5").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EvalConfig holds settings for the answer evaluation stage.
type EvalConfig struct {
	AIConfig `yaml:",inline"`

	// MaxTokens bounds the evaluator response length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// PromptFile is the path to the evaluation prompt template.
	PromptFile string `json:"prompt_file" yaml:"prompt_file"`

	// OutputDir is the directory for result files (default "results").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	GitHub       GitHubConfig `json:"github" yaml:"github"`
	Filters      FilterConfig `json:"pr_filters" yaml:"pr_filters"`
	Scraping     ScrapeConfig `json:"scraping" yaml:"scraping"`
	Evaluation   EvalConfig   `json:"evaluation" yaml:"evaluation"`
	Repositories []RepoTarget `json:"repositories" yaml:"repositories"`
}
