// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape collects pull requests from a hosting API, filters them
// through a configurable predicate chain, and persists resumable progress
// checkpoints.
package scrape

import (
	"strings"
	"time"

	"github.com/pdiddy/pr-bench/pkg/types"
)

// Reason codes for rejected pull requests. The vocabulary is fixed; reasons
// appear in logs and summaries, never in control flow (see Outcome.Control).
type Reason string

const (
	ReasonNotMerged               Reason = "not_merged"
	ReasonCreatedTooLate          Reason = "created_too_late"
	ReasonTooOld                  Reason = "too_old"
	ReasonTooFewFiles             Reason = "too_few_files"
	ReasonTooManyFiles            Reason = "too_many_files"
	ReasonInsufficientDescription Reason = "insufficient_description"
	ReasonOnlyExcludedFileTypes   Reason = "only_excluded_file_types"
	ReasonTrivialChanges          Reason = "trivial_changes"
)

// Control tells the collector whether the scan may proceed past this
// candidate. It is carried separately from the rejection reason so the
// collector never has to interpret reason strings.
type Control int

const (
	// Continue means the scan proceeds to the next candidate.
	Continue Control = iota

	// StopScan means every later candidate would also be rejected, so the
	// collector should checkpoint and stop. Only the age bound produces
	// this: the listing is sorted by creation date descending.
	StopScan
)

// Outcome is the filter verdict for one candidate.
type Outcome struct {
	Accepted bool
	Reason   Reason
	Control  Control
}

func rejected(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// trivialChangeThreshold is the minimum average per-file change count for a
// pull request to count as substantive.
const trivialChangeThreshold = 5

// monthsAsDays approximates one month for the age bound.
const monthsAsDays = 30

// Evaluate applies the acceptance criteria to one pull request. Checks run
// in a fixed order and the first failing check decides the outcome; later
// checks are not evaluated. The function is pure: now is passed in so the
// age bound is reproducible.
func Evaluate(pr types.PullRequest, files []types.FileChange, cfg types.FilterConfig, now time.Time) Outcome {
	if cfg.MergedOnly && !pr.Merged() {
		return rejected(ReasonNotMerged)
	}

	if !cfg.CreatedBefore.IsZero() && !pr.CreatedAt.Before(cfg.CreatedBefore) {
		return rejected(ReasonCreatedTooLate)
	}

	if cfg.MaxAgeMonths != nil && pr.Merged() {
		cutoff := now.AddDate(0, 0, -*cfg.MaxAgeMonths*monthsAsDays)
		if pr.MergedAt.Before(cutoff) {
			return Outcome{Reason: ReasonTooOld, Control: StopScan}
		}
	}

	numFiles := len(files)
	if numFiles < cfg.MinFilesChanged {
		return rejected(ReasonTooFewFiles)
	}
	if numFiles > cfg.MaxFilesChanged {
		return rejected(ReasonTooManyFiles)
	}

	if cfg.RequireDescription && len(pr.Body) < cfg.MinDescriptionLength {
		return rejected(ReasonInsufficientDescription)
	}

	substantive := excludeFiles(files, cfg.ExcludePatterns)
	if len(substantive) == 0 {
		return rejected(ReasonOnlyExcludedFileTypes)
	}

	total := 0
	for _, f := range substantive {
		total += f.Changes
	}
	if float64(total)/float64(len(substantive)) < trivialChangeThreshold {
		return rejected(ReasonTrivialChanges)
	}

	return Outcome{Accepted: true}
}

// excludeFiles returns the files whose path matches none of the glob
// patterns.
func excludeFiles(files []types.FileChange, patterns []string) []types.FileChange {
	var kept []types.FileChange
	for _, f := range files {
		if !matchesAny(f.Filename, patterns) {
			kept = append(kept, f)
		}
	}
	return kept
}

// matchesAny reports whether the filename matches any pattern.
func matchesAny(filename string, patterns []string) bool {
	for _, pattern := range patterns {
		if globMatch(pattern, filename) {
			return true
		}
	}
	return false
}

// globMatch matches a full file path against a pattern. '*' matches any run
// of characters including path separators and '?' matches any single
// character, so "*.md" excludes Markdown files at any depth and "src/*.py"
// reaches into subdirectories of src. Character classes are not supported.
func globMatch(pattern, name string) bool {
	for pattern != "" {
		switch pattern[0] {
		case '*':
			rest := strings.TrimLeft(pattern, "*")
			if rest == "" {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if globMatch(rest, name[i:]) {
					return true
				}
			}
			return false
		case '?':
			if name == "" {
				return false
			}
		default:
			if name == "" || name[0] != pattern[0] {
				return false
			}
		}
		pattern, name = pattern[1:], name[1:]
	}
	return name == ""
}
