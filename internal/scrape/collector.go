// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/pr-bench/pkg/types"
)

// Pager lists pull requests and their changed files, one page at a time.
// *githubapi.Client implements it; tests supply fakes.
type Pager interface {
	ListPullsPage(ctx context.Context, owner, repo, state string, perPage, page int) ([]types.PullRequest, bool, error)
	PullFiles(ctx context.Context, owner, repo string, number int) ([]types.FileChange, error)
}

// StopCause records which condition ended a collection pass.
type StopCause string

const (
	// StopTargetReached: enough pull requests were accepted.
	StopTargetReached StopCause = "target_reached"

	// StopTooOld: the filter signalled that every remaining candidate is
	// past the age bound.
	StopTooOld StopCause = "too_old"

	// StopCheckCap: the hard cap on examined candidates was hit.
	StopCheckCap StopCause = "check_cap"

	// StopNoMorePages: the listing was exhausted.
	StopNoMorePages StopCause = "no_more_pages"
)

// Summary holds counts from one collection pass.
type Summary struct {
	// Fetched is the number of listing records retrieved.
	Fetched int

	// Checked is the number of candidates that reached the filter.
	Checked int

	// Included is the number of candidates accepted during this pass.
	Included int

	// Skipped is the number of candidates the filter rejected.
	Skipped int

	// Stopped is the condition that ended the pass.
	Stopped StopCause
}

// Collector drives the page/filter/checkpoint loop for one repository.
// The pager, filter configuration, checkpoint store, and progress writer
// are all injected by the driver; the collector holds no ambient state.
type Collector struct {
	pager    Pager
	filters  types.FilterConfig
	scraping types.ScrapeConfig
	store    *CheckpointStore
	log      io.Writer

	// now is stubbed in tests so the age bound is reproducible.
	now func() time.Time
}

// NewCollector wires a collector. log may be nil.
func NewCollector(pager Pager, filters types.FilterConfig, scraping types.ScrapeConfig, store *CheckpointStore, log io.Writer) *Collector {
	if log == nil {
		log = io.Discard
	}
	return &Collector{
		pager:    pager,
		filters:  filters,
		scraping: scraping,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Collect gathers accepted pull requests for one repository until the
// target count is reached, the filter signals a stop, the examination cap
// is hit, or the listing runs out. Progress resumes from a previous
// checkpoint when one exists, and the checkpoint is rewritten after every
// accepted batch and unconditionally at the stop condition, so an
// interrupted run never loses more than one batch of work.
//
// A failed per-candidate file fetch marks the candidate processed and moves
// on; it is neither accepted nor counted as a filter rejection. A failed
// page fetch aborts the pass; the checkpoint still reflects all work done
// before the failure.
func (c *Collector) Collect(ctx context.Context, owner, repo string) ([]types.PullRequest, Summary, error) {
	processed, accepted, resumed, err := c.store.Load()
	if err != nil {
		return nil, Summary{}, err
	}
	if resumed {
		fmt.Fprintf(c.log, "resuming from checkpoint: %d PRs already processed, %d accepted\n", len(processed), len(accepted))
	}

	target := c.scraping.MaxPRsPerRepo
	perPage := c.scraping.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	interval := c.scraping.CheckpointInterval
	if interval <= 0 {
		interval = 5
	}
	checkCap := c.scraping.MaxPRsToCheck
	if checkCap <= 0 {
		checkCap = 500
	}
	state := c.filters.State
	if state == "" {
		state = "closed"
	}

	var summary Summary
	included := len(accepted)

	saveAndReturn := func(cause StopCause) ([]types.PullRequest, Summary, error) {
		summary.Stopped = cause
		if err := c.store.Save(processed, accepted); err != nil {
			return nil, summary, err
		}
		fmt.Fprintf(c.log, "stopped (%s): fetched %d, checked %d, included %d, skipped %d\n",
			cause, summary.Fetched, summary.Checked, summary.Included, summary.Skipped)
		return accepted, summary, nil
	}

	for page := 1; ; page++ {
		if included >= target {
			return saveAndReturn(StopTargetReached)
		}

		fmt.Fprintf(c.log, "fetching PR list page %d\n", page)
		pulls, hasNext, err := c.pager.ListPullsPage(ctx, owner, repo, state, perPage, page)
		if err != nil {
			// Persist before propagating so restart resumes here.
			if saveErr := c.store.Save(processed, accepted); saveErr != nil {
				return nil, summary, fmt.Errorf("%w (checkpoint save also failed: %v)", err, saveErr)
			}
			return nil, summary, err
		}
		if len(pulls) == 0 {
			return saveAndReturn(StopNoMorePages)
		}
		summary.Fetched += len(pulls)

		for _, pr := range pulls {
			if processed[pr.Number] {
				continue
			}
			if included >= target {
				break
			}

			files, err := c.pager.PullFiles(ctx, owner, repo, pr.Number)
			if err != nil {
				fmt.Fprintf(c.log, "  PR #%d: file fetch failed, skipping: %v\n", pr.Number, err)
				processed[pr.Number] = true
				continue
			}

			summary.Checked++
			outcome := Evaluate(pr, files, c.filters, c.now())
			processed[pr.Number] = true

			if !outcome.Accepted {
				summary.Skipped++
				fmt.Fprintf(c.log, "  PR #%d: rejected (%s)\n", pr.Number, outcome.Reason)
				if outcome.Control == StopScan {
					return saveAndReturn(StopTooOld)
				}
				continue
			}

			record := pr
			record.Files = files
			record.NumFiles = len(files)
			record.ScrapedAt = c.now()
			accepted = append(accepted, record)
			included++
			summary.Included++
			fmt.Fprintf(c.log, "  PR #%d: accepted (%d/%d)\n", pr.Number, included, target)

			if summary.Included%interval == 0 {
				if err := c.store.Save(processed, accepted); err != nil {
					return nil, summary, err
				}
			}
		}

		if included >= target {
			return saveAndReturn(StopTargetReached)
		}
		if summary.Checked >= checkCap {
			return saveAndReturn(StopCheckCap)
		}
		if !hasNext {
			return saveAndReturn(StopNoMorePages)
		}
	}
}
