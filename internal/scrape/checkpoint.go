// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pdiddy/pr-bench/pkg/types"
)

const (
	checkpointFile = "checkpoint.json"
	acceptedFile   = "prs.json"
)

// Checkpoint is the persisted progress snapshot for one repository scan.
// The field names are an external contract shared with earlier tooling, so
// checkpoints survive upgrades.
type Checkpoint struct {
	ProcessedPRNumbers []int               `json:"processed_pr_numbers"`
	FilteredPRs        []types.PullRequest `json:"filtered_prs"`
	LastUpdated        time.Time           `json:"last_updated"`
}

// CheckpointStore reads and writes the checkpoint for one repository
// directory. The checkpoint is rewritten wholesale on every save; the
// accepted-record list is mirrored to a plain output file alongside it.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates dir if needed and returns a store rooted there.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &CheckpointStore{dir: dir}, nil
}

// Dir returns the repository output directory.
func (s *CheckpointStore) Dir() string { return s.dir }

// Load reads the checkpoint if one exists. found is false when no
// checkpoint has been written yet; a present-but-unreadable checkpoint is
// an error, since silently restarting would re-process everything.
func (s *CheckpointStore) Load() (processed map[int]bool, accepted []types.PullRequest, found bool, err error) {
	data, err := os.ReadFile(filepath.Join(s.dir, checkpointFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[int]bool{}, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, nil, false, fmt.Errorf("parsing checkpoint: %w", err)
	}

	processed = make(map[int]bool, len(cp.ProcessedPRNumbers))
	for _, n := range cp.ProcessedPRNumbers {
		processed[n] = true
	}
	return processed, cp.FilteredPRs, true, nil
}

// Save rewrites the checkpoint and mirrors the accepted records to the
// output file. Processed numbers are written sorted so saves are
// deterministic.
func (s *CheckpointStore) Save(processed map[int]bool, accepted []types.PullRequest) error {
	numbers := make([]int, 0, len(processed))
	for n := range processed {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	cp := Checkpoint{
		ProcessedPRNumbers: numbers,
		FilteredPRs:        accepted,
		LastUpdated:        time.Now().UTC(),
	}

	if err := writeJSON(filepath.Join(s.dir, checkpointFile), cp); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, acceptedFile), accepted); err != nil {
		return fmt.Errorf("writing accepted output: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
