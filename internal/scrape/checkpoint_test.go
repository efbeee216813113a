// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pdiddy/pr-bench/pkg/types"
)

func TestCheckpointRoundTrip(t *testing.T) {
	store, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	processed := map[int]bool{7: true, 3: true, 12: true}
	accepted := []types.PullRequest{goodPR()}
	if err := store.Save(processed, accepted); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotProcessed, gotAccepted, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("found = false after Save")
	}
	if len(gotProcessed) != 3 || !gotProcessed[7] || !gotProcessed[3] || !gotProcessed[12] {
		t.Errorf("processed = %v", gotProcessed)
	}
	if len(gotAccepted) != 1 || gotAccepted[0].Number != 42 {
		t.Errorf("accepted = %+v", gotAccepted)
	}
}

func TestCheckpointLoadMissing(t *testing.T) {
	store, err := NewCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	processed, accepted, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("found = true with no checkpoint on disk")
	}
	if processed == nil || len(processed) != 0 {
		t.Errorf("processed = %v, want empty map", processed)
	}
	if accepted != nil {
		t.Errorf("accepted = %v, want nil", accepted)
	}
}

func TestCheckpointLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCheckpointStore(dir)
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, checkpointFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err = store.Load()
	if err == nil {
		t.Fatal("expected error for corrupt checkpoint")
	}
}

func TestCheckpointSaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCheckpointStore(dir)
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	if err := store.Save(map[int]bool{9: true, 1: true, 5: true}, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, checkpointFile))
	if err != nil {
		t.Fatal(err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		t.Fatalf("unmarshal checkpoint: %v", err)
	}
	if !sort.IntsAreSorted(cp.ProcessedPRNumbers) {
		t.Errorf("ProcessedPRNumbers = %v, want sorted", cp.ProcessedPRNumbers)
	}
	if len(cp.ProcessedPRNumbers) != 3 {
		t.Errorf("len = %d, want 3", len(cp.ProcessedPRNumbers))
	}
}

func TestCheckpointMirrorsAcceptedOutput(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCheckpointStore(dir)
	if err != nil {
		t.Fatalf("NewCheckpointStore: %v", err)
	}

	accepted := []types.PullRequest{goodPR(), goodPR()}
	accepted[1].Number = 43
	if err := store.Save(map[int]bool{42: true, 43: true}, accepted); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, acceptedFile))
	if err != nil {
		t.Fatalf("reading %s: %v", acceptedFile, err)
	}
	var mirrored []types.PullRequest
	if err := json.Unmarshal(data, &mirrored); err != nil {
		t.Fatalf("unmarshal %s: %v", acceptedFile, err)
	}
	if len(mirrored) != 2 || mirrored[0].Number != 42 || mirrored[1].Number != 43 {
		t.Errorf("mirrored = %+v", mirrored)
	}
}
