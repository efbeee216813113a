// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/pr-bench/pkg/types"
)

func testConfig(baseURL string) types.GitHubConfig {
	return types.GitHubConfig{
		HTTPConfig:      types.HTTPConfig{UserAgent: "pr-bench-test/0.1"},
		APIBaseURL:      baseURL,
		TokenEnv:        "GITHUB_TOKEN",
		RateLimitBuffer: 100,
	}
}

// quotaHandler serves /rate_limit with the given remaining count and reset.
func quotaHandler(remaining int, reset time.Time) string {
	return fmt.Sprintf(`{"resources":{"core":{"remaining":%d,"reset":%d}}}`, remaining, reset.Unix())
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(testConfig(""), "", nil)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error = %q, should mention the token", err)
	}
}

func TestCheckRateLimitNoWaitAboveBuffer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(5000, time.Now().Add(time.Hour)))
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts.URL), "tok", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	if err := c.CheckRateLimit(context.Background()); err != nil {
		t.Fatalf("CheckRateLimit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("CheckRateLimit slept %v with quota above buffer", elapsed)
	}
}

func TestCheckRateLimitWaitsUntilReset(t *testing.T) {
	reset := time.Now().Truncate(time.Second)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(3, reset))
	}))
	defer ts.Close()

	// Stub the clock so reset+slack is 20ms away instead of 10s.
	old := timeNow
	timeNow = func() time.Time { return reset.Add(resetSlack - 20*time.Millisecond) }
	defer func() { timeNow = old }()

	c, err := NewClient(testConfig(ts.URL), "tok", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	start := time.Now()
	if err := c.CheckRateLimit(context.Background()); err != nil {
		t.Fatalf("CheckRateLimit: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("CheckRateLimit returned after %v, expected a wait until reset", elapsed)
	}
}

func TestCheckRateLimitWaitAbortsOnCancel(t *testing.T) {
	reset := time.Now().Add(time.Hour)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(0, reset))
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts.URL), "tok", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = c.CheckRateLimit(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("CheckRateLimit err = %v, want context.DeadlineExceeded", err)
	}
}

// listServer serves a quota endpoint plus a canned pull listing.
func listServer(t *testing.T, pulls string, nextLink bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(5000, time.Now().Add(time.Hour)))
	})
	mux.HandleFunc("/repos/octo/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		if nextLink {
			w.Header().Set("Link", `<https://example.test/page2>; rel="next", <https://example.test/last>; rel="last"`)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pulls)
	})
	return httptest.NewServer(mux)
}

const samplePullsJSON = `[
  {
    "number": 42,
    "title": "Add widget cache",
    "body": "Caches widget lookups.",
    "html_url": "https://github.test/octo/widgets/pull/42",
    "created_at": "2025-03-01T10:00:00Z",
    "merged_at": "2025-03-02T09:30:00Z",
    "merge_commit_sha": "abc123",
    "base": {"ref": "main"},
    "head": {"sha": "def456"},
    "user": {"login": "octocat"}
  },
  {
    "number": 41,
    "title": "Fix typo",
    "body": null,
    "html_url": "https://github.test/octo/widgets/pull/41",
    "created_at": "2025-02-28T10:00:00Z",
    "merged_at": null,
    "merge_commit_sha": null,
    "base": {"ref": "main"},
    "head": {"sha": "0a0b0c"},
    "user": {"login": "hubot"}
  }
]`

func TestListPullsPage(t *testing.T) {
	ts := listServer(t, samplePullsJSON, true)
	defer ts.Close()

	c, err := NewClient(testConfig(ts.URL), "tok", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	records, hasNext, err := c.ListPullsPage(context.Background(), "octo", "widgets", "closed", 100, 1)
	if err != nil {
		t.Fatalf("ListPullsPage: %v", err)
	}
	if !hasNext {
		t.Error("hasNext = false, want true from Link header")
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r0 := records[0]
	if r0.Number != 42 || r0.Title != "Add widget cache" || r0.User != "octocat" {
		t.Errorf("record 0 = %+v", r0)
	}
	if !r0.Merged() {
		t.Error("record 0 should be merged")
	}
	if r0.BaseRef != "main" || r0.HeadSHA != "def456" {
		t.Errorf("base/head = %q/%q", r0.BaseRef, r0.HeadSHA)
	}

	// Null body and merged_at should map to zero values.
	r1 := records[1]
	if r1.Body != "" {
		t.Errorf("record 1 body = %q, want empty for JSON null", r1.Body)
	}
	if r1.Merged() {
		t.Error("record 1 should not be merged")
	}
}

func TestListPullsPageNoNextLink(t *testing.T) {
	ts := listServer(t, `[]`, false)
	defer ts.Close()

	c, _ := NewClient(testConfig(ts.URL), "tok", nil)
	records, hasNext, err := c.ListPullsPage(context.Background(), "octo", "widgets", "closed", 100, 7)
	if err != nil {
		t.Fatalf("ListPullsPage: %v", err)
	}
	if hasNext {
		t.Error("hasNext = true without Link header")
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestListPullsPageHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(5000, time.Now().Add(time.Hour)))
	})
	mux.HandleFunc("/repos/octo/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, _ := NewClient(testConfig(ts.URL), "tok", nil)
	_, _, err := c.ListPullsPage(context.Background(), "octo", "widgets", "closed", 100, 1)
	if err == nil {
		t.Fatal("expected error for HTTP 502")
	}
	if !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("error = %q, should contain HTTP 502", err)
	}
}

func TestPullFilesPagination(t *testing.T) {
	var fileCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(5000, time.Now().Add(time.Hour)))
	})
	mux.HandleFunc("/repos/octo/widgets/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&fileCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Header().Set("Link", `<https://example.test/page2>; rel="next"`)
			fmt.Fprint(w, `[{"filename":"a.go","status":"modified","additions":5,"deletions":2,"changes":7}]`)
			return
		}
		fmt.Fprint(w, `[{"filename":"b.go","status":"added","additions":30,"deletions":0,"changes":30,"patch":"@@ -0,0 +1,30 @@"}]`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, _ := NewClient(testConfig(ts.URL), "tok", nil)
	files, err := c.PullFiles(context.Background(), "octo", "widgets", 42)
	if err != nil {
		t.Fatalf("PullFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2 across pages", len(files))
	}
	if files[0].Filename != "a.go" || files[1].Filename != "b.go" {
		t.Errorf("files = %v", files)
	}
	if files[1].Status != types.FileAdded {
		t.Errorf("files[1].Status = %q, want added", files[1].Status)
	}
	if got := atomic.LoadInt32(&fileCalls); got != 2 {
		t.Errorf("file endpoint calls = %d, want 2", got)
	}
}

func TestPullFilesHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotaHandler(5000, time.Now().Add(time.Hour)))
	})
	mux.HandleFunc("/repos/octo/widgets/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, _ := NewClient(testConfig(ts.URL), "tok", nil)
	_, err := c.PullFiles(context.Background(), "octo", "widgets", 42)
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}
