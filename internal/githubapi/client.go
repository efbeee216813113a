// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package githubapi is a GitHub REST client for the scraping stage. It
// tracks the remaining request quota before every call and blocks until the
// quota window resets when the remaining count drops below a configured
// buffer. Pagination follows the Link header until the API stops
// advertising a next page.
package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pr-bench/internal/httputil"
	"github.com/pdiddy/pr-bench/pkg/types"
)

const defaultBaseURL = "https://api.github.com"

// timeNow is stubbed in tests.
var timeNow = time.Now

// resetSlack is added to the published reset time before resuming, so the
// first request after the wait lands inside the fresh quota window.
const resetSlack = 10 * time.Second

// Client talks to the GitHub REST API. Construct it with NewClient and pass
// it down from the driver; it holds the only HTTP session the scraping
// stage uses.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string

	// buffer is the remaining-quota threshold below which the client
	// waits for the reset.
	buffer int

	log io.Writer
}

// NewClient builds a Client from configuration. The token is required:
// unauthenticated scraping exhausts the anonymous quota within one page.
func NewClient(cfg types.GitHubConfig, token string, log io.Writer) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided: set %s or .secrets/github-token", cfg.TokenEnv)
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	buffer := cfg.RateLimitBuffer
	if buffer <= 0 {
		buffer = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = io.Discard
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		userAgent:  cfg.UserAgent,
		buffer:     buffer,
		log:        log,
	}, nil
}

// rateLimitResponse mirrors the /rate_limit payload.
type rateLimitResponse struct {
	Resources struct {
		Core struct {
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// CheckRateLimit queries the remaining core quota and, when it is below the
// buffer, sleeps until the published reset time plus slack. The sleep is
// the only suspension point in the scraping stage; a cancelled context
// aborts it.
func (c *Client) CheckRateLimit(ctx context.Context) error {
	resp, err := c.do(ctx, c.baseURL+"/rate_limit")
	if err != nil {
		return fmt.Errorf("querying rate limit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rate limit endpoint returned HTTP %d", resp.StatusCode)
	}

	var rl rateLimitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rl); err != nil {
		return fmt.Errorf("parsing rate limit response: %w", err)
	}

	remaining := rl.Resources.Core.Remaining
	if remaining >= c.buffer {
		return nil
	}

	reset := time.Unix(rl.Resources.Core.Reset, 0)
	wait := reset.Sub(timeNow()) + resetSlack
	if wait <= 0 {
		return nil
	}

	fmt.Fprintf(c.log, "rate limit low (%d remaining), waiting %s for reset\n", remaining, wait.Round(time.Second))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// pullJSON mirrors the fields of a GitHub PR listing object that the
// pipeline keeps.
type pullJSON struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	HTMLURL        string     `json:"html_url"`
	CreatedAt      time.Time  `json:"created_at"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	Base           struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		SHA string `json:"sha"`
	} `json:"head"`
	User struct {
		Login string `json:"login"`
	} `json:"user"`
}

func (p pullJSON) toRecord() types.PullRequest {
	return types.PullRequest{
		Number:         p.Number,
		Title:          p.Title,
		Body:           p.Body,
		HTMLURL:        p.HTMLURL,
		CreatedAt:      p.CreatedAt,
		MergedAt:       p.MergedAt,
		MergeCommitSHA: p.MergeCommitSHA,
		BaseRef:        p.Base.Ref,
		HeadSHA:        p.Head.SHA,
		User:           p.User.Login,
	}
}

// ListPullsPage fetches one page of the pull request listing, sorted by
// creation date descending. It returns the records and whether the API
// advertises a further page. Any non-200 status is an error; the caller
// decides whether the run survives it.
func (c *Client) ListPullsPage(ctx context.Context, owner, repo, state string, perPage, page int) ([]types.PullRequest, bool, error) {
	if err := c.CheckRateLimit(ctx); err != nil {
		return nil, false, err
	}

	params := url.Values{
		"state":     {state},
		"per_page":  {strconv.Itoa(perPage)},
		"sort":      {"created"},
		"direction": {"desc"},
		"page":      {strconv.Itoa(page)},
	}
	reqURL := fmt.Sprintf("%s/repos/%s/%s/pulls?%s", c.baseURL, owner, repo, params.Encode())

	resp, err := c.do(ctx, reqURL)
	if err != nil {
		return nil, false, fmt.Errorf("listing pulls for %s/%s page %d: %w", owner, repo, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("pull listing for %s/%s returned HTTP %d", owner, repo, resp.StatusCode)
	}

	var pulls []pullJSON
	if err := json.NewDecoder(resp.Body).Decode(&pulls); err != nil {
		return nil, false, fmt.Errorf("parsing pull listing: %w", err)
	}

	records := make([]types.PullRequest, 0, len(pulls))
	for _, p := range pulls {
		records = append(records, p.toRecord())
	}

	return records, hasNextPage(resp), nil
}

// PullFiles fetches the changed-file list for one pull request, following
// pagination until exhausted.
func (c *Client) PullFiles(ctx context.Context, owner, repo string, number int) ([]types.FileChange, error) {
	if err := c.CheckRateLimit(ctx); err != nil {
		return nil, err
	}

	var all []types.FileChange
	for page := 1; ; page++ {
		reqURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100&page=%d",
			c.baseURL, owner, repo, number, page)

		resp, err := c.do(ctx, reqURL)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s/%s#%d: %w", owner, repo, number, err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("file listing for %s/%s#%d returned HTTP %d", owner, repo, number, resp.StatusCode)
		}

		var files []types.FileChange
		err = json.NewDecoder(resp.Body).Decode(&files)
		next := hasNextPage(resp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing file listing: %w", err)
		}

		all = append(all, files...)

		if len(files) == 0 || !next {
			return all, nil
		}
	}
}

// do issues an authenticated GET through the 429-retry helper.
func (c *Client) do(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	return httputil.DoWithRetry(ctx, c.httpClient, req, 0)
}

// hasNextPage reports whether the Link header advertises a next page.
func hasNextPage(resp *http.Response) bool {
	for _, link := range resp.Header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if strings.Contains(part, `rel="next"`) {
				return true
			}
		}
	}
	return false
}
