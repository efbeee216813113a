// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FileStatus indicates what happened to a file within a pull request.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
)

// FileChange is one changed file within a pull request, as reported by the
// hosting API. Changes is expected to equal Additions+Deletions but is
// recorded as received.
type FileChange struct {
	// Filename is the repository-relative path of the file.
	Filename string `json:"filename" yaml:"filename"`

	// Status is the change kind: added, modified, or removed.
	Status FileStatus `json:"status" yaml:"status"`

	// Additions is the number of added lines.
	Additions int `json:"additions" yaml:"additions"`

	// Deletions is the number of removed lines.
	Deletions int `json:"deletions" yaml:"deletions"`

	// Changes is the total changed line count for the file.
	Changes int `json:"changes" yaml:"changes"`

	// Patch is the unified diff for the file, when the API provides one.
	Patch string `json:"patch,omitempty" yaml:"patch,omitempty"`
}

// PullRequest holds the scraped record for one pull request. Field names in
// JSON match the checkpoint file schema, so records round-trip between the
// collector and the checkpoint without conversion.
type PullRequest struct {
	// Number is the pull request number, scoped to its repository.
	Number int `json:"pr_number" yaml:"pr_number"`

	// Title is the pull request title.
	Title string `json:"title" yaml:"title"`

	// Body is the free-text description. May be empty.
	Body string `json:"body" yaml:"body"`

	// HTMLURL is the web URL of the pull request.
	HTMLURL string `json:"html_url" yaml:"html_url"`

	// CreatedAt is when the pull request was opened.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// MergedAt is when the pull request was merged. Nil means not merged.
	MergedAt *time.Time `json:"merged_at" yaml:"merged_at"`

	// MergeCommitSHA is the merge commit, when merged.
	MergeCommitSHA string `json:"merge_commit_sha,omitempty" yaml:"merge_commit_sha,omitempty"`

	// BaseRef is the target branch name.
	BaseRef string `json:"base_ref" yaml:"base_ref"`

	// HeadSHA is the head commit of the pull request branch.
	HeadSHA string `json:"head_sha" yaml:"head_sha"`

	// User is the login of the author.
	User string `json:"user" yaml:"user"`

	// Files lists the changed files.
	Files []FileChange `json:"files" yaml:"files"`

	// NumFiles is len(Files), persisted for convenience.
	NumFiles int `json:"num_files" yaml:"num_files"`

	// ScrapedAt is when the collector recorded this pull request.
	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`
}

// Merged reports whether the pull request has a merge timestamp.
func (pr PullRequest) Merged() bool {
	return pr.MergedAt != nil
}
