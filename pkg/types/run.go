// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus is the lifecycle state of a recorded formatter run.
type RunStatus string

const (
	// RunStarted means the page snapshot was taken but replacement has not finished.
	RunStarted RunStatus = "started"
	RunApplied RunStatus = "applied"
	RunFailed  RunStatus = "failed"
)

// Run is one recorded formatter run against a page. BeforeMarkdown holds
// the page content as it was prior to replacement so that a partially
// replaced page can be restored by hand.
type Run struct {
	ID                string    `json:"id" yaml:"id"`
	PageID            string    `json:"page_id" yaml:"page_id"`
	TemplatePageID    string    `json:"template_page_id" yaml:"template_page_id"`
	ReviewPageID      string    `json:"review_page_id,omitempty" yaml:"review_page_id,omitempty"`
	Status            RunStatus `json:"status" yaml:"status"`
	IsComplete        bool      `json:"is_complete" yaml:"is_complete"`
	CompletionMessage string    `json:"completion_message,omitempty" yaml:"completion_message,omitempty"`
	BlockCount        int       `json:"block_count" yaml:"block_count"`
	Archived          int       `json:"archived" yaml:"archived"`
	Preserved         int       `json:"preserved" yaml:"preserved"`
	Error             string    `json:"error,omitempty" yaml:"error,omitempty"`
	BeforeMarkdown    string    `json:"before_markdown,omitempty" yaml:"before_markdown,omitempty"`
	AfterMarkdown     string    `json:"after_markdown,omitempty" yaml:"after_markdown,omitempty"`
	StartedAt         time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
