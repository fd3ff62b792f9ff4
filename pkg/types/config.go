package types

import "time"

// HTTPConfig holds shared HTTP settings used by the Notion and OpenAI clients.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// NotionConfig holds settings for the Notion document store.
type NotionConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the integration token sent as a bearer token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Version is the Notion-Version header (default "2022-06-28").
	Version string `json:"version" yaml:"version"`

	// RateLimit is the maximum number of requests per second (default 3).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// TemplatePageID is the page holding the output template.
	TemplatePageID string `json:"template_page_id" yaml:"template_page_id"`

	// ReviewPageID optionally points at a page of review guidelines.
	ReviewPageID string `json:"review_page_id,omitempty" yaml:"review_page_id,omitempty"`

	// StatusProperty is the status property updated after a run.
	// Empty disables the status update.
	StatusProperty string `json:"status_property,omitempty" yaml:"status_property,omitempty"`

	// StatusCompleteValue is the option set when the review is complete (default "完了").
	StatusCompleteValue string `json:"status_complete_value" yaml:"status_complete_value"`

	// StatusRejectedValue is the option set otherwise (default "差し戻し").
	StatusRejectedValue string `json:"status_rejected_value" yaml:"status_rejected_value"`
}

// StatusEnabled reports whether a status update should be sent after a run.
func (c NotionConfig) StatusEnabled() bool {
	return c.StatusProperty != "" && c.StatusCompleteValue != "" && c.StatusRejectedValue != ""
}

// StatusValue returns the option matching the completion outcome.
func (c NotionConfig) StatusValue(complete bool) string {
	if complete {
		return c.StatusCompleteValue
	}
	return c.StatusRejectedValue
}

// AIConfig holds settings for the generative service.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the OpenAI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the OpenAI endpoint (used with compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// RetryLimit is the number of attempts made per generation (default 3, min 1).
	RetryLimit int `json:"retry_limit" yaml:"retry_limit"`
}

// ReviewConfig holds the labels that drive review-section pruning.
type ReviewConfig struct {
	// SectionHeading is the heading_2 text that opens the review region
	// (default "AIレビュー結果").
	SectionHeading string `json:"section_heading" yaml:"section_heading"`

	// CompletionPhrase is the subsection title shown when nothing is missing
	// (default "🎉 完璧です").
	CompletionPhrase string `json:"completion_phrase" yaml:"completion_phrase"`
}

// Config groups all settings of a formatter run.
type Config struct {
	Notion NotionConfig `json:"notion" yaml:"notion"`
	AI     AIConfig     `json:"ai" yaml:"ai"`
	Review ReviewConfig `json:"review" yaml:"review"`

	// HistoryDB is the SQLite file recording each run. Empty disables history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}
