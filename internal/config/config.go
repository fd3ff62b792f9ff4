// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads formatter settings with viper.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// config file, a dotenv file, the process environment, and command-line
// flags bound by the caller. Keys are the lower-cased environment variable
// names, so NOTION_API_KEY in the environment, notion_api_key in YAML, and
// NOTION_API_KEY in .env all set the same value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/notion-formatter/internal/generate"
	"github.com/pdiddy/notion-formatter/internal/history"
	"github.com/pdiddy/notion-formatter/internal/notion"
	"github.com/pdiddy/notion-formatter/internal/review"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

// Keys recognised in the environment, .env and the YAML config file.
const (
	KeyNotionAPIKey     = "notion_api_key"
	KeyTemplatePageID   = "notion_template_page_id"
	KeyReviewPageID     = "notion_review_page_id"
	KeyTargetPageID     = "notion_target_page_id"
	KeyStatusProperty   = "notion_review_status_property"
	KeyStatusComplete   = "notion_review_status_complete_value"
	KeyStatusRejected   = "notion_review_status_rejected_value"
	KeyNotionVersion    = "notion_version"
	KeyNotionRateLimit  = "notion_rate_limit"
	KeyNotionTimeout    = "notion_timeout"
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyOpenAIModel      = "openai_model"
	KeyOpenAIBaseURL    = "openai_base_url"
	KeyOpenAITimeout    = "openai_timeout"
	KeyRetryLimit       = "retry_limit"
	KeyReviewHeading    = "review_section_heading"
	KeyCompletionPhrase = "completion_success_phrase"
	KeyHistoryDB        = "history_db"
	KeyDebugMarkdown    = "debug_markdown_converter"
)

// DefaultEnvFile is the dotenv file read when none is given.
const DefaultEnvFile = ".env"

const (
	defaultStatusProperty = "レビュー状況"
	defaultStatusComplete = "完了"
	defaultStatusRejected = "差し戻し"
	defaultRetryLimit     = 3
	defaultNotionTimeout  = 30 * time.Second
	defaultOpenAITimeout  = 120 * time.Second

	secretNotionAPIKey = "notion-api-key"
	secretOpenAIAPIKey = "openai-api-key"

	configName = "notion-formatter"
)

var envKeys = []string{
	KeyNotionAPIKey, KeyTemplatePageID, KeyReviewPageID, KeyTargetPageID,
	KeyStatusProperty, KeyStatusComplete, KeyStatusRejected,
	KeyNotionVersion, KeyNotionRateLimit, KeyNotionTimeout,
	KeyOpenAIAPIKey, KeyOpenAIModel, KeyOpenAIBaseURL, KeyOpenAITimeout,
	KeyRetryLimit, KeyReviewHeading, KeyCompletionPhrase, KeyHistoryDB,
	KeyDebugMarkdown,
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key string
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", strings.ToUpper(e.Key), e.Msg)
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// New returns a viper instance with defaults and environment bindings set.
// Empty environment values are honoured, so NOTION_REVIEW_STATUS_PROPERTY=""
// disables the status update and HISTORY_DB="" disables history.
func New() *viper.Viper {
	v := viper.New()
	v.AllowEmptyEnv(true)
	for _, key := range envKeys {
		// BindEnv only fails when no key is given.
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	v.SetDefault(KeyStatusProperty, defaultStatusProperty)
	v.SetDefault(KeyStatusComplete, defaultStatusComplete)
	v.SetDefault(KeyStatusRejected, defaultStatusRejected)
	v.SetDefault(KeyNotionVersion, notion.DefaultVersion)
	v.SetDefault(KeyNotionRateLimit, notion.DefaultRateLimit)
	v.SetDefault(KeyNotionTimeout, defaultNotionTimeout)
	v.SetDefault(KeyOpenAIModel, generate.DefaultModel)
	v.SetDefault(KeyOpenAITimeout, defaultOpenAITimeout)
	v.SetDefault(KeyRetryLimit, strconv.Itoa(defaultRetryLimit))
	v.SetDefault(KeyReviewHeading, review.DefaultHeading)
	v.SetDefault(KeyCompletionPhrase, review.DefaultCompletionTitle)
	v.SetDefault(KeyHistoryDB, history.DefaultPath)
	v.SetDefault(KeyDebugMarkdown, false)
	return v
}

// ReadFiles loads the YAML config file and then merges the dotenv file on
// top of it. cfgFile may be empty, in which case ./notion-formatter.yaml
// and ~/.config/notion-formatter/config.yaml are tried; a missing default
// file is not an error. A missing envFile is not an error either. It
// returns the config file used, if any.
func ReadFiles(v *viper.Viper, cfgFile, envFile string) (string, error) {
	used, err := readConfigFile(v, cfgFile)
	if err != nil {
		return "", err
	}
	if envFile == "" {
		return used, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return used, nil
		}
		return used, fmt.Errorf("reading env file %s: %w", envFile, err)
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.MergeInConfig(); err != nil {
		return used, fmt.Errorf("reading env file %s: %w", envFile, err)
	}
	return used, nil
}

func readConfigFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		return v.ConfigFileUsed(), nil
	}

	candidates := []string{configName + ".yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", configName, "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("reading config file %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// Load builds the run configuration from v. API keys missing from v are
// looked up in secrets under notion-api-key and openai-api-key.
func Load(v *viper.Viper, secrets map[string]string) (types.Config, error) {
	var cfg types.Config

	nc, err := LoadNotion(v, secrets)
	if err != nil {
		return cfg, err
	}
	if nc.TemplatePageID == "" {
		return cfg, &ConfigurationError{Key: KeyTemplatePageID, Msg: "is required"}
	}
	openaiKey := firstNonEmpty(v.GetString(KeyOpenAIAPIKey), secrets[secretOpenAIAPIKey])
	if openaiKey == "" {
		return cfg, &ConfigurationError{Key: KeyOpenAIAPIKey, Msg: "is required"}
	}
	retryLimit, err := parseRetryLimit(v.GetString(KeyRetryLimit))
	if err != nil {
		return cfg, err
	}

	cfg.Notion = nc
	cfg.AI = types.AIConfig{
		HTTPConfig: types.HTTPConfig{Timeout: v.GetDuration(KeyOpenAITimeout)},
		Model:      firstNonEmpty(v.GetString(KeyOpenAIModel), generate.DefaultModel),
		APIKey:     openaiKey,
		BaseURL:    strings.TrimSpace(v.GetString(KeyOpenAIBaseURL)),
		RetryLimit: retryLimit,
	}
	cfg.Review = LoadReview(v)
	cfg.HistoryDB = strings.TrimSpace(v.GetString(KeyHistoryDB))
	return cfg, nil
}

// LoadNotion builds only the Notion settings, for commands that never
// call the model. The template page is optional here.
func LoadNotion(v *viper.Viper, secrets map[string]string) (types.NotionConfig, error) {
	key := firstNonEmpty(v.GetString(KeyNotionAPIKey), secrets[secretNotionAPIKey])
	if key == "" {
		return types.NotionConfig{}, &ConfigurationError{Key: KeyNotionAPIKey, Msg: "is required"}
	}
	rateLimit, err := parseFloat(KeyNotionRateLimit, v.GetString(KeyNotionRateLimit))
	if err != nil {
		return types.NotionConfig{}, err
	}
	return types.NotionConfig{
		HTTPConfig:          types.HTTPConfig{Timeout: v.GetDuration(KeyNotionTimeout)},
		APIKey:              key,
		Version:             strings.TrimSpace(v.GetString(KeyNotionVersion)),
		RateLimit:           rateLimit,
		TemplatePageID:      strings.TrimSpace(v.GetString(KeyTemplatePageID)),
		ReviewPageID:        strings.TrimSpace(v.GetString(KeyReviewPageID)),
		StatusProperty:      strings.TrimSpace(v.GetString(KeyStatusProperty)),
		StatusCompleteValue: strings.TrimSpace(v.GetString(KeyStatusComplete)),
		StatusRejectedValue: strings.TrimSpace(v.GetString(KeyStatusRejected)),
	}, nil
}

// LoadReview returns the review labels. It needs no credentials.
func LoadReview(v *viper.Viper) types.ReviewConfig {
	return types.ReviewConfig{
		SectionHeading:   firstNonEmpty(v.GetString(KeyReviewHeading), review.DefaultHeading),
		CompletionPhrase: firstNonEmpty(v.GetString(KeyCompletionPhrase), review.DefaultCompletionTitle),
	}
}

// parseRetryLimit accepts any integer and clamps it to at least one.
func parseRetryLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRetryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: KeyRetryLimit, Msg: "must be an integer"}
	}
	return max(1, n), nil
}

func parseFloat(key, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, &ConfigurationError{Key: key, Msg: "must be a non-negative number"}
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
