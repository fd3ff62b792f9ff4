// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate asks a chat model to reformat a draft against a
// template and append an AI review section. The model answers with a JSON
// object holding the formatted Markdown and a completion summary.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Backend sends a prompt pair to a model and returns its raw reply.
// Tests supply fakes; OpenAIBackend is the production implementation.
type Backend interface {
	Complete(ctx context.Context, p Prompts) (string, error)
}

// backoffBase and backoffMax bound the wait between attempts.
// Tests override backoffBase to avoid real sleeps.
var (
	backoffBase = 1 * time.Second
	backoffMax  = 30 * time.Second
)

// Result is a validated model reply.
type Result struct {
	FormattedMarkdown string
	IsComplete        bool
	CompletionMessage string
}

// ServiceError is the single error kind returned by Generate. Exhausted is
// set when every attempt failed.
type ServiceError struct {
	Msg       string
	Exhausted bool
	Err       error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Generator calls a Backend with retries and validates the reply.
type Generator struct {
	Backend Backend

	// MaxAttempts is the total number of calls made before giving up (min 1).
	MaxAttempts int

	Logger *zap.Logger
}

// Generate calls the backend until it returns decodable JSON or the
// attempts run out, waiting 1s, 2s, 4s and so on (capped at 30s) between
// attempts. Missing fields in a decoded reply are not retried.
func (g *Generator) Generate(ctx context.Context, p Prompts) (Result, error) {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	attempts := max(g.MaxAttempts, 1)

	var (
		payload map[string]any
		lastErr error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := retryDelay(attempt - 1)
			log.Debug("retrying generation", zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return Result{}, &ServiceError{Msg: "generation cancelled", Err: ctx.Err()}
			case <-time.After(wait):
			}
		}

		payload, lastErr = g.call(ctx, p)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return Result{}, &ServiceError{Msg: "generation cancelled", Err: ctx.Err()}
		}
	}
	if lastErr != nil {
		return Result{}, &ServiceError{
			Msg:       fmt.Sprintf("OpenAI API retry attempts exhausted (%d)", attempts),
			Exhausted: true,
			Err:       lastErr,
		}
	}
	return parseResult(payload)
}

func (g *Generator) call(ctx context.Context, p Prompts) (map[string]any, error) {
	content, err := g.Backend.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, errEmptyResponse
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from OpenAI response: %w", err)
	}
	return payload, nil
}

func retryDelay(n int) time.Duration {
	d := time.Duration(math.Pow(2, float64(n))) * backoffBase
	return min(d, backoffMax)
}

// parseResult validates the reply object and extracts its fields.
func parseResult(payload map[string]any) (Result, error) {
	md, ok := payload["formatted_markdown"]
	if !ok {
		return Result{}, &ServiceError{Msg: "missing 'formatted_markdown' in AI response"}
	}
	rawSummary, ok := payload["completion_summary"]
	if !ok {
		return Result{}, &ServiceError{Msg: "missing 'completion_summary' in AI response"}
	}
	summary, ok := rawSummary.(map[string]any)
	if !ok {
		return Result{}, &ServiceError{Msg: "'completion_summary' must be an object"}
	}

	return Result{
		FormattedMarkdown: strings.TrimSpace(stringOf(md)),
		IsComplete:        truthy(summary["is_complete"]),
		CompletionMessage: strings.TrimSpace(stringOf(summary["status_message"])),
	}, nil
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// truthy reads a loosely typed flag. Strings that parse as booleans use
// that value; other non-empty strings, non-zero numbers and non-empty
// collections are true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// IsServiceError reports whether err is, or wraps, a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
