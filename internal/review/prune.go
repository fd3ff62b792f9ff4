// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review rewrites the AI review region of a generated document.
//
// The region starts at the heading_2 whose text equals the review heading
// and ends at the next heading_2. Each heading_3 inside it opens a
// subsection; Prune drops subsections that carry no content, except that
// the celebration subsection follows the completion signal when one is
// known. RemoveInstructionCallouts strips the template's usage hint.
package review

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

const (
	// DefaultHeading is the heading_2 text that opens the review region.
	DefaultHeading = "AIレビュー結果"

	// DefaultCompletionTitle is the subsection shown when nothing is missing.
	DefaultCompletionTitle = "🎉 完璧です"
)

// Completion is the tri-state completion signal of a generated review.
type Completion int

const (
	Unknown Completion = iota
	Complete
	Incomplete
)

// CompletionOf converts a known completion flag.
func CompletionOf(complete bool) Completion {
	if complete {
		return Complete
	}
	return Incomplete
}

// ParseCompletion accepts "true", "false" and "unknown" (or "").
func ParseCompletion(s string) (Completion, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return Complete, true
	case "false":
		return Incomplete, true
	case "", "unknown":
		return Unknown, true
	}
	return Unknown, false
}

// Known reports whether the signal is Complete or Incomplete.
func (c Completion) Known() bool { return c == Complete || c == Incomplete }

func (c Completion) String() string {
	switch c {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	}
	return "unknown"
}

// Options configures Prune. Empty strings select the defaults.
type Options struct {
	Heading         string
	CompletionTitle string
	Completion      Completion
	Logger          *zap.Logger
}

// Prune returns a new sequence with empty review subsections removed.
// Blocks outside the review region, and blocks inside it that precede the
// first heading_3, pass through unchanged. The input is not modified.
func Prune(blocks []types.Block, opts Options) []types.Block {
	if opts.Heading == "" {
		opts.Heading = DefaultHeading
	}
	if opts.CompletionTitle == "" {
		opts.CompletionTitle = DefaultCompletionTitle
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]types.Block, 0, len(blocks))
	inRegion := false
	for i := 0; i < len(blocks); {
		b := blocks[i]
		switch {
		case b.Type == types.BlockHeading2:
			inRegion = b.Text() == opts.Heading
			out = append(out, b)
			i++

		case inRegion && b.Type == types.BlockHeading3:
			end := subsectionEnd(blocks, i+1)
			members := blocks[i+1 : end]
			title := b.Text()
			hasContent := anyContent(members)

			keep := hasContent
			if title == opts.CompletionTitle && opts.Completion.Known() {
				keep = opts.Completion == Complete
			}
			if keep {
				out = append(out, blocks[i:end]...)
			} else {
				log.Debug("dropping review subsection",
					zap.String("title", title),
					zap.Bool("has_content", hasContent),
					zap.Stringer("completion", opts.Completion))
			}
			i = end

		default:
			out = append(out, b)
			i++
		}
	}
	return out
}

// subsectionEnd returns the index of the next heading_2 or heading_3 at or
// after from, or len(blocks).
func subsectionEnd(blocks []types.Block, from int) int {
	for j := from; j < len(blocks); j++ {
		if t := blocks[j].Type; t == types.BlockHeading2 || t == types.BlockHeading3 {
			return j
		}
	}
	return len(blocks)
}

func anyContent(blocks []types.Block) bool {
	for _, b := range blocks {
		if HasContent(b) {
			return true
		}
	}
	return false
}

// HasContent reports whether a block counts as content of a subsection.
// Dividers never count; text-bearing blocks count when their trimmed text
// is non-empty; every other block type counts.
func HasContent(b types.Block) bool {
	switch b.Type {
	case types.BlockDivider:
		return false
	case types.BlockCode, types.BlockToDo, types.BlockParagraph, types.BlockQuote,
		types.BlockCallout, types.BlockBulletedListItem, types.BlockNumberedListItem:
		return b.Text() != ""
	}
	return true
}
