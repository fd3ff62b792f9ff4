// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert translates between Notion block sequences and the
// restricted Markdown dialect exchanged with the generative service.
//
// Parse turns Markdown into a flat, validated block sequence using a
// single-pass line state machine. Render walks a block tree (fetching
// nested children on demand) and produces Markdown. MarkdownToBlocks is
// the full inbound path: Parse, then review pruning, then removal of the
// instruction callout.
package convert

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/notion-formatter/internal/review"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

const (
	fence = "```"

	// reviewMarker prefixes a line that must always be flagged red.
	reviewMarker = "【レビュー】"
	redGlyph     = "🔴"
)

// flaggedSubsections are the review subsections whose content is rendered red.
var flaggedSubsections = map[string]bool{
	"❌ 不足している項目":   true,
	"⚠️ 改善が必要な項目": true,
}

var numberedPrefix = regexp.MustCompile(`^\d+\.\s+`)

// Options configures MarkdownToBlocks. The zero value uses the default
// review heading and celebration title, an unknown completion state and a
// no-op logger.
type Options struct {
	// ReviewHeading is the heading_2 text that opens the review region.
	ReviewHeading string

	// CompletionTitle is the title of the celebration subsection.
	CompletionTitle string

	// Completion is the completion signal reported by the generative service.
	Completion review.Completion

	// Logger receives debug diagnostics. Nil means no logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ReviewHeading == "" {
		o.ReviewHeading = review.DefaultHeading
	}
	if o.CompletionTitle == "" {
		o.CompletionTitle = review.DefaultCompletionTitle
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// MarkdownToBlocks parses markdown, prunes the review region according to
// opts.Completion and removes the instruction callout.
func MarkdownToBlocks(markdown string, opts Options) []types.Block {
	opts = opts.withDefaults()
	log := opts.Logger

	blocks := Parse(markdown, opts)
	log.Debug("parsed markdown", zap.Int("blocks", len(blocks)))

	pruned := review.Prune(blocks, review.Options{
		Heading:         opts.ReviewHeading,
		CompletionTitle: opts.CompletionTitle,
		Completion:      opts.Completion,
		Logger:          log,
	})
	log.Debug("pruned review section", zap.Int("blocks", len(pruned)))

	filtered := review.RemoveInstructionCallouts(pruned)
	log.Debug("removed instruction callouts", zap.Int("removed", len(pruned)-len(filtered)))
	return filtered
}

// Parse converts markdown into a flat block sequence. Invalid blocks are
// dropped; Parse never fails.
func Parse(markdown string, opts Options) []types.Block {
	opts = opts.withDefaults()
	p := &parser{reviewHeading: opts.ReviewHeading, codeLang: types.DefaultCodeLanguage}
	for _, raw := range splitLines(markdown) {
		p.line(raw)
	}
	p.flushParagraph()
	p.flushCode()
	return Validate(p.blocks, opts.Logger)
}

// Validate returns the blocks whose type tag and payload agree, preserving
// order. Dropped blocks are logged at debug level.
func Validate(blocks []types.Block, log *zap.Logger) []types.Block {
	if log == nil {
		log = zap.NewNop()
	}
	valid := make([]types.Block, 0, len(blocks))
	for i, b := range blocks {
		if err := b.Validate(i); err != nil {
			log.Debug("dropping malformed block", zap.Int("index", i), zap.Error(err))
			continue
		}
		valid = append(valid, b)
	}
	return valid
}

// splitLines splits on \n, \r\n and \r. A single trailing newline does not
// produce an extra empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// parser holds the state of one Parse call. The heading context records
// the most recent heading_2 and heading_3 texts; has* flags distinguish an
// absent heading from an empty one.
type parser struct {
	reviewHeading string
	blocks        []types.Block

	paragraph []string

	inCode   bool
	codeLang string
	code     []string

	h2, h3       string
	hasH2, hasH3 bool
}

func (p *parser) emit(b types.Block) {
	p.blocks = append(p.blocks, b)
}

func (p *parser) line(raw string) {
	line := strings.TrimRightFunc(raw, unicode.IsSpace)
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fence) {
		if p.inCode {
			p.flushCode()
			return
		}
		p.flushParagraph()
		p.inCode = true
		p.codeLang = strings.TrimSpace(trimmed[len(fence):])
		if p.codeLang == "" {
			p.codeLang = types.DefaultCodeLanguage
		}
		p.code = nil
		return
	}

	if p.inCode {
		p.code = append(p.code, raw)
		return
	}

	if trimmed == "" {
		p.flushParagraph()
		return
	}

	switch {
	case strings.HasPrefix(line, "#"):
		p.flushParagraph()
		p.heading(line)

	case strings.HasPrefix(line, ">"):
		p.flushParagraph()
		if content := strings.TrimSpace(line[1:]); content != "" {
			p.emit(types.NewQuote(content, p.textColor(content)))
		}

	case strings.HasPrefix(line, "---"):
		p.flushParagraph()
		p.emit(types.NewDivider())

	case strings.HasPrefix(line, "- [") && strings.Contains(line, "]"):
		p.flushParagraph()
		closing := strings.Index(line, "]")
		marker := strings.ToLower(strings.TrimSpace(line[3:closing]))
		checked := marker == "x" || marker == "✓" || marker == "done"
		if content := strings.TrimSpace(line[closing+1:]); content != "" {
			p.emit(types.NewToDo(content, checked, p.textColor(content)))
		}

	case strings.HasPrefix(line, "- "):
		p.flushParagraph()
		if content := strings.TrimSpace(line[2:]); content != "" {
			p.emit(types.NewBulleted(content, p.textColor(content)))
		}

	case numberedPrefix.MatchString(line):
		p.flushParagraph()
		if content := strings.TrimSpace(numberedPrefix.ReplaceAllString(line, "")); content != "" {
			p.emit(types.NewNumbered(content, p.textColor(content)))
		}

	case strings.HasPrefix(line, types.CalloutEmoji):
		p.flushParagraph()
		if content := strings.TrimSpace(strings.TrimPrefix(line, types.CalloutEmoji)); content != "" {
			p.emit(types.NewCallout(content, explicitColor(content)))
		}

	default:
		p.paragraph = append(p.paragraph, line)
	}
}

func (p *parser) heading(line string) {
	content := strings.TrimLeft(line, "#")
	level := len(line) - len(content)
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	level = min(max(level, 1), 3)
	p.emit(types.NewHeading(level, content))

	switch level {
	case 1:
		p.h2, p.hasH2 = "", false
		p.h3, p.hasH3 = "", false
	case 2:
		p.h2, p.hasH2 = content, true
		p.h3, p.hasH3 = "", false
	default:
		p.h3, p.hasH3 = content, true
	}
}

func (p *parser) flushParagraph() {
	if len(p.paragraph) == 0 {
		return
	}
	text := strings.TrimSpace(strings.Join(p.paragraph, " "))
	p.paragraph = p.paragraph[:0]
	if text == "" {
		return
	}
	p.emit(types.NewParagraph(text, p.textColor(text)))
}

func (p *parser) flushCode() {
	if !p.inCode {
		return
	}
	source := strings.Join(p.code, "\n")
	if strings.TrimSpace(source) != "" {
		p.emit(types.NewCode(source, p.codeLang))
	}
	p.inCode = false
	p.codeLang = types.DefaultCodeLanguage
	p.code = nil
}

// textColor applies the explicit red markers, then the review-context rule.
func (p *parser) textColor(text string) types.Color {
	if c := explicitColor(text); c == types.ColorRed {
		return c
	}
	if p.hasH2 && p.h2 == p.reviewHeading && p.hasH3 && flaggedSubsections[p.h3] {
		return types.ColorRed
	}
	return types.ColorDefault
}

// explicitColor is red when text carries 🔴 or starts with 【レビュー】.
func explicitColor(text string) types.Color {
	text = strings.TrimSpace(text)
	if strings.Contains(text, redGlyph) || strings.HasPrefix(text, reviewMarker) {
		return types.ColorRed
	}
	return types.ColorDefault
}
