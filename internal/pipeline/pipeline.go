// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one formatting pass over a Notion page: it reads
// the template, the draft and the optional review guidelines, asks the
// model for a reformatted document, converts the reply to blocks, and
// writes them back in place of the draft's content.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/notion-formatter/internal/convert"
	"github.com/pdiddy/notion-formatter/internal/generate"
	"github.com/pdiddy/notion-formatter/internal/notion"
	"github.com/pdiddy/notion-formatter/internal/review"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

// Store is the document store. *notion.Client implements it.
type Store interface {
	convert.ChildSource
	ReplaceContent(ctx context.Context, pageID string, blocks []types.Block) (notion.ReplaceResult, error)
	UpdateStatus(ctx context.Context, pageID, property, option string) error
}

// Generator produces the formatted document. *generate.Generator
// implements it.
type Generator interface {
	Generate(ctx context.Context, p generate.Prompts) (generate.Result, error)
}

// Recorder keeps a history of page replacements. *history.Store
// implements it.
type Recorder interface {
	Begin(ctx context.Context, run types.Run) (types.Run, error)
	Finish(ctx context.Context, run types.Run) error
}

// Error is returned when a run cannot proceed: a missing or malformed
// page ID, unusable configuration, or a generated document with no
// blocks. The page is never modified when Error is returned.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// Wrap turns err into an *Error carrying the same message. Errors that
// already are *Error are returned unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Msg: err.Error(), Err: err}
}

// Request identifies the page to format.
type Request struct {
	PageID string

	// TemplatePageID overrides the configured template page.
	TemplatePageID string

	// DryRun stops after conversion; nothing is written.
	DryRun bool
}

// Result summarises a run.
type Result struct {
	RunID             string
	PageID            string
	TemplatePageID    string
	ReviewPageID      string
	IsComplete        bool
	CompletionMessage string
	BlockCount        int

	// Markdown is the converted document rendered back to Markdown,
	// which is what the page holds after the run.
	Markdown string

	Replace      notion.ReplaceResult
	StatusUpdate string
}

// Pipeline sequences a formatting run. Recorder may be nil.
type Pipeline struct {
	Store     Store
	Generator Generator
	Recorder  Recorder
	Config    types.Config
	Logger    *zap.Logger
}

func (p *Pipeline) log() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run formats req.PageID. Any error returned before the replace step
// leaves the page untouched.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	log := p.log()

	if req.PageID == "" {
		return Result{}, &Error{Msg: "Target Notion page ID is required."}
	}
	pageID, err := notion.NormalizeID(req.PageID)
	if err != nil {
		return Result{}, &Error{Msg: fmt.Sprintf("target page: %v", err), Err: err}
	}

	templateRef := req.TemplatePageID
	if templateRef == "" {
		templateRef = p.Config.Notion.TemplatePageID
	}
	if templateRef == "" {
		return Result{}, &Error{Msg: "Template Notion page ID is required."}
	}
	templateID, err := notion.NormalizeID(templateRef)
	if err != nil {
		return Result{}, &Error{Msg: fmt.Sprintf("template page: %v", err), Err: err}
	}

	var reviewID string
	if ref := p.Config.Notion.ReviewPageID; ref != "" {
		if reviewID, err = notion.NormalizeID(ref); err != nil {
			return Result{}, &Error{Msg: fmt.Sprintf("review page: %v", err), Err: err}
		}
	}

	res := Result{PageID: pageID, TemplatePageID: templateID, ReviewPageID: reviewID}
	log = log.With(zap.String("page_id", pageID))

	pages, err := p.fetch(ctx, templateID, pageID, reviewID)
	if err != nil {
		return res, err
	}
	log.Info("fetched pages",
		zap.Int("template_chars", len(pages.template)),
		zap.Int("draft_chars", len(pages.draft)),
		zap.Bool("guidelines", reviewID != ""))

	prompts, err := generate.BuildPrompts(generate.PromptInput{
		TemplateMarkdown: pages.template,
		PageMarkdown:     pages.draft,
		ReviewGuidelines: pages.guidelines,
		ReviewHeading:    p.Config.Review.SectionHeading,
		CompletionPhrase: p.Config.Review.CompletionPhrase,
	})
	if err != nil {
		return res, err
	}

	gen, err := p.Generator.Generate(ctx, prompts)
	if err != nil {
		return res, err
	}
	res.IsComplete = gen.IsComplete
	res.CompletionMessage = gen.CompletionMessage

	blocks := convert.MarkdownToBlocks(gen.FormattedMarkdown, convert.Options{
		ReviewHeading:   p.Config.Review.SectionHeading,
		CompletionTitle: p.Config.Review.CompletionPhrase,
		Completion:      review.CompletionOf(gen.IsComplete),
		Logger:          log,
	})
	if len(blocks) == 0 {
		return res, &Error{Msg: "AI returned empty document; refusing to overwrite the page."}
	}
	res.BlockCount = len(blocks)
	if res.Markdown, err = convert.Render(ctx, nil, blocks); err != nil {
		return res, err
	}

	if req.DryRun {
		log.Info("dry run, page not modified", zap.Int("blocks", res.BlockCount))
		return res, nil
	}
	return p.apply(ctx, log, res, pages.draft, blocks)
}

type fetched struct {
	template, draft, guidelines string
}

// fetch renders the template, draft and guideline pages concurrently.
func (p *Pipeline) fetch(ctx context.Context, templateID, pageID, reviewID string) (fetched, error) {
	var out fetched
	g, gctx := errgroup.WithContext(ctx)
	render := func(id string, dst *string) func() error {
		return func() error {
			md, err := convert.RenderPage(gctx, p.Store, id)
			if err != nil {
				return err
			}
			*dst = md
			return nil
		}
	}
	g.Go(render(templateID, &out.template))
	g.Go(render(pageID, &out.draft))
	if reviewID != "" {
		g.Go(render(reviewID, &out.guidelines))
	}
	if err := g.Wait(); err != nil {
		return fetched{}, err
	}
	return out, nil
}

// apply records the draft, replaces the page content, updates the status
// property and closes the history record.
func (p *Pipeline) apply(ctx context.Context, log *zap.Logger, res Result, before string, blocks []types.Block) (Result, error) {
	run := types.Run{
		PageID:         res.PageID,
		TemplatePageID: res.TemplatePageID,
		ReviewPageID:   res.ReviewPageID,
		BeforeMarkdown: before,
	}
	if p.Recorder != nil {
		started, err := p.Recorder.Begin(ctx, run)
		if err != nil {
			return res, fmt.Errorf("recording run: %w", err)
		}
		run = started
		res.RunID = run.ID
	}

	replaced, err := p.Store.ReplaceContent(ctx, res.PageID, blocks)
	res.Replace = replaced
	if err == nil {
		log.Info("replaced page content",
			zap.Int("archived", replaced.Archived),
			zap.Int("preserved", replaced.Preserved),
			zap.Int("appended", replaced.Appended))
		err = p.updateStatus(ctx, log, &res)
	}

	run.IsComplete = res.IsComplete
	run.CompletionMessage = res.CompletionMessage
	run.BlockCount = res.BlockCount
	run.Archived = replaced.Archived
	run.Preserved = replaced.Preserved
	run.AfterMarkdown = res.Markdown
	if err != nil {
		run.Error = err.Error()
	}
	if p.Recorder != nil {
		if ferr := p.Recorder.Finish(context.WithoutCancel(ctx), run); ferr != nil {
			log.Warn("could not finish history record", zap.String("run", run.ID), zap.Error(ferr))
		}
	}
	return res, err
}

func (p *Pipeline) updateStatus(ctx context.Context, log *zap.Logger, res *Result) error {
	cfg := p.Config.Notion
	if !cfg.StatusEnabled() {
		return nil
	}
	value := cfg.StatusValue(res.IsComplete)
	if err := p.Store.UpdateStatus(ctx, res.PageID, cfg.StatusProperty, value); err != nil {
		return fmt.Errorf("updating %s: %w", cfg.StatusProperty, err)
	}
	res.StatusUpdate = value
	log.Info("updated status", zap.String("property", cfg.StatusProperty), zap.String("value", value))
	return nil
}
