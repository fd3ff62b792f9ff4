// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/notion-formatter/internal/generate"
	"github.com/pdiddy/notion-formatter/internal/notion"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

const (
	pageID     = "11111111-1111-1111-1111-111111111111"
	templateID = "22222222-2222-2222-2222-222222222222"
	reviewID   = "33333333-3333-3333-3333-333333333333"
)

const generated = `# 要件定義
背景の説明
## AIレビュー結果
### ❌ 不足している項目
- 予算
### ⚠️ 改善が必要な項目
### 🎉 完璧です
- なし`

type fakeStore struct {
	mu         sync.Mutex
	pages      map[string][]types.Block
	fetched    []string
	replaced   []types.Block
	replacedID string
	statuses   [][3]string
	replaceErr error
	statusErr  error
	childErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{pages: map[string][]types.Block{
		templateID: {types.NewHeading(1, "テンプレート"), types.NewHeading(2, "背景")},
		pageID:     {types.NewParagraph("在庫管理を効率化したい", types.ColorDefault)},
		reviewID:   {types.NewBulleted("非機能要件を確認する", types.ColorDefault)},
	}}
}

func (s *fakeStore) Children(_ context.Context, id string) ([]types.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, id)
	if s.childErr != nil {
		return nil, s.childErr
	}
	return s.pages[id], nil
}

func (s *fakeStore) ReplaceContent(_ context.Context, id string, blocks []types.Block) (notion.ReplaceResult, error) {
	s.replacedID = id
	s.replaced = blocks
	if s.replaceErr != nil {
		return notion.ReplaceResult{Archived: 1}, s.replaceErr
	}
	return notion.ReplaceResult{Archived: 3, Preserved: 1, Appended: len(blocks)}, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id, property, option string) error {
	s.statuses = append(s.statuses, [3]string{id, property, option})
	return s.statusErr
}

type fakeGenerator struct {
	result  generate.Result
	err     error
	prompts generate.Prompts
}

func (g *fakeGenerator) Generate(_ context.Context, p generate.Prompts) (generate.Result, error) {
	g.prompts = p
	return g.result, g.err
}

type fakeRecorder struct {
	begun    []types.Run
	finished []types.Run
	beginErr error
}

func (r *fakeRecorder) Begin(_ context.Context, run types.Run) (types.Run, error) {
	if r.beginErr != nil {
		return run, r.beginErr
	}
	run.ID = "run-1"
	run.Status = types.RunStarted
	r.begun = append(r.begun, run)
	return run, nil
}

func (r *fakeRecorder) Finish(_ context.Context, run types.Run) error {
	r.finished = append(r.finished, run)
	return nil
}

func testConfig() types.Config {
	return types.Config{
		Notion: types.NotionConfig{
			TemplatePageID:      templateID,
			StatusProperty:      "レビュー状況",
			StatusCompleteValue: "完了",
			StatusRejectedValue: "差し戻し",
		},
		Review: types.ReviewConfig{
			SectionHeading:   "AIレビュー結果",
			CompletionPhrase: "🎉 完璧です",
		},
	}
}

func newPipeline(store *fakeStore, gen *fakeGenerator, rec *fakeRecorder) *Pipeline {
	p := &Pipeline{Store: store, Generator: gen, Config: testConfig()}
	if rec != nil {
		p.Recorder = rec
	}
	return p
}

func TestRun_Success(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{result: generate.Result{
		FormattedMarkdown: generated,
		IsComplete:        false,
		CompletionMessage: "予算の記載が必要です",
	}}
	rec := &fakeRecorder{}

	res, err := newPipeline(store, gen, rec).Run(context.Background(), Request{PageID: strings.ReplaceAll(pageID, "-", "")})
	require.NoError(t, err)

	assert.Equal(t, pageID, res.PageID)
	assert.Equal(t, templateID, res.TemplatePageID)
	assert.Empty(t, res.ReviewPageID)
	assert.False(t, res.IsComplete)
	assert.Equal(t, "予算の記載が必要です", res.CompletionMessage)
	assert.Equal(t, 5, res.BlockCount)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "差し戻し", res.StatusUpdate)
	assert.Equal(t, notion.ReplaceResult{Archived: 3, Preserved: 1, Appended: 5}, res.Replace)

	assert.ElementsMatch(t, []string{templateID, pageID}, store.fetched)
	assert.Contains(t, gen.prompts.User, "# テンプレート\n## 背景")
	assert.Contains(t, gen.prompts.User, "在庫管理を効率化したい")
	assert.NotContains(t, gen.prompts.User, "レビュー観点ガイドライン")

	assert.Equal(t, pageID, store.replacedID)
	require.Len(t, store.replaced, 5)
	assert.Equal(t, types.BlockHeading1, store.replaced[0].Type)
	assert.Equal(t, "❌ 不足している項目", store.replaced[3].Text())
	assert.Equal(t, types.ColorRed, store.replaced[4].BulletedListItem.RichText[0].Color())
	assert.NotContains(t, res.Markdown, "🎉 完璧です")
	assert.NotContains(t, res.Markdown, "改善が必要な項目")

	assert.Equal(t, [][3]string{{pageID, "レビュー状況", "差し戻し"}}, store.statuses)

	require.Len(t, rec.begun, 1)
	assert.Equal(t, "在庫管理を効率化したい", rec.begun[0].BeforeMarkdown)
	require.Len(t, rec.finished, 1)
	fin := rec.finished[0]
	assert.Equal(t, "run-1", fin.ID)
	assert.Empty(t, fin.Error)
	assert.Equal(t, 5, fin.BlockCount)
	assert.Equal(t, 3, fin.Archived)
	assert.Equal(t, res.Markdown, fin.AfterMarkdown)
}

func TestRun_CompleteKeepsCelebration(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{result: generate.Result{FormattedMarkdown: generated, IsComplete: true, CompletionMessage: "🎉 完璧です"}}

	p := newPipeline(store, gen, nil)
	p.Config.Notion.ReviewPageID = reviewID
	res, err := p.Run(context.Background(), Request{PageID: pageID})
	require.NoError(t, err)

	assert.Equal(t, reviewID, res.ReviewPageID)
	assert.Contains(t, res.Markdown, "### 🎉 完璧です")
	assert.Equal(t, 7, res.BlockCount)
	assert.Equal(t, "完了", res.StatusUpdate)
	assert.Empty(t, res.RunID)
	assert.ElementsMatch(t, []string{templateID, pageID, reviewID}, store.fetched)
	assert.Contains(t, gen.prompts.User, "## レビュー観点ガイドライン\n- 非機能要件を確認する")
}

func TestRun_TemplateOverride(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文"}}

	p := newPipeline(store, gen, nil)
	p.Config.Notion.TemplatePageID = ""
	res, err := p.Run(context.Background(), Request{PageID: pageID, TemplatePageID: "https://www.notion.so/Template-" + strings.ReplaceAll(templateID, "-", "")})
	require.NoError(t, err)
	assert.Equal(t, templateID, res.TemplatePageID)
}

func TestRun_StatusDisabled(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文", IsComplete: true}}

	p := newPipeline(store, gen, nil)
	p.Config.Notion.StatusProperty = ""
	res, err := p.Run(context.Background(), Request{PageID: pageID})
	require.NoError(t, err)
	assert.Empty(t, store.statuses)
	assert.Empty(t, res.StatusUpdate)
	assert.Len(t, store.replaced, 1)
}

func TestRun_DryRun(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{result: generate.Result{FormattedMarkdown: generated}}
	rec := &fakeRecorder{}

	res, err := newPipeline(store, gen, rec).Run(context.Background(), Request{PageID: pageID, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 5, res.BlockCount)
	assert.NotEmpty(t, res.Markdown)
	assert.Nil(t, store.replaced)
	assert.Empty(t, store.statuses)
	assert.Empty(t, rec.begun)
}

func TestRun_PipelineErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		mutate  func(p *Pipeline)
		wantMsg string
	}{
		{
			name:    "missing page id",
			req:     Request{},
			wantMsg: "Target Notion page ID is required.",
		},
		{
			name:    "invalid page id",
			req:     Request{PageID: "not-a-page"},
			wantMsg: "target page",
		},
		{
			name:    "missing template id",
			req:     Request{PageID: pageID},
			mutate:  func(p *Pipeline) { p.Config.Notion.TemplatePageID = "" },
			wantMsg: "Template Notion page ID is required.",
		},
		{
			name:    "invalid review id",
			req:     Request{PageID: pageID},
			mutate:  func(p *Pipeline) { p.Config.Notion.ReviewPageID = "???" },
			wantMsg: "review page",
		},
		{
			name: "empty generated document",
			req:  Request{PageID: pageID},
			mutate: func(p *Pipeline) {
				p.Generator = &fakeGenerator{result: generate.Result{FormattedMarkdown: "\n\n"}}
			},
			wantMsg: "AI returned empty document; refusing to overwrite the page.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			p := newPipeline(store, &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文"}}, nil)
			if tt.mutate != nil {
				tt.mutate(p)
			}
			_, err := p.Run(context.Background(), tt.req)
			require.Error(t, err)
			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Nil(t, store.replaced, "page must not be written")
		})
	}
}

func TestRun_GeneratorErrorPassesThrough(t *testing.T) {
	store := newFakeStore()
	svcErr := &generate.ServiceError{Msg: "OpenAI API retry attempts exhausted (3)", Exhausted: true}
	p := newPipeline(store, &fakeGenerator{err: svcErr}, nil)

	_, err := p.Run(context.Background(), Request{PageID: pageID})
	assert.True(t, generate.IsServiceError(err))
	assert.Nil(t, store.replaced)
}

func TestRun_FetchError(t *testing.T) {
	store := newFakeStore()
	store.childErr = errors.New("HTTP 404")
	gen := &fakeGenerator{}

	_, err := newPipeline(store, gen, nil).Run(context.Background(), Request{PageID: pageID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Empty(t, gen.prompts.User, "generator must not be called")
}

func TestRun_ReplaceErrorIsRecorded(t *testing.T) {
	store := newFakeStore()
	store.replaceErr = errors.New("archiving block: HTTP 502")
	rec := &fakeRecorder{}

	_, err := newPipeline(store, &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文"}}, rec).
		Run(context.Background(), Request{PageID: pageID})
	require.ErrorIs(t, err, store.replaceErr)
	assert.Empty(t, store.statuses, "status is not updated after a failed replace")

	require.Len(t, rec.finished, 1)
	assert.Equal(t, "archiving block: HTTP 502", rec.finished[0].Error)
	assert.Equal(t, 1, rec.finished[0].Archived)
}

func TestRun_StatusErrorIsRecorded(t *testing.T) {
	store := newFakeStore()
	store.statusErr = errors.New("validation_error")
	rec := &fakeRecorder{}

	_, err := newPipeline(store, &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文"}}, rec).
		Run(context.Background(), Request{PageID: pageID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating レビュー状況")
	require.Len(t, rec.finished, 1)
	assert.Contains(t, rec.finished[0].Error, "validation_error")
}

func TestRun_RecorderBeginFailureAborts(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{beginErr: errors.New("disk full")}

	_, err := newPipeline(store, &fakeGenerator{result: generate.Result{FormattedMarkdown: "本文"}}, rec).
		Run(context.Background(), Request{PageID: pageID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording run")
	assert.Nil(t, store.replaced)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil))

	base := errors.New("configuration: NOTION_API_KEY is required")
	err := Wrap(base)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, base.Error(), err.Error())
	assert.ErrorIs(t, err, base)

	assert.Same(t, pe, Wrap(err).(*Error))
}
