// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/notion-formatter/internal/config"
	"github.com/pdiddy/notion-formatter/internal/generate"
	"github.com/pdiddy/notion-formatter/internal/history"
	"github.com/pdiddy/notion-formatter/internal/notion"
	"github.com/pdiddy/notion-formatter/internal/pipeline"
	"github.com/pdiddy/notion-formatter/internal/styles"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Reformat a requirement page and append the AI review",
	Long: `Format fetches the template page, the target page and the optional review
guideline page, asks the model to rewrite the target in the template's shape,
and replaces the target page's content with the result. The first block,
buttons and template callouts on the page are kept. The page's status
property is set to the complete or rejected value afterwards.

Each run is recorded in the history database with the page's previous
content, so a failed replacement can be restored by hand.`,
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().String("page-id", "", "target Notion page ID or URL (default: env NOTION_TARGET_PAGE_ID)")
	formatCmd.Flags().String("template-page-id", "", "template Notion page ID or URL (default: env NOTION_TEMPLATE_PAGE_ID)")
	formatCmd.Flags().Bool("json", false, "output the result as JSON (for GitHub Actions consumption)")
	formatCmd.Flags().Bool("dry-run", false, "print the converted document without writing to Notion")
	formatCmd.Flags().Bool("no-history", false, "do not record the run in the history database")
	_ = settings.BindPFlag(config.KeyTargetPageID, formatCmd.Flags().Lookup("page-id"))
	_ = settings.BindPFlag(config.KeyTemplatePageID, formatCmd.Flags().Lookup("template-page-id"))

	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	cfg, err := config.Load(settings, loadedSecrets)
	if err != nil {
		return pipeline.Wrap(err)
	}

	p := &pipeline.Pipeline{
		Store: notion.New(cfg.Notion, logger.Named("notion")),
		Generator: &generate.Generator{
			Backend:     generate.NewOpenAIBackend(cfg.AI),
			MaxAttempts: cfg.AI.RetryLimit,
			Logger:      logger.Named("generate"),
		},
		Config: cfg,
		Logger: logger,
	}
	if !dryRun && !noHistory && cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		p.Recorder = store
	}

	res, err := p.Run(cmd.Context(), pipeline.Request{
		PageID: settings.GetString(config.KeyTargetPageID),
		DryRun: dryRun,
	})
	if err != nil {
		if res.RunID != "" {
			logger.Error("run recorded as failed", zap.String("run", res.RunID))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, res, dryRun)
	}
	if dryRun {
		fmt.Fprintln(out, res.Markdown)
		fmt.Fprintln(out)
	}
	writeSummary(out, res, dryRun)
	return nil
}

// formatOutput is the --json payload. review_page_id is null when no
// guideline page is configured.
type formatOutput struct {
	PageID            string  `json:"page_id"`
	TemplatePageID    string  `json:"template_page_id"`
	ReviewPageID      *string `json:"review_page_id"`
	IsComplete        bool    `json:"is_complete"`
	CompletionMessage string  `json:"completion_message"`
	UpdatedBlockCount int     `json:"updated_block_count"`
	RunID             string  `json:"run_id,omitempty"`
	DryRun            bool    `json:"dry_run,omitempty"`
	Markdown          string  `json:"markdown,omitempty"`
}

func writeJSON(w io.Writer, res pipeline.Result, dryRun bool) error {
	payload := formatOutput{
		PageID:            res.PageID,
		TemplatePageID:    res.TemplatePageID,
		IsComplete:        res.IsComplete,
		CompletionMessage: res.CompletionMessage,
		UpdatedBlockCount: res.BlockCount,
		RunID:             res.RunID,
	}
	if res.ReviewPageID != "" {
		payload.ReviewPageID = &res.ReviewPageID
	}
	if dryRun {
		payload.DryRun = true
		payload.Markdown = res.Markdown
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func writeSummary(w io.Writer, res pipeline.Result, dryRun bool) {
	label := "更新完了"
	if dryRun {
		label = "プレビュー"
	}
	review := ""
	if res.ReviewPageID != "" {
		review = " review=" + res.ReviewPageID
	}
	fmt.Fprintf(w, "[notion-formatter] %s: page=%s%s blocks=%d status=%s message=%s\n",
		label, res.PageID, review, res.BlockCount, styles.Completion(res.IsComplete), res.CompletionMessage)
}
