// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notion-formatter/internal/config"
	"github.com/pdiddy/notion-formatter/internal/convert"
	"github.com/pdiddy/notion-formatter/internal/review"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Convert Markdown to Notion blocks without calling any API",
	Long: `Parse reads Markdown from a file (or stdin) and prints the Notion blocks the
formatter would write. The review section is pruned using --complete:
"true" keeps the completion subsection, "false" drops it, and leaving it
empty keeps it only when it has content.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("review-heading", "", "heading_2 text of the review section (default: env REVIEW_SECTION_HEADING or AIレビュー結果)")
	parseCmd.Flags().String("complete", "", "review outcome: true, false or empty for unknown")
	parseCmd.Flags().Bool("no-prune", false, "skip review pruning and instruction callout removal")
	parseCmd.Flags().Bool("yaml", false, "output YAML instead of JSON")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading markdown: %w", err)
	}

	rc := config.LoadReview(settings)
	heading, _ := cmd.Flags().GetString("review-heading")
	if heading == "" {
		heading = rc.SectionHeading
	}
	raw, _ := cmd.Flags().GetString("complete")
	completion, ok := review.ParseCompletion(raw)
	if !ok {
		return fmt.Errorf("invalid --complete value %q (want true, false or empty)", raw)
	}
	noPrune, _ := cmd.Flags().GetBool("no-prune")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	opts := convert.Options{
		ReviewHeading:   heading,
		CompletionTitle: rc.CompletionPhrase,
		Completion:      completion,
		Logger:          logger,
	}
	var blocks []types.Block
	if noPrune {
		blocks = convert.Parse(string(data), opts)
	} else {
		blocks = convert.MarkdownToBlocks(string(data), opts)
	}
	return writeBlocks(cmd.OutOrStdout(), blocks, asYAML)
}

func writeBlocks(w io.Writer, blocks []types.Block, asYAML bool) error {
	if blocks == nil {
		blocks = []types.Block{}
	}
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(blocks); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(blocks)
}
