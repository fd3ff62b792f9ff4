// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/notion-formatter/internal/config"
	"github.com/pdiddy/notion-formatter/internal/convert"
	"github.com/pdiddy/notion-formatter/internal/notion"
)

var renderCmd = &cobra.Command{
	Use:   "render <page-id-or-url>",
	Short: "Print a Notion page as Markdown",
	Long: `Render fetches a page's block tree and prints it in the Markdown dialect the
formatter sends to the model. Nested blocks are indented two spaces per
level. Use it to inspect what the model will see for a template or draft.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	pageID, err := notion.NormalizeID(args[0])
	if err != nil {
		return err
	}
	nc, err := config.LoadNotion(settings, loadedSecrets)
	if err != nil {
		return err
	}

	client := notion.New(nc, logger.Named("notion"))
	md, err := convert.RenderPage(cmd.Context(), client, pageID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), md)
	return nil
}
