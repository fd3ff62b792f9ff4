// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notion-formatter/internal/config"
	"github.com/pdiddy/notion-formatter/internal/history"
	"github.com/pdiddy/notion-formatter/internal/notion"
	"github.com/pdiddy/notion-formatter/internal/styles"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded formatter runs",
	Long: `History lists, shows and exports the runs recorded by format. Each run keeps
the page's Markdown from before and after the replacement; use
"history show <id> --before" to recover a page's previous content.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run (a unique ID prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs with their Markdown snapshots as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

func init() {
	historyListCmd.Flags().String("page-id", "", "only runs for this page ID or URL")
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().Bool("before", false, "print only the Markdown from before the run")
	historyShowCmd.Flags().Bool("after", false, "print only the Markdown written by the run")

	historyExportCmd.Flags().String("page-id", "", "only runs for this page ID or URL")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	path := settings.GetString(config.KeyHistoryDB)
	if path == "" {
		return nil, fmt.Errorf("history is disabled (HISTORY_DB is empty)")
	}
	return history.Open(path)
}

// pageFilter normalises an optional --page-id flag.
func pageFilter(cmd *cobra.Command) (string, error) {
	ref, _ := cmd.Flags().GetString("page-id")
	if ref == "" {
		return "", nil
	}
	return notion.NormalizeID(ref)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	pageID, err := pageFilter(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), history.ListOptions{PageID: pageID, Limit: limit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		if runs == nil {
			runs = []types.Run{}
		}
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	writeRunTable(out, runs)
	return nil
}

func writeRunTable(w io.Writer, runs []types.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, styles.DimStyle.Render("no runs recorded"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"ID", "STARTED", "STATUS", "PAGE", "BLOCKS", "REVIEW"}
	for i, h := range header {
		header[i] = styles.HeaderStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range runs {
		outcome := "-"
		if r.Status == types.RunApplied {
			outcome = styles.Completion(r.IsComplete)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			styles.IDStyle.Render(shortID(r.ID)),
			r.StartedAt.Local().Format(time.DateTime),
			styles.RunStatus(r.Status),
			r.PageID,
			r.BlockCount,
			outcome)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	before, _ := cmd.Flags().GetBool("before")
	after, _ := cmd.Flags().GetBool("after")
	if before && after {
		return fmt.Errorf("--before and --after are mutually exclusive")
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case before:
		fmt.Fprintln(out, run.BeforeMarkdown)
	case after:
		fmt.Fprintln(out, run.AfterMarkdown)
	default:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	pageID, err := pageFilter(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	output, _ := cmd.Flags().GetString("output")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	opts := history.ListOptions{PageID: pageID}
	if format == "json" {
		return store.ExportJSON(cmd.Context(), out, opts)
	}
	return store.ExportYAML(cmd.Context(), out, opts)
}
