// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notion-formatter CLI.
// It reformats a Notion requirement page against a template page and
// appends the model's review of the draft.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/notion-formatter/internal/config"
	"github.com/pdiddy/notion-formatter/internal/logging"
	"github.com/pdiddy/notion-formatter/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// settings holds every configuration source; flags are bound to it
	// in each command's init.
	settings = config.New()

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = zap.NewNop()
)

// rootCmd is the base command for the notion-formatter CLI.
var rootCmd = &cobra.Command{
	Use:   "notion-formatter",
	Short: "Format Notion requirement pages and append an AI review",
	Long: `notion-formatter reads a draft requirement page, asks an OpenAI model to
rewrite it in the shape of a template page, and replaces the draft's content
with the result, including a review section listing what is still missing.

Settings come from environment variables (NOTION_API_KEY, OPENAI_API_KEY,
NOTION_TEMPLATE_PAGE_ID, ...), a .env file, an optional YAML config file,
and .secrets/ for API keys.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env-file")
		used, err := config.ReadFiles(settings, cfgFile, envFile)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("log-format")
		logger, err = logging.New(logging.Options{
			Format: format,
			Debug:  settings.GetBool(config.KeyDebugMarkdown),
		})
		if err != nil {
			return err
		}
		if used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", secrets.Names(s)))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./notion-formatter.yaml or ~/.config/notion-formatter/config.yaml)")
	flags.String("env-file", config.DefaultEnvFile, "dotenv file to read; missing files are ignored")
	flags.String("log-format", logging.FormatConsole, "log format: console or json")
	flags.Bool("debug", false, "enable debug logging (also DEBUG_MARKDOWN_CONVERTER=true)")
	_ = settings.BindPFlag(config.KeyDebugMarkdown, flags.Lookup("debug"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[notion-formatter] ERROR: %v\n", err)
		os.Exit(1)
	}
}
