package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
)

var (
	verbose    bool
	configPath string
	storeRoot  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transcriptd",
	Short: "Serve and inspect merged AI-agent session transcripts",
	Long: `transcriptd reads JSONL session transcripts (main session plus
subagents) out of an object store and merges them into one
chronologically ordered timeline.

Commands:
  transcriptd serve                    # HTTP API for merged timelines
  transcriptd list                     # List sessions in the store
  transcriptd show <session-id>        # Render a merged timeline
  transcriptd export <session-id>      # Export a timeline (json, jsonl, md, yaml)
  transcriptd healthcheck              # Verify store access`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.transcriptd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeRoot, "store", "", "Override the store root directory (implies the dir backend)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if storeRoot != "" {
		cfg.Store.Backend = "dir"
		cfg.Store.Root = storeRoot
	}
	if cfg.Log.File != "" {
		internal.SetLogFile(cfg.Log.File)
	}
	return cfg, nil
}

// openMerger opens the configured store and wraps it in a merger.
func openMerger() (*internal.Merger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	return internal.NewMerger(store, cfg.Store.Prefix), nil
}
