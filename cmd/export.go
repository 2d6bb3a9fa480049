package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/transcriptd/transcriptd/internal"
	"github.com/transcriptd/transcriptd/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportAll    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export merged timelines to file",
	Long: `Export a session's merged timeline in one of several formats
(jsonl, md, yaml, json).

With a session id the timeline is written to stdout or --output. With
--all, every session in the store is exported into the --output
directory, one file per session. Use 'transcriptd list' to see available
session ids.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportAll == (len(args) == 1) {
			return fmt.Errorf("provide either a session id or --all")
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		merger, err := openMerger()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		ctx := context.Background()

		if !exportAll {
			return exportOne(ctx, merger, exporter, args[0], exportOutput)
		}

		ids, err := merger.Sessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		outDir := exportOutput
		if outDir == "" {
			outDir = "."
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		for _, id := range ids {
			path := filepath.Join(outDir, id+"."+exporter.Extension())
			if err := exportOne(ctx, merger, exporter, id, path); err != nil {
				return err
			}
			internal.LogInfo("Exported %s -> %s", id, path)
		}
		fmt.Printf("Exported %d session(s) to %s\n", len(ids), outDir)
		return nil
	},
}

func exportOne(ctx context.Context, merger *internal.Merger, exporter export.Exporter, sessionID, output string) error {
	timeline, err := merger.Merge(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to merge session %s: %w", sessionID, err)
	}

	if output == "" {
		return exporter.Export(timeline, os.Stdout)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer file.Close()

	if err := exporter.Export(timeline, file); err != nil {
		return fmt.Errorf("failed to export %s: %w", sessionID, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (or directory with --all)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session in the store")
}
