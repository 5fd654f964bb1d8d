package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/internal/export"
)

var (
	format         string
	outputDir      string
	sessionID      string
	exportAll      bool
	exportArchived bool
	exportCategory string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions to file",
	Long: `Export saved chat sessions to various formats (jsonl, md, yaml, json).

Each session is written to its own file, alongside a sessions.yaml index.
Archived sessions are skipped unless --archived or --all is given.
Use 'mm-search-bot sessions list' to see available session IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := export.NewArchive(outputDir, format)
		if err != nil {
			return err
		}

		paths, err := internal.GetStoragePaths(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to get storage paths: %w", err)
		}
		archive.WithStoragePath(paths.DatabasePath)

		var sessions []internal.ChatSession
		written := 0
		steps := []internal.ProgressStep{
			{
				Message: "Loading sessions from local storage",
				Fn: func() error {
					ls, store, err := openSessionStore()
					if err != nil {
						return err
					}
					defer func() { _ = ls.Close() }()

					all, err := store.Load()
					if err != nil {
						return err
					}
					sessions, err = selectForExport(all)
					return err
				},
			},
			{
				Message: fmt.Sprintf("Exporting to %s", outputDir),
				Fn: func() error {
					n, err := archive.Write(sessions)
					written = n
					return err
				},
			},
		}

		if err := internal.ShowProgressWithSteps(cmd.Context(), steps); err != nil {
			return err
		}

		if written < len(sessions) {
			internal.PrintWarning(fmt.Sprintf("%d session(s) could not be exported", len(sessions)-written))
		}
		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", written, archive.Dir()))
		return nil
	},
}

func selectForExport(sessions []internal.ChatSession) ([]internal.ChatSession, error) {
	if sessionID != "" {
		for _, s := range sessions {
			if s.ID == sessionID {
				return []internal.ChatSession{s}, nil
			}
		}
		return nil, fmt.Errorf("session not found: %s (use 'mm-search-bot sessions list' to see available sessions)", sessionID)
	}

	filters := internal.SessionFilters{Category: exportCategory}
	switch {
	case exportAll:
	case exportArchived:
		archived := true
		filters.IsArchived = &archived
	default:
		archived := false
		filters.IsArchived = &archived
	}
	return internal.FilterSessions(sessions, filters), nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format ("+strings.Join(export.SupportedFormats(), ", ")+")")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific session by ID")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Include archived sessions")
	exportCmd.Flags().BoolVar(&exportArchived, "archived", false, "Export only archived sessions")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "Filter by category")
}
