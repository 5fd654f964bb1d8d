package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	searchLimit int
	clearYes    bool
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"history"},
	Short:   "Browse and manage saved sessions",
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search saved sessions by name, summary and message text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		sessions, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}

		query := joinArgs(args)
		results := internal.SearchSessions(sessions, query)
		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}
		displaySearchResults(cmd.OutOrStdout(), query, results)
		return nil
	},
}

func displaySearchResults(out io.Writer, query string, results []internal.SessionSearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🔍 No sessions match %q", query)))
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🔍 %d session(s) match %q", len(results), query)))
	fmt.Fprintln(out)

	for _, r := range results {
		name := r.Session.Name
		if name == "" {
			name = internal.DefaultSessionName
		}
		fmt.Fprintf(out, "%s  %s  %s\n",
			countStyle.Render(strconv.Itoa(r.RelevanceScore)),
			titleStyle.Render(truncateRunes(name, 60)),
			dateStyle.Render(string(r.MatchType)),
		)
		fmt.Fprintf(out, "   %s\n", idStyle.Render(r.Session.ID))
		if r.MatchedMessage != nil {
			fmt.Fprintf(out, "   %s\n", truncateRunes(r.MatchedMessage.Content, 100))
		}
	}
}

var renameCmd = &cobra.Command{
	Use:   "rename <session-id> <name>",
	Short: "Rename a saved session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		name := joinArgs(args[1:])
		if err := store.Rename(args[0], name, time.Now()); err != nil {
			return fmt.Errorf("failed to rename session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[0], name)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <session-id>",
	Short: "Archive a session, or restore it if already archived",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		archived, err := store.ToggleArchive(args[0], time.Now())
		if err != nil {
			return fmt.Errorf("failed to archive session: %w", err)
		}
		if archived {
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		if err := store.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to delete all sessions without --yes")
		}
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared all sessions")
		return nil
	},
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(searchCmd, renameCmd, archiveCmd, deleteCmd, clearCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting every session")
}
