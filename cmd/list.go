package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	listArchived bool
	listAll      bool
	listCategory string
	listTags     []string
	listSince    string
	listUntil    string
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Long: `List saved chat sessions, most recently updated first. Archived sessions
are hidden unless --archived or --all is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := listFilters()
		if err != nil {
			return err
		}

		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		sessions, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		sessions = internal.FilterSessions(sessions, filters)

		displaySessions(cmd.OutOrStdout(), sessions, time.Now())
		return nil
	},
}

func listFilters() (internal.SessionFilters, error) {
	f := internal.SessionFilters{Category: listCategory, Tags: listTags}
	switch {
	case listAll:
	case listArchived:
		archived := true
		f.IsArchived = &archived
	default:
		archived := false
		f.IsArchived = &archived
	}

	if listSince != "" {
		t, err := time.ParseInLocation("2006-01-02", listSince, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid --since date (expected YYYY-MM-DD): %w", err)
		}
		f.Start = t.UnixMilli()
	}
	if listUntil != "" {
		t, err := time.ParseInLocation("2006-01-02", listUntil, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid --until date (expected YYYY-MM-DD): %w", err)
		}
		f.End = t.Add(24*time.Hour).UnixMilli() - 1
	}
	return f, nil
}

func displaySessions(out io.Writer, sessions []internal.ChatSession, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t"+titleStyle.Render("Tags")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, s := range sessions {
		name := s.Name
		if name == "" {
			name = internal.DefaultSessionName
		}
		name = truncateRunes(name, 50)
		if s.IsArchived {
			name += " 🗄"
		}

		tags := dateStyle.Render("—")
		if len(s.Tags) > 0 {
			tags = tagStyle.Render(strings.Join(s.Tags, ", "))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.ID),
			name,
			countStyle.Render(strconv.Itoa(s.MessageCount)),
			dateStyle.Render(internal.FormatRelativeTime(s.UpdatedAt, now)),
			tags,
		)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID with `mm-search-bot sessions show <id>` or `mm-search-bot chat --resume <id>`"))
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	sessionsCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "Show only archived sessions")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include archived sessions")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category (ecommerce, support, tech, general)")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Filter by tag (any of)")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only sessions updated on or after this date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only sessions updated on or before this date (YYYY-MM-DD)")
}
