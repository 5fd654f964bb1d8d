package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	limit int
	since string
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show messages for a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		session, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("session not found: %s (use 'mm-search-bot sessions list' to see available sessions): %w", args[0], err)
		}

		messages := session.Messages
		if since != "" {
			sinceTime, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			messages = messagesSince(messages, sinceTime)
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, session)

		total := len(messages)
		if limit > 0 && limit < len(messages) {
			messages = messages[:limit]
		}
		for i, msg := range messages {
			displayMessage(out, i+1, msg, total)
		}

		if limit > 0 && limit < total {
			fmt.Fprintln(out)
			fmt.Fprintln(out, timestampStyle.Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}
		return nil
	},
}

func messagesSince(messages []internal.Message, since time.Time) []internal.Message {
	filtered := make([]internal.Message, 0, len(messages))
	cutoff := since.UnixMilli()
	for _, msg := range messages {
		if msg.Timestamp >= cutoff {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func displaySessionHeader(out io.Writer, session *internal.ChatSession) {
	if session == nil {
		return
	}
	name := session.Name
	if name == "" {
		name = internal.DefaultSessionName
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", name)))

	var metaParts []string
	if session.CreatedAt > 0 {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", time.UnixMilli(session.CreatedAt).Format("02/01/2006 15:04")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(session.Messages)))
	if session.Category != "" {
		metaParts = append(metaParts, fmt.Sprintf("Category: %s", session.Category))
	}
	if len(session.Tags) > 0 {
		metaParts = append(metaParts, fmt.Sprintf("Tags: %s", strings.Join(session.Tags, ", ")))
	}
	if session.IsArchived {
		metaParts = append(metaParts, "Archived")
	}
	fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))

	if session.Summary != "" {
		fmt.Fprintln(out, wrapText(session.Summary, 80))
	}
	fmt.Fprintln(out)
}

func displayMessage(out io.Writer, index int, msg internal.Message, total int) {
	header := timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if msg.Timestamp > 0 {
		header += " " + timestampStyle.Render(time.UnixMilli(msg.Timestamp).Format("15:04:05"))
	}
	fmt.Fprintln(out, header)
	internal.RenderMessage(out, msg, nil)
	fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len([]rune(line)) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len([]rune(currentLine))+len([]rune(word))+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	sessionsCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
}
