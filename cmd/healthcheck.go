package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	healthAttempts int
	healthOffline  bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local history and backend reachability",
	Long: `Check the health of mm-search-bot by verifying:
  • Resolved configuration
  • Local session storage access and session count
  • Backend reachability

Use --offline to skip the backend probe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 MM Search Bot Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			fmt.Fprintf(out, "   API base: %s\n", cfg.APIBase)
			fmt.Fprintf(out, "   Streaming: %v\n", cfg.Streaming)
			fmt.Fprintf(out, "   Language: %s\n", cfg.Language)
			fmt.Fprintf(out, "   Retry: %d attempts, %s budget\n", cfg.Retry.MaxAttempts, cfg.Retry.Budget)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking local session storage..."))
		sessionCount, err := checkStorage(out)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Local storage unavailable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		if sessionCount > 0 {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d saved session(s)", sessionCount)))
		} else {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No saved sessions yet"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Probing backend..."))
		if healthOffline {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Skipped (--offline)"))
			fmt.Fprintln(out)
		} else {
			backend := newClient()
			err := backend.WaitForBackend(cmd.Context(), cfg.Health.Interval, healthAttempts)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), err)
				fmt.Fprintf(out, "   Expected a backend at %s\n", cfg.APIBase)
				return fmt.Errorf("health check failed: %w", err)
			}
			fmt.Fprintln(out, successStyle.Render("✅ Backend reachable"))
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Sessions: %d saved", sessionCount)))
		return nil
	},
}

func checkStorage(out io.Writer) (int, error) {
	ls, store, err := openSessionStore()
	if err != nil {
		return 0, err
	}
	defer func() { _ = ls.Close() }()

	if verbose {
		fmt.Fprintf(out, "   Database: %s\n", ls.Path())
	}
	sessions, err := store.Load()
	if err != nil {
		return 0, err
	}
	if verbose {
		for i, s := range sessions {
			if i == 5 {
				fmt.Fprintf(out, "   ... and %d more\n", len(sessions)-5)
				break
			}
			name := s.Name
			if name == "" {
				name = internal.DefaultSessionName
			}
			fmt.Fprintf(out, "   [%d] %s (ID: %s)\n", i+1, name, s.ID)
		}
	}
	return len(sessions), nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().IntVar(&healthAttempts, "attempts", 1, "Number of backend probes before giving up")
	healthcheckCmd.Flags().BoolVar(&healthOffline, "offline", false, "Skip the backend probe")
}
