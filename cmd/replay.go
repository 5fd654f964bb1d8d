package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	replayOutput string
	replayFold   bool
)

// replayCmd feeds a recorded backend response through the event pipeline
var replayCmd = &cobra.Command{
	Use:   "replay <file|->",
	Short: "Rebuild an assistant message from a recorded response",
	Long: `Replay a recorded /run response body (a JSON event array, a single event,
or a server-sent event stream) through the event extractor and message
accumulator, then print the resulting assistant message and its timeline.

With --fold the body is reduced the way non-streaming responses are.
With --out the rebuilt message is also saved as JSON for debugging.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		msg, timeline, usage, err := replayBody(body, replayFold)
		if err != nil {
			return &internal.ReplayError{Source: args[0], Err: err}
		}

		out := cmd.OutOrStdout()
		internal.RenderMessage(out, msg, timeline)
		if total, ok := usage.Total(); ok {
			fmt.Fprintf(out, "\nTokens: %s\n", internal.FormatCount(total))
			if usage.Exceeds(int64(cfg.TokenWarnThreshold)) {
				internal.PrintWarning(internal.TokenWarning(total))
			}
		}

		if replayOutput == "" {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(replayOutput), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		data, err := json.MarshalIndent(struct {
			Message  internal.Message         `json:"message"`
			Timeline []internal.TimelineEntry `json:"timeline,omitempty"`
		}{msg, timeline}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := os.WriteFile(replayOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", replayOutput, err)
		}
		internal.LogInfo("Saved replayed message to %s", replayOutput)
		return nil
	},
}

// replayBody rebuilds the assistant message for a recorded body
func replayBody(body []byte, fold bool) (internal.Message, []internal.TimelineEntry, *internal.TokenUsage, error) {
	usage := internal.NewTokenUsage()
	id := internal.NewMessageID()

	if fold {
		msg := internal.FoldNonStreaming(body, usage).Message(id)
		return msg, nil, usage, nil
	}

	frames, mode := internal.ReadFrames(body)
	if len(frames) == 0 {
		return internal.Message{}, nil, usage, fmt.Errorf("no events found in %s body", mode)
	}
	internal.LogDebug("Replaying %d %s frame(s)", len(frames), mode)

	messages := internal.NewMessageList()
	timeline := internal.NewTimelineIndex()
	messages.Append(internal.Message{Role: internal.RoleAI, ID: id})

	acc := internal.NewTurnAccumulator(messages, timeline, id).WithTokenUsage(usage)
	for _, frame := range frames {
		acc.ApplyRaw(frame)
	}
	msg, _ := messages.Get(id)
	if msg.Agent == "" {
		msg.Agent = acc.Agent()
	}
	return msg, timeline.Get(id), usage, nil
}

// readInput reads a file argument, or stdin for "-"
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayOutput, "out", "o", "", "Save the rebuilt message as JSON")
	replayCmd.Flags().BoolVar(&replayFold, "fold", false, "Reduce the body like a non-streaming response")
}
