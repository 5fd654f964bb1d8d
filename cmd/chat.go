package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/internal/chat"
	"github.com/huythanhnguyen/mm-search-bot/internal/client"
)

var (
	chatResume  string
	chatAttach  []string
	chatNoWait  bool
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

const chatHelp = `Lệnh: /new (cuộc trò chuyện mới), /add <SKU> [số lượng], /cart, /quit`

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the shopping assistant",
	Long: `Send one message to the assistant, or start an interactive chat when no
message is given. Every conversation is saved to the local session history.

Examples:
  mm-search-bot chat "Gợi ý sữa tươi cho bé"
  mm-search-bot chat --attach ./photo.jpg "Sản phẩm này giá bao nhiêu?"
  mm-search-bot chat --resume session_01J...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ls, store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer func() { _ = ls.Close() }()

		backend := newClient()
		ctx := cmd.Context()
		if !chatNoWait {
			if err := internal.ShowProgress(ctx, "Đang kết nối backend", func() error {
				return backend.WaitForBackend(ctx, cfg.Health.Interval, cfg.Health.Attempts)
			}); err != nil {
				return err
			}
		}

		conv := chat.New(backend, store,
			chat.WithStreaming(cfg.Streaming),
			chat.WithTokenWarnThreshold(int64(cfg.TokenWarnThreshold)),
			chat.WithLanguage(cfg.Language),
		)
		if chatResume != "" {
			stored, err := store.Get(chatResume)
			if err != nil {
				return fmt.Errorf("failed to load session %s: %w", chatResume, err)
			}
			conv.Resume(*stored)
		}

		attachments, err := loadAttachments(chatAttach)
		if err != nil {
			return err
		}

		s := &chatSession{conv: conv, cart: chat.NewMemoryCart(), out: cmd.OutOrStdout()}
		if len(args) > 0 {
			return s.turn(ctx, strings.Join(args, " "), attachments)
		}
		return s.loop(ctx, cmd.InOrStdin(), attachments)
	},
}

// chatSession is the terminal side of a conversation
type chatSession struct {
	conv *chat.Conversation
	cart *chat.MemoryCart
	out  io.Writer
}

func (s *chatSession) turn(ctx context.Context, query string, attachments []client.Attachment) error {
	var reply internal.Message
	var turnErr error
	_ = internal.ShowProgress(ctx, "Trợ lý đang trả lời", func() error {
		reply, turnErr = s.conv.Submit(ctx, query, attachments...)
		return turnErr
	})
	if reply.ID == "" {
		return turnErr
	}

	internal.RenderMessage(s.out, reply, s.conv.Timeline.Get(reply.ID))
	if reply.ProductData != nil {
		s.cart.Remember(reply.ProductData)
	} else {
		s.cart.Remember(internal.ExtractProductData(reply.Content))
	}
	if warning, ok := s.conv.TokenWarning(); ok {
		internal.PrintWarning(warning)
	}
	return turnErr
}

func (s *chatSession) loop(ctx context.Context, in io.Reader, attachments []client.Attachment) error {
	fmt.Fprintln(s.out, hintStyle.Render(chatHelp))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := s.command(ctx, line)
			if err != nil {
				internal.PrintError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		// attachments go with the first message only
		if err := s.turn(ctx, line, attachments); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		attachments = nil
	}
}

func (s *chatSession) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		if err := s.conv.Reset(ctx); err != nil {
			return false, err
		}
		s.cart.Clear()
		fmt.Fprintln(s.out, hintStyle.Render("Đã bắt đầu cuộc trò chuyện mới"))
	case "/cart":
		summary := s.cart.GetCartSummary()
		for _, l := range s.cart.Lines() {
			fmt.Fprintf(s.out, "  %s × %d  %s\n", l.Name, l.Quantity, internal.FormatPrice(l.Price*float64(l.Quantity)))
		}
		fmt.Fprintf(s.out, "Giỏ hàng: %d sản phẩm, tổng %s\n", summary.ItemCount, internal.FormatPrice(summary.TotalPrice))
	case "/add":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /add <SKU> [quantity]")
		}
		qty := 1
		if len(fields) > 2 {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return false, fmt.Errorf("invalid quantity %q", fields[2])
			}
			qty = n
		}
		res, err := s.cart.AddToCart(fields[1], qty)
		if err != nil {
			return false, err
		}
		if !res.Success {
			return false, fmt.Errorf("%s", res.Error)
		}
		fmt.Fprintf(s.out, "Đã thêm %d × %s vào giỏ hàng\n", qty, fields[1])
	case "/help":
		fmt.Fprintln(s.out, hintStyle.Render(chatHelp))
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

func loadAttachments(paths []string) ([]client.Attachment, error) {
	var attachments []client.Attachment
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(p))
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
		attachments = append(attachments, client.Attachment{MimeType: mimeType, Data: data})
	}
	return attachments, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "Continue a saved session by ID")
	chatCmd.Flags().StringSliceVar(&chatAttach, "attach", nil, "Image or audio file to send with the first message")
	chatCmd.Flags().BoolVar(&chatNoWait, "no-wait", false, "Skip waiting for the backend health check")
}
