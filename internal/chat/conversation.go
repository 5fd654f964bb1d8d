// Package chat drives one conversation with the backend: it owns the live
// message list, submits turns and folds the responses into assistant
// messages that the session tracker persists.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/internal/client"
	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// MediaPrompt is sent when a turn carries attachments but no text
const MediaPrompt = "Process this media"

var (
	// ErrEmptyTurn is returned when there is nothing to send
	ErrEmptyTurn = errors.New("empty message")

	errEmptyResponse = errors.New("backend returned no events")
)

// Backend is the part of client.Client a conversation needs
type Backend interface {
	CreateSessionWithRetry(ctx context.Context) (*client.Session, error)
	Run(ctx context.Context, req client.RunRequest) ([]byte, error)
	RunStream(ctx context.Context, req client.RunRequest, onFrame func(frame []byte) error) error
}

// sessionCreateError marks failures to obtain a backend session
type sessionCreateError struct {
	err error
}

func (e *sessionCreateError) Error() string {
	return fmt.Sprintf("failed to create session: %v", e.err)
}

func (e *sessionCreateError) Unwrap() error {
	return e.err
}

// Option configures a Conversation
type Option func(*Conversation)

// WithStreaming selects SSE submission instead of a single JSON response
func WithStreaming(streaming bool) Option {
	return func(c *Conversation) {
		c.streaming = streaming
	}
}

// WithTokenWarnThreshold sets the total token count that triggers the
// "conversation too long" warning
func WithTokenWarnThreshold(threshold int64) Option {
	return func(c *Conversation) {
		c.warnAt = threshold
	}
}

// WithLanguage selects the language ("vi" or "en") of saved session
// summaries
func WithLanguage(lang string) Option {
	return func(c *Conversation) {
		c.language = lang
	}
}

// WithClock replaces the time source for message timestamps and session
// records
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

// Conversation is the state of the chat window
type Conversation struct {
	Messages *internal.MessageList
	Timeline *internal.TimelineIndex
	Usage    *internal.TokenUsage

	backend   Backend
	tracker   *internal.SessionTracker
	streaming bool
	warnAt    int64
	language  string
	now       func() time.Time

	mu      sync.Mutex
	session *client.Session
}

// New creates an empty conversation. Sessions derived from it are saved to
// repo when repo is non-nil.
func New(backend Backend, repo internal.SessionRepository, opts ...Option) *Conversation {
	c := &Conversation{
		Messages: internal.NewMessageList(),
		Timeline: internal.NewTimelineIndex(),
		Usage:    internal.NewTokenUsage(),
		backend:  backend,
		warnAt:   internal.DefaultTokenWarnThreshold,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tracker = internal.NewSessionTracker(repo, "")
	c.tracker.SetClock(c.now)
	if c.language != "" {
		opts := internal.DefaultSummaryOptions()
		opts.Language = c.language
		c.tracker.SetSummaryOptions(opts)
	}
	c.Messages.Observe(c.tracker.OnMessagesChanged)
	return c
}

// Session returns the backend session in use, if any
func (c *Conversation) Session() *client.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Record returns the last session record derived from the messages
func (c *Conversation) Record() (internal.ChatSession, bool) {
	return c.tracker.Current()
}

// Submit sends one user turn and returns the assistant message it produced.
// Failures are also turned into an assistant message carrying a Vietnamese
// explanation; the returned error is the underlying cause.
func (c *Conversation) Submit(ctx context.Context, query string, attachments ...client.Attachment) (internal.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" && len(attachments) == 0 {
		return internal.Message{}, ErrEmptyTurn
	}

	reply, err := c.submit(ctx, query, attachments)
	if err == nil {
		metrics.Turns.WithLabelValues("ok").Inc()
		return reply, nil
	}

	internal.LogError("[CHAT] Turn failed: %v", err)
	metrics.Turns.WithLabelValues("error").Inc()
	reply = internal.Message{
		Role:      internal.RoleAI,
		Content:   ErrorText(err),
		ID:        internal.NewMessageID(),
		Timestamp: c.now().UnixMilli(),
	}
	c.Messages.Append(reply)
	return reply, err
}

func (c *Conversation) submit(ctx context.Context, query string, attachments []client.Attachment) (internal.Message, error) {
	session, err := c.ensureSession(ctx)
	if err != nil {
		return internal.Message{}, err
	}

	c.Messages.Append(internal.Message{
		Role:      internal.RoleHuman,
		Content:   displayContent(query, attachments),
		ID:        internal.NewMessageID(),
		Timestamp: c.now().UnixMilli(),
	})

	prompt := query
	if prompt == "" {
		prompt = MediaPrompt
	}
	message := client.NewUserMessage(prompt, attachments...)

	reply, err := c.run(ctx, session, message)
	if !errors.Is(err, client.ErrSessionNotFound) {
		return reply, err
	}

	internal.LogWarn("[CHAT] Session %s not found, creating a new one and retrying", session.ID)
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if session, err = c.ensureSession(ctx); err != nil {
		return internal.Message{}, err
	}
	return c.run(ctx, session, message)
}

func (c *Conversation) ensureSession(ctx context.Context) (*client.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	s, err := c.backend.CreateSessionWithRetry(ctx)
	if err != nil {
		return nil, &sessionCreateError{err: err}
	}
	internal.LogInfo("[CHAT] Using backend session %s", s.ID)
	c.session = s
	return s, nil
}

func (c *Conversation) run(ctx context.Context, session *client.Session, message client.Content) (internal.Message, error) {
	req := client.RunRequest{
		AppName:    session.AppName,
		UserID:     session.UserID,
		SessionID:  session.ID,
		NewMessage: message,
	}
	if c.streaming {
		return c.runStreaming(ctx, req)
	}

	body, err := c.backend.Run(ctx, req)
	if err != nil {
		return internal.Message{}, err
	}
	reply := internal.FoldNonStreaming(body, c.Usage).Message(internal.NewMessageID())
	reply.Timestamp = c.now().UnixMilli()
	c.Messages.Append(reply)
	return reply, nil
}

// runStreaming adds the assistant message on the first frame so a request
// rejected up front leaves no empty placeholder behind. Chunks update the
// message in place; the session is saved once the stream ends.
func (c *Conversation) runStreaming(ctx context.Context, req client.RunRequest) (internal.Message, error) {
	id := internal.NewMessageID()
	acc := internal.NewTurnAccumulator(c.Messages, c.Timeline, id).WithTokenUsage(c.Usage)
	started := false

	err := c.backend.RunStream(ctx, req, func(frame []byte) error {
		if !started {
			c.Messages.Append(internal.Message{
				Role:      internal.RoleAI,
				ID:        id,
				Timestamp: c.now().UnixMilli(),
			})
			started = true
		}
		acc.ApplyRaw(frame)
		return nil
	})
	if err != nil {
		return internal.Message{}, err
	}
	if !started {
		return internal.Message{}, errEmptyResponse
	}

	c.Messages.Update(id, func(m *internal.Message) {
		if m.Agent == "" {
			m.Agent = acc.Agent()
		}
	})
	c.tracker.Flush(c.Messages.Snapshot())
	reply, _ := c.Messages.Get(id)
	return reply, nil
}

// Reset starts a new chat on a fresh backend session
func (c *Conversation) Reset(ctx context.Context) error {
	s, err := c.backend.CreateSessionWithRetry(ctx)
	if err != nil {
		return &sessionCreateError{err: err}
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.tracker.Bind("")
	c.Messages.Reset(nil)
	c.Timeline.Reset()
	c.Usage.Reset()
	return nil
}

// Resume continues a stored session. The backend session is created again
// on the next submit.
func (c *Conversation) Resume(stored internal.ChatSession) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	c.tracker.Seed(stored)
	c.Messages.Reset(stored.Messages)
	c.Timeline.Reset()
	c.Usage.Reset()
}

// TokenWarning returns the warning to show once the backend reports a
// total at or above the configured threshold.
func (c *Conversation) TokenWarning() (string, bool) {
	if !c.Usage.Exceeds(c.warnAt) {
		return "", false
	}
	total, _ := c.Usage.Total()
	return internal.TokenWarning(total), true
}

// ErrorText is the assistant reply shown for a failed turn
func ErrorText(err error) string {
	var sce *sessionCreateError
	if errors.As(err, &sce) {
		return "Lỗi kết nối backend: Không thể tạo session. Vui lòng kiểm tra kết nối và thử lại."
	}
	var ue *url.Error
	if errors.As(err, &ue) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return "Lỗi kết nối: Không thể kết nối tới backend. Vui lòng kiểm tra kết nối mạng."
	}
	return "Xin lỗi, đã có lỗi xảy ra: " + err.Error()
}

func displayContent(query string, attachments []client.Attachment) string {
	var image, audio bool
	for _, a := range attachments {
		switch {
		case strings.HasPrefix(a.MimeType, "image/"):
			image = true
		case strings.HasPrefix(a.MimeType, "audio/"):
			audio = true
		}
	}

	switch {
	case query != "" && audio && image:
		return query + " 🎤📷"
	case query != "" && audio:
		return query + " 🎤"
	case query != "" && image:
		return query + " 📷"
	case query != "":
		return query
	case audio && image:
		return "🎤 Voice message 📷"
	case audio:
		return "🎤 Voice message"
	case image:
		return "📷 Image"
	}
	return MediaPrompt
}
