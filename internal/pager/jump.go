package pager

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"EmbedPager/internal/embed"
	"EmbedPager/internal/platform"
)

// JumpConfig configures one page-jump sub-session. Message templates expand
// %u to the requesting user and, in SuccessTemplate, %n to the page number.
type JumpConfig struct {
	Prompt          string
	SuccessTemplate string
	InvalidTemplate string
	CancelTemplate  string
	CancelKeyword   string
	AllowCancel     bool
	Timeout         time.Duration
}

// DefaultJumpConfig returns the stock prompt and reply templates.
func DefaultJumpConfig() JumpConfig {
	return JumpConfig{
		Prompt:          `%u, reply with a page number, or "cancel" to abort.`,
		SuccessTemplate: "%u, jumping to page %n.",
		InvalidTemplate: "That is not a valid page number.",
		CancelTemplate:  "Page jump cancelled.",
		CancelKeyword:   "cancel",
		AllowCancel:     true,
		Timeout:         30 * time.Second,
	}
}

// JumpOutcome classifies how a page-jump sub-session ended.
type JumpOutcome int

const (
	// JumpPage means a valid page number was accepted.
	JumpPage JumpOutcome = iota
	// JumpCancelled means the cancel keyword ended the sub-session.
	JumpCancelled
	// JumpTimedOut means the time budget ran out with no terminal reply.
	JumpTimedOut
)

func (o JumpOutcome) String() string {
	switch o {
	case JumpPage:
		return "page"
	case JumpCancelled:
		return "cancel"
	case JumpTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// JumpResult is the terminal outcome of one sub-session. Page is 1-based and
// only set for JumpPage.
type JumpResult struct {
	Outcome JumpOutcome
	Page    int
	Raw     string
}

// PageJump runs the typed page-number sub-protocol on a channel. It keeps no
// state across invocations; each AwaitPageUpdate call is one sub-session.
type PageJump struct {
	channel platform.Channel
	logger  *slog.Logger
	hooks   Hooks
}

// NewPageJump creates a jump protocol bound to channel. A nil logger falls
// back to slog.Default().
func NewPageJump(channel platform.Channel, logger *slog.Logger) *PageJump {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageJump{channel: channel, logger: logger}
}

// SetHooks installs outcome callbacks (OnPage, OnInvalid, OnCancel).
func (j *PageJump) SetHooks(h Hooks) {
	j.hooks = h
}

// AwaitPageUpdate sends the prompt and collects text replies from user until
// one is terminal: a page number within [1, pageCount] (JumpPage), the
// cancel keyword when enabled (JumpCancelled), or the time budget elapsing
// (JumpTimedOut). Invalid replies are answered in chat and the sub-session
// keeps listening. Transport failures on the prompt end the sub-session with
// an error; failures on follow-up replies are logged only.
func (j *PageJump) AwaitPageUpdate(ctx context.Context, user string, pageCount int, cfg JumpConfig) (JumpResult, error) {
	prompt := strings.ReplaceAll(cfg.Prompt, "%u", user)
	if _, err := j.channel.Send(ctx, embed.Text(prompt)); err != nil {
		return JumpResult{Outcome: JumpTimedOut}, fmt.Errorf("send jump prompt: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies, err := j.channel.AwaitReplies(listenCtx, func(userID, _ string) bool {
		return userID == user
	}, cfg.Timeout)
	if err != nil {
		return JumpResult{Outcome: JumpTimedOut}, fmt.Errorf("attach reply listener: %w", err)
	}

	var deadline <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return JumpResult{Outcome: JumpTimedOut}, ctx.Err()
		case <-deadline:
			j.logger.Debug("page jump timed out", "user_id", user)
			return JumpResult{Outcome: JumpTimedOut}, nil
		case raw := <-replies:
			content := strings.TrimSpace(raw)
			n, parseErr := strconv.Atoi(content)
			if parseErr != nil {
				if cfg.AllowCancel && strings.EqualFold(content, cfg.CancelKeyword) {
					j.hooks.cancel(content)
					j.say(ctx, cfg.CancelTemplate, user, 0)
					return JumpResult{Outcome: JumpCancelled, Raw: content}, nil
				}
				j.hooks.invalid(content)
				j.say(ctx, cfg.InvalidTemplate, user, 0)
				continue
			}
			if n < 1 || n > pageCount {
				j.hooks.invalid(content)
				j.say(ctx, cfg.InvalidTemplate, user, 0)
				continue
			}
			j.hooks.page(n, content)
			j.say(ctx, cfg.SuccessTemplate, user, n)
			return JumpResult{Outcome: JumpPage, Page: n, Raw: content}, nil
		}
	}
}

func (j *PageJump) say(ctx context.Context, template, user string, n int) {
	if template == "" {
		return
	}
	text := strings.ReplaceAll(template, "%u", user)
	if n > 0 {
		text = strings.ReplaceAll(text, "%n", strconv.Itoa(n))
	}
	if _, err := j.channel.Send(ctx, embed.Text(text)); err != nil {
		j.logger.Warn("failed to send jump reply", "user_id", user, "error", err)
	}
}

// AwaitPageUpdate runs the jump protocol against this session: the page
// count comes from the store and an accepted page number is applied through
// the session's guarded navigation path, converting the user-facing 1-based
// number to the internal index and emitting pageUpdate.
func (s *Session) AwaitPageUpdate(ctx context.Context, user string, cfg JumpConfig) (JumpResult, error) {
	s.mu.Lock()
	switch s.state {
	case stateTerminated:
		s.mu.Unlock()
		return JumpResult{Outcome: JumpTimedOut}, ErrSessionEnded
	case stateUnbuilt:
		s.mu.Unlock()
		return JumpResult{Outcome: JumpTimedOut}, ErrNotBuilt
	}
	count := s.store.Len()
	hooks := s.hooks
	s.mu.Unlock()

	jump := NewPageJump(s.channel, s.logger)
	jump.SetHooks(hooks)

	result, err := jump.AwaitPageUpdate(ctx, user, count, cfg)
	if err != nil || result.Outcome != JumpPage {
		return result, err
	}

	index := result.Page - 1
	if err := s.goTo(ctx, index); err != nil {
		return result, err
	}
	hooks.pageUpdate(index)
	return result, nil
}
