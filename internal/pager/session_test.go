package pager

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"EmbedPager/internal/embed"
	"EmbedPager/internal/platform"
	"EmbedPager/internal/platform/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "alice"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, pages int, mutate func(*Options)) (*Session, *memory.Channel) {
	t.Helper()
	opts := DefaultOptions()
	opts.Time = time.Minute
	opts.Initiator = testUser
	if mutate != nil {
		mutate(&opts)
	}
	ch := memory.NewChannel("chan")
	s := New(ch, opts, testLogger())
	if pages > 0 {
		require.NoError(t, s.SetPages(makePages(pages)))
	}
	t.Cleanup(func() {
		s.Cancel() //nolint:errcheck // already-ended is fine here
	})
	return s, ch
}

func waitFooter(t *testing.T, msg *memory.Message, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return msg.Page().Footer == want
	}, 2*time.Second, 5*time.Millisecond, "footer never became %q", want)
}

func TestBuildSendsFirstPageWithReactions(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)

	var created atomic.Bool
	require.NoError(t, s.SetHooks(Hooks{
		OnCreate: func(platform.Message) { created.Store(true) },
	}))

	require.NoError(t, s.Build(context.Background()))

	msg := ch.LastMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "Page 1 of 3", msg.Page().Footer)
	assert.Equal(t, []string{EmojiFirst, EmojiBack, EmojiStop, EmojiNext, EmojiLast}, msg.Reactions())
	assert.True(t, created.Load())
	assert.True(t, s.Active())
}

func TestBuildValidation(t *testing.T) {
	t.Run("empty page sequence", func(t *testing.T) {
		s, _ := newTestSession(t, 0, nil)
		assert.ErrorIs(t, s.Build(context.Background()), ErrEmptySequence)
	})

	t.Run("conflicting timer modes", func(t *testing.T) {
		s, _ := newTestSession(t, 2, func(o *Options) {
			o.TimePerPage = time.Second
			o.ResetOnPage = true
		})
		assert.ErrorIs(t, s.Build(context.Background()), ErrConflictingTimerMode)
	})

	t.Run("double build", func(t *testing.T) {
		s, _ := newTestSession(t, 2, nil)
		require.NoError(t, s.Build(context.Background()))
		assert.ErrorIs(t, s.Build(context.Background()), ErrAlreadyBuilt)
	})

	t.Run("build after cancel", func(t *testing.T) {
		s, _ := newTestSession(t, 2, nil)
		require.NoError(t, s.Build(context.Background()))
		require.NoError(t, s.Cancel())
		assert.ErrorIs(t, s.Build(context.Background()), ErrSessionEnded)
	})
}

func TestBuildSurfacesDeliveryFailure(t *testing.T) {
	s, ch := newTestSession(t, 2, nil)

	ch.FailSends(true)
	err := s.Build(context.Background())
	require.ErrorIs(t, err, platform.ErrDeliveryFailed)
	assert.False(t, s.Active())

	// Transport recovered; the session was never built, so Build may retry.
	ch.FailSends(false)
	require.NoError(t, s.Build(context.Background()))
	assert.True(t, s.Active())
}

func TestNavigationTriggers(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 2 of 3")

	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 3 of 3")

	// next at the last page is a silent no-op: no error, no re-render.
	edits := msg.Edits()
	msg.AddReaction(EmojiNext, testUser)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, edits, msg.Edits())

	msg.AddReaction(EmojiBack, testUser)
	waitFooter(t, msg, "Page 2 of 3")

	msg.AddReaction(EmojiFirst, testUser)
	waitFooter(t, msg, "Page 1 of 3")

	edits = msg.Edits()
	msg.AddReaction(EmojiBack, testUser)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, edits, msg.Edits())

	msg.AddReaction(EmojiLast, testUser)
	waitFooter(t, msg, "Page 3 of 3")
}

func TestNextBackRoundTrip(t *testing.T) {
	s, ch := newTestSession(t, 5, nil)
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	require.NoError(t, s.UpdatePage(context.Background(), 2))
	waitFooter(t, msg, "Page 3 of 5")

	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 4 of 5")
	msg.AddReaction(EmojiBack, testUser)
	waitFooter(t, msg, "Page 3 of 5")

	assert.Equal(t, 2, s.Index())
}

func TestStopTriggerTerminates(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)

	stopped := make(chan StopReason, 1)
	require.NoError(t, s.SetHooks(Hooks{
		OnStop: func(r StopReason) { stopped <- r },
	}))
	require.NoError(t, s.Build(context.Background()))

	ch.LastMessage().AddReaction(EmojiStop, testUser)

	select {
	case reason := <-stopped:
		assert.Equal(t, StopTrigger, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("session never stopped")
	}
	assert.False(t, s.Active())
}

func TestMutatorsFailAfterTermination(t *testing.T) {
	s, _ := newTestSession(t, 3, nil)
	require.NoError(t, s.Build(context.Background()))
	require.NoError(t, s.Cancel())

	ctx := context.Background()
	assert.ErrorIs(t, s.SetPages(makePages(2)), ErrSessionEnded)
	assert.ErrorIs(t, s.AddPage(embed.NewPage()), ErrSessionEnded)
	assert.ErrorIs(t, s.AddPages(makePages(2)), ErrSessionEnded)
	assert.ErrorIs(t, s.UpdatePage(ctx, 1), ErrSessionEnded)
	assert.ErrorIs(t, s.AddEmoji(ctx, "🎲", func(*TriggerContext) {}), ErrSessionEnded)
	assert.ErrorIs(t, s.RemoveEmoji(EmojiNext), ErrSessionEnded)
	assert.ErrorIs(t, s.AddTime(time.Second), ErrSessionEnded)
	assert.ErrorIs(t, s.ResetTimer(), ErrSessionEnded)
	assert.ErrorIs(t, s.SetHooks(Hooks{}), ErrSessionEnded)
	assert.ErrorIs(t, s.SetRecorder(nil), ErrSessionEnded)
	assert.ErrorIs(t, s.Cancel(), ErrSessionEnded)
}

func TestUnregisterStopLeavesSessionActive(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)
	require.NoError(t, s.Build(context.Background()))
	require.NoError(t, s.RemoveEmoji(EmojiStop))

	ch.LastMessage().AddReaction(EmojiStop, testUser)
	time.Sleep(50 * time.Millisecond)

	assert.True(t, s.Active())
}

func TestReRegisterReplacesBuiltin(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	var custom atomic.Int32
	require.NoError(t, s.AddEmoji(context.Background(), EmojiNext, func(*TriggerContext) {
		custom.Add(1)
	}))

	msg.AddReaction(EmojiNext, testUser)

	require.Eventually(t, func() bool {
		return custom.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, msg.Edits(), "custom handler replaced navigation, no re-render")
	assert.Equal(t, 0, s.Index())
}

func TestReactionFilterIgnoresOtherUsers(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	msg.AddReaction(EmojiNext, "mallory")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, s.Index())

	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 2 of 3")
}

func TestAllowedUsersTakePrecedence(t *testing.T) {
	s, ch := newTestSession(t, 3, func(o *Options) {
		o.AllowedUsers = []string{"bob", "carol"}
	})
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	// The initiator is not on the allow-list.
	msg.AddReaction(EmojiNext, testUser)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, s.Index())

	msg.AddReaction(EmojiNext, "bob")
	waitFooter(t, msg, "Page 2 of 3")
}

func TestTimeoutTerminates(t *testing.T) {
	s, _ := newTestSession(t, 2, func(o *Options) {
		o.Time = 60 * time.Millisecond
	})

	stopped := make(chan StopReason, 1)
	require.NoError(t, s.SetHooks(Hooks{
		OnStop: func(r StopReason) { stopped <- r },
	}))
	require.NoError(t, s.Build(context.Background()))

	select {
	case reason := <-stopped:
		assert.Equal(t, StopTimeout, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("session never timed out")
	}
	assert.ErrorIs(t, s.UpdatePage(context.Background(), 1), ErrSessionEnded)
}

func TestTimePerPageExtendsLifetime(t *testing.T) {
	s, ch := newTestSession(t, 3, func(o *Options) {
		o.Time = time.Second
		o.TimePerPage = 300 * time.Millisecond
	})
	require.NoError(t, s.Build(context.Background()))
	msg := ch.LastMessage()

	before := s.Timer().Remaining()
	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 2 of 3")

	after := s.Timer().Remaining()
	assert.Greater(t, after, before+150*time.Millisecond,
		"page advance must add the configured bonus")
}

func TestUsePagesFalseRegistersOnlyStop(t *testing.T) {
	s, ch := newTestSession(t, 1, func(o *Options) {
		o.UsePages = false
	})
	require.NoError(t, s.Build(context.Background()))

	assert.Equal(t, []string{EmojiStop}, ch.LastMessage().Reactions())
	assert.Empty(t, ch.LastMessage().Page().Footer)
}

func TestCustomReactionOrder(t *testing.T) {
	s, ch := newTestSession(t, 3, func(o *Options) {
		o.ReactionOrder = []NavAction{NavNext, NavBack, NavStop}
	})
	require.NoError(t, s.Build(context.Background()))

	assert.Equal(t, []string{EmojiNext, EmojiBack, EmojiStop}, ch.LastMessage().Reactions())
}

func TestShowPageNumberDisabled(t *testing.T) {
	s, ch := newTestSession(t, 3, func(o *Options) {
		o.ShowPageNumber = false
	})
	require.NoError(t, s.Build(context.Background()))
	assert.Empty(t, ch.LastMessage().Page().Footer)
}

func TestUpdatePageGuards(t *testing.T) {
	s, _ := newTestSession(t, 3, nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdatePage(ctx, 1), ErrNotBuilt)

	require.NoError(t, s.Build(ctx))
	assert.ErrorIs(t, s.UpdatePage(ctx, 3), ErrOutOfRange)
	assert.ErrorIs(t, s.UpdatePage(ctx, -1), ErrOutOfRange)
	require.NoError(t, s.UpdatePage(ctx, 2))
	assert.Equal(t, 2, s.Index())
}

func TestCancelRunsCallbackBeforeStop(t *testing.T) {
	s, _ := newTestSession(t, 2, nil)

	var order []string
	stopped := make(chan struct{})
	require.NoError(t, s.SetHooks(Hooks{
		OnStop: func(StopReason) {
			order = append(order, "stop")
			close(stopped)
		},
	}))
	require.NoError(t, s.Build(context.Background()))

	require.NoError(t, s.Cancel(func() {
		order = append(order, "callback")
	}))

	<-stopped
	assert.Equal(t, []string{"callback", "stop"}, order)
}

func TestCancelBeforeBuild(t *testing.T) {
	s, _ := newTestSession(t, 2, nil)
	assert.ErrorIs(t, s.Cancel(), ErrNotBuilt)
}

type countingRecorder struct {
	started atomic.Int32
	viewed  atomic.Int32
	stopped atomic.Int32
}

func (r *countingRecorder) SessionStarted(string, string, int) { r.started.Add(1) }
func (r *countingRecorder) PageViewed(string, int)             { r.viewed.Add(1) }
func (r *countingRecorder) SessionStopped(string, string)      { r.stopped.Add(1) }

func TestRecorderReceivesLifecycle(t *testing.T) {
	s, ch := newTestSession(t, 3, nil)
	rec := &countingRecorder{}
	require.NoError(t, s.SetRecorder(rec))
	require.NoError(t, s.Build(context.Background()))

	msg := ch.LastMessage()
	msg.AddReaction(EmojiNext, testUser)
	waitFooter(t, msg, "Page 2 of 3")
	require.NoError(t, s.Cancel())

	assert.Equal(t, int32(1), rec.started.Load())
	assert.Equal(t, int32(1), rec.viewed.Load())
	assert.Equal(t, int32(1), rec.stopped.Load())
}
