package pager

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"EmbedPager/internal/embed"
	"EmbedPager/internal/platform"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type sessionState int

const (
	stateUnbuilt sessionState = iota
	stateActive
	stateTerminated
)

// Options is the recognized configuration surface of a session.
type Options struct {
	// UsePages enables multi-page navigation. When false only the stop
	// trigger is registered.
	UsePages bool

	// ShowPageNumber renders the page-number text into the footer.
	ShowPageNumber bool

	// PageFormat is the footer template; %p is the current page (1-based)
	// and %m the page count.
	PageFormat string

	// Time is the base lifetime of the session.
	Time time.Duration

	// TimePerPage adds this bonus to the remaining lifetime on every page
	// change. Mutually exclusive with ResetOnPage.
	TimePerPage time.Duration

	// ResetOnPage re-bases the lifetime to Time on every page change.
	// Mutually exclusive with TimePerPage.
	ResetOnPage bool

	// ReactionOrder restricts and orders the built-in triggers. Nil means
	// all five in the default order.
	ReactionOrder []NavAction

	// Initiator is the user the reaction listener is filtered to when
	// AllowedUsers is empty. Empty means no filtering.
	Initiator string

	// AllowedUsers is an allow-list for the reaction listener; it takes
	// precedence over Initiator when non-empty.
	AllowedUsers []string
}

// DefaultOptions returns the options a session starts from.
func DefaultOptions() Options {
	return Options{
		UsePages:       true,
		ShowPageNumber: true,
		PageFormat:     "Page %p of %m",
		Time:           2 * time.Minute,
	}
}

// Session is the controller owning one pagination instance: the page store,
// the trigger registry, the lifetime timer and the dispatch loop. It moves
// through Unbuilt, Active and Terminated exactly once.
type Session struct {
	mu       sync.Mutex
	opts     Options
	id       string
	store    *PageStore
	registry *ActionRegistry
	timer    *LifetimeTimer
	channel  platform.Channel
	message  platform.Message
	hooks    Hooks
	recorder Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter

	state        sessionState
	stopCh       chan struct{}
	cancelListen context.CancelFunc
	startedAt    time.Time
}

// New creates an unbuilt session on channel. A nil logger falls back to
// slog.Default(). Built-in triggers are seeded immediately so callers can
// override or unregister them before Build.
func New(channel platform.Channel, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		opts:     opts,
		id:       uuid.NewString(),
		channel:  channel,
		logger:   logger,
		tracer:   otel.Tracer("pager"),
		meter:    otel.Meter("pager"),
		store:    NewPageStore(opts.UsePages),
		registry: NewActionRegistry(),
		stopCh:   make(chan struct{}),
	}
	mode := TimerModeNone
	switch {
	case opts.TimePerPage > 0 && opts.ResetOnPage:
		// Conflicting configuration; Build rejects it before the mode matters.
	case opts.TimePerPage > 0:
		mode = TimerModeBonus
	case opts.ResetOnPage:
		mode = TimerModeReset
	}
	s.timer = NewLifetimeTimer(mode, opts.TimePerPage, func() {
		s.terminate(StopTimeout, nil)
	})
	s.seedRegistry()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Registry exposes the trigger registry for custom bindings.
func (s *Session) Registry() *ActionRegistry {
	return s.registry
}

// Timer exposes the lifetime timer.
func (s *Session) Timer() *LifetimeTimer {
	return s.timer
}

// Index returns the active page index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Index()
}

// PageCount returns the number of pages.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// Message returns the sent message handle, nil before Build.
func (s *Session) Message() platform.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Active reports whether the session is built and not yet terminated.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

func (s *Session) seedRegistry() {
	order := s.opts.ReactionOrder
	if order == nil {
		order = DefaultReactionOrder
	}
	for _, action := range order {
		if !s.opts.UsePages && action != NavStop {
			continue
		}
		if handler := s.NavHandler(action); handler != nil {
			s.registry.Register(DefaultEmoji[action], handler)
		}
	}
}

// NavHandler returns the built-in handler for action, so a caller can bind
// it to a custom trigger symbol. Built-ins whose precondition fails are
// silent no-ops. Returns nil for an unknown action.
func (s *Session) NavHandler(action NavAction) Handler {
	switch action {
	case NavFirst:
		return func(tc *TriggerContext) {
			if tc.Index != 0 {
				s.handlerNavigate(0)
			}
		}
	case NavBack:
		return func(tc *TriggerContext) {
			if tc.Index > 0 {
				s.handlerNavigate(tc.Index - 1)
			}
		}
	case NavStop:
		return func(tc *TriggerContext) {
			s.terminate(StopTrigger, nil)
		}
	case NavNext:
		return func(tc *TriggerContext) {
			if tc.Index < s.PageCount()-1 {
				s.handlerNavigate(tc.Index + 1)
			}
		}
	case NavLast:
		return func(tc *TriggerContext) {
			if last := s.PageCount() - 1; tc.Index != last {
				s.handlerNavigate(last)
			}
		}
	}
	return nil
}

func (s *Session) handlerNavigate(i int) {
	if err := s.goTo(context.Background(), i); err != nil {
		s.logger.Warn("navigation failed", "session_id", s.id, "index", i, "error", err)
	}
}

// SetPages replaces the page sequence. Valid before Build and while Active.
func (s *Session) SetPages(pages embed.Pages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return ErrSessionEnded
	}
	return s.store.SetPages(pages)
}

// AddPage appends one page without disturbing the active index.
func (s *Session) AddPage(page *embed.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return ErrSessionEnded
	}
	s.store.Append(page)
	return nil
}

// AddPages appends pages without disturbing the active index.
func (s *Session) AddPages(pages embed.Pages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return ErrSessionEnded
	}
	s.store.AppendAll(pages)
	return nil
}

// SetHooks installs the event callbacks. Typically called before Build.
func (s *Session) SetHooks(h Hooks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return ErrSessionEnded
	}
	s.hooks = h
	return nil
}

// SetRecorder installs the audit recorder; nil disables recording.
func (s *Session) SetRecorder(r Recorder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateTerminated {
		return ErrSessionEnded
	}
	s.recorder = r
	return nil
}

// AddEmoji binds handler to a trigger symbol, replacing any existing
// binding. On an active session the reaction is also added to the message.
func (s *Session) AddEmoji(ctx context.Context, symbol string, handler Handler) error {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	msg := s.message
	active := s.state == stateActive
	s.mu.Unlock()

	s.registry.Register(symbol, handler)
	if active && msg != nil {
		if err := msg.React(ctx, []string{symbol}); err != nil {
			s.logger.Warn("failed to add reaction", "session_id", s.id, "symbol", symbol, "error", err)
		}
	}
	return nil
}

// RemoveEmoji unbinds a trigger symbol; no-op when absent.
func (s *Session) RemoveEmoji(symbol string) error {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.mu.Unlock()
	s.registry.Unregister(symbol)
	return nil
}

// AddTime extends the session lifetime.
func (s *Session) AddTime(d time.Duration) error {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.mu.Unlock()
	s.timer.AddTime(d)
	return nil
}

// ResetTimer re-bases the session lifetime; see LifetimeTimer.Reset.
func (s *Session) ResetTimer(d ...time.Duration) error {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	s.mu.Unlock()
	s.timer.Reset(d...)
	return nil
}

// Build renders page 0, sends it, attaches reactions and the trigger
// listener, arms the lifetime timer and emits create. Transport failures are
// returned to the caller; the session stays Unbuilt and Build may be retried.
func (s *Session) Build(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateActive:
		s.mu.Unlock()
		return ErrAlreadyBuilt
	case stateTerminated:
		s.mu.Unlock()
		return ErrSessionEnded
	}
	if s.opts.TimePerPage > 0 && s.opts.ResetOnPage {
		s.mu.Unlock()
		return ErrConflictingTimerMode
	}
	if s.store.Len() == 0 {
		s.mu.Unlock()
		return ErrEmptySequence
	}
	page := s.renderLocked()
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session_build")
	defer span.End()

	msg, err := s.channel.Send(ctx, page)
	if err != nil {
		return fmt.Errorf("send first page: %w", err)
	}

	if symbols := s.registry.Symbols(); len(symbols) > 0 {
		if err := msg.React(ctx, symbols); err != nil {
			s.logger.Warn("failed to attach reactions", "session_id", s.id, "error", err)
		}
	}

	// The listener lives exactly as long as the lifetime timer allows; the
	// timer drives teardown through terminate, which cancels this context,
	// so the stream itself carries no fixed timeout.
	listenCtx, cancel := context.WithCancel(context.Background())
	stream, err := msg.AwaitReactions(listenCtx, s.reactionFilter(), 0)
	if err != nil {
		cancel()
		return fmt.Errorf("attach reaction listener: %w", err)
	}

	s.mu.Lock()
	s.message = msg
	s.state = stateActive
	s.startedAt = time.Now()
	s.cancelListen = cancel
	hooks := s.hooks
	recorder := s.recorder
	s.mu.Unlock()

	if err := s.timer.Start(s.opts.Time); err != nil {
		return err
	}

	s.logger.Info("session built",
		"session_id", s.id,
		"channel_id", s.channel.ID(),
		"pages", s.store.Len(),
		"lifetime", s.opts.Time)

	if recorder != nil {
		recorder.SessionStarted(s.id, s.channel.ID(), s.PageCount())
	}
	hooks.create(msg)

	go s.loop(stream)
	return nil
}

func (s *Session) reactionFilter() platform.ReactionFilter {
	allowed := make(map[string]bool, len(s.opts.AllowedUsers))
	for _, u := range s.opts.AllowedUsers {
		allowed[u] = true
	}
	initiator := s.opts.Initiator
	return func(r platform.Reaction) bool {
		if len(allowed) > 0 {
			return allowed[r.UserID]
		}
		if initiator != "" {
			return r.UserID == initiator
		}
		return true
	}
}

// loop is the single dispatcher; triggers are processed strictly in arrival
// order and a handler runs to completion before the next one starts.
func (s *Session) loop(stream <-chan platform.Reaction) {
	for {
		select {
		case <-s.stopCh:
			return
		case r := <-stream:
			s.handleTrigger(r)
			select {
			case <-s.stopCh:
				return
			default:
			}
		}
	}
}

func (s *Session) handleTrigger(r platform.Reaction) {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	tc := &TriggerContext{
		Message: s.message,
		Index:   s.store.Index(),
		Session: s,
		Symbol:  r.Symbol,
	}
	s.mu.Unlock()

	s.logger.Debug("trigger received", "session_id", s.id, "symbol", r.Symbol, "user_id", r.UserID)
	if !s.registry.Dispatch(r.Symbol, tc) {
		return
	}

	counter, err := s.meter.Int64Counter(
		"pager.triggers.dispatched",
		metric.WithDescription("Triggers dispatched to a registered handler"),
	)
	if err == nil {
		counter.Add(context.Background(), 1)
	}
}

// goTo is the shared guarded navigation path: bounds-checked index update,
// re-render, timer hook, audit row.
func (s *Session) goTo(ctx context.Context, i int) error {
	s.mu.Lock()
	switch s.state {
	case stateTerminated:
		s.mu.Unlock()
		return ErrSessionEnded
	case stateUnbuilt:
		s.mu.Unlock()
		return ErrNotBuilt
	}
	if err := s.store.SetIndex(i); err != nil {
		s.mu.Unlock()
		return err
	}
	page := s.renderLocked()
	msg := s.message
	recorder := s.recorder
	s.mu.Unlock()

	if err := msg.Edit(ctx, page); err != nil {
		return fmt.Errorf("render page %d: %w", i, err)
	}

	s.timer.PageAdvanced()
	if recorder != nil {
		recorder.PageViewed(s.id, i)
	}
	counter, err := s.meter.Int64Counter(
		"pager.pages.viewed",
		metric.WithDescription("Pages rendered by navigation"),
	)
	if err == nil {
		counter.Add(ctx, 1)
	}
	s.logger.Debug("page rendered", "session_id", s.id, "index", i)
	return nil
}

// UpdatePage navigates to an explicit target index through the same guarded
// path as the built-in triggers. Only valid on an active session.
func (s *Session) UpdatePage(ctx context.Context, i int) error {
	return s.goTo(ctx, i)
}

// Cancel ends the session: the listener is torn down, the timer disarmed,
// the optional callback run, then stop is emitted.
func (s *Session) Cancel(callback ...func()) error {
	s.mu.Lock()
	switch s.state {
	case stateTerminated:
		s.mu.Unlock()
		return ErrSessionEnded
	case stateUnbuilt:
		s.mu.Unlock()
		return ErrNotBuilt
	}
	s.mu.Unlock()

	var cb func()
	if len(callback) > 0 {
		cb = callback[0]
	}
	s.terminate(StopCancel, cb)
	return nil
}

// terminate performs Active→Terminated exactly once. Safe to call from a
// handler mid-dispatch, from the timer goroutine and from Cancel
// concurrently; the first caller wins.
func (s *Session) terminate(reason StopReason, cb func()) {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return
	}
	s.state = stateTerminated
	cancel := s.cancelListen
	started := s.startedAt
	hooks := s.hooks
	recorder := s.recorder
	s.mu.Unlock()

	// Disarm before detaching the listener so a queued trigger cannot be
	// processed by a terminated session.
	s.timer.Disarm()
	close(s.stopCh)
	if cancel != nil {
		cancel()
	}
	if cb != nil {
		cb()
	}

	if !started.IsZero() {
		hist, err := s.meter.Float64Histogram(
			"pager.session.duration",
			metric.WithDescription("Session lifetime in milliseconds"),
		)
		if err == nil {
			hist.Record(context.Background(), float64(time.Since(started).Milliseconds()))
		}
	}
	if recorder != nil {
		recorder.SessionStopped(s.id, reason.String())
	}
	s.logger.Info("session stopped", "session_id", s.id, "reason", reason.String())
	hooks.stop(reason)
}

func (s *Session) renderLocked() *embed.Page {
	page := s.store.Current().Clone()
	if s.opts.UsePages && s.opts.ShowPageNumber {
		page.Footer = formatPageNumber(s.opts.PageFormat, s.store.Index()+1, s.store.Len())
	}
	return page
}

func formatPageNumber(format string, current, max int) string {
	out := strings.ReplaceAll(format, "%p", strconv.Itoa(current))
	return strings.ReplaceAll(out, "%m", strconv.Itoa(max))
}
