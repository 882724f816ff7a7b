package pager

import "EmbedPager/internal/platform"

// StopReason classifies why a session terminated.
type StopReason int

const (
	// StopTrigger means the stop reaction was clicked.
	StopTrigger StopReason = iota
	// StopTimeout means the lifetime timer elapsed.
	StopTimeout
	// StopCancel means Cancel was called on the session.
	StopCancel
)

func (r StopReason) String() string {
	switch r {
	case StopTrigger:
		return "stop-trigger"
	case StopTimeout:
		return "timeout"
	case StopCancel:
		return "explicit-cancel"
	default:
		return "unknown"
	}
}

// Hooks is the consumer-facing event surface. Every callback is optional and
// is invoked synchronously from the goroutine that produced the event.
type Hooks struct {
	// OnCreate fires once the first page is sent and the listener attached.
	OnCreate func(sent platform.Message)

	// OnStop fires exactly once when the session ends.
	OnStop func(reason StopReason)

	// OnPageUpdate fires when the page-jump protocol changes the page.
	OnPageUpdate func(newIndex int)

	// OnPage fires when the jump protocol accepts a page number (1-based).
	OnPage func(page int, raw string)

	// OnInvalid fires for each jump reply that is neither a valid page nor
	// the cancel keyword; the sub-session keeps listening.
	OnInvalid func(raw string)

	// OnCancel fires when the jump protocol is cancelled by keyword.
	OnCancel func(raw string)
}

func (h Hooks) create(m platform.Message) {
	if h.OnCreate != nil {
		h.OnCreate(m)
	}
}

func (h Hooks) stop(r StopReason) {
	if h.OnStop != nil {
		h.OnStop(r)
	}
}

func (h Hooks) pageUpdate(i int) {
	if h.OnPageUpdate != nil {
		h.OnPageUpdate(i)
	}
}

func (h Hooks) page(n int, raw string) {
	if h.OnPage != nil {
		h.OnPage(n, raw)
	}
}

func (h Hooks) invalid(raw string) {
	if h.OnInvalid != nil {
		h.OnInvalid(raw)
	}
}

func (h Hooks) cancel(raw string) {
	if h.OnCancel != nil {
		h.OnCancel(raw)
	}
}

// Recorder receives session audit events. A nil Recorder disables recording.
// Implementations must not block the dispatch loop; failures are theirs to
// log and swallow.
type Recorder interface {
	SessionStarted(sessionID, channelID string, pageCount int)
	PageViewed(sessionID string, index int)
	SessionStopped(sessionID, reason string)
}
