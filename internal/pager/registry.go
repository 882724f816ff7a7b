package pager

import (
	"sync"

	"EmbedPager/internal/platform"
)

// NavAction names one of the built-in navigation actions.
type NavAction string

const (
	NavFirst NavAction = "first"
	NavBack  NavAction = "back"
	NavStop  NavAction = "stop"
	NavNext  NavAction = "next"
	NavLast  NavAction = "last"
)

// Default trigger symbols for the built-in actions.
const (
	EmojiFirst = "⏮"
	EmojiBack  = "◀"
	EmojiStop  = "⏹"
	EmojiNext  = "▶"
	EmojiLast  = "⏭"
)

// DefaultEmoji maps each built-in action to its default trigger symbol.
var DefaultEmoji = map[NavAction]string{
	NavFirst: EmojiFirst,
	NavBack:  EmojiBack,
	NavStop:  EmojiStop,
	NavNext:  EmojiNext,
	NavLast:  EmojiLast,
}

// DefaultReactionOrder is the order reactions are attached in when the
// session does not supply its own.
var DefaultReactionOrder = []NavAction{NavFirst, NavBack, NavStop, NavNext, NavLast}

// TriggerContext is passed to every handler on dispatch.
type TriggerContext struct {
	Message platform.Message
	Index   int
	Session *Session
	Symbol  string
}

// Handler is a user action bound to a trigger symbol.
type Handler func(tc *TriggerContext)

// ActionRegistry maps trigger symbols to handlers. Registering an existing
// symbol replaces its handler, which is how both emoji remapping and
// overriding a built-in work.
type ActionRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{handlers: make(map[string]Handler)}
}

// Register upserts a handler for symbol. First registration of a symbol also
// fixes its position in the reaction order.
func (r *ActionRegistry) Register(symbol string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[symbol]; !ok {
		r.order = append(r.order, symbol)
	}
	r.handlers[symbol] = handler
}

// Unregister removes the handler for symbol; no-op when absent.
func (r *ActionRegistry) Unregister(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[symbol]; !ok {
		return
	}
	delete(r.handlers, symbol)
	for i, s := range r.order {
		if s == symbol {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Dispatch invokes the handler bound to symbol synchronously. An unbound
// symbol is silently ignored; the return value reports whether a handler ran.
func (r *ActionRegistry) Dispatch(symbol string, tc *TriggerContext) bool {
	r.mu.RLock()
	handler, ok := r.handlers[symbol]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	handler(tc)
	return true
}

// Symbols returns the registered symbols in registration order, which is the
// order reactions are attached in.
func (r *ActionRegistry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered handlers.
func (r *ActionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
