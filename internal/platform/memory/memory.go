// Package memory is an in-memory implementation of the platform contract,
// used by tests and the demo binary. Reactions and replies are injected by
// the caller; delivery honors listener filters and time budgets.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"EmbedPager/internal/embed"
	"EmbedPager/internal/platform"
)

type replyListener struct {
	filter platform.ReplyFilter
	ch     chan string
}

type reactionListener struct {
	filter platform.ReactionFilter
	ch     chan platform.Reaction
}

// Channel is an in-memory chat channel.
type Channel struct {
	mu        sync.Mutex
	id        string
	seq       int
	sent      []*Message
	listeners []*replyListener
	failSends bool
}

// NewChannel creates an empty channel with the given identifier.
func NewChannel(id string) *Channel {
	return &Channel{id: id}
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return c.id
}

// FailSends makes subsequent Send calls fail with ErrDeliveryFailed.
func (c *Channel) FailSends(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSends = fail
}

// Send records the page as a new message and returns its handle.
func (c *Channel) Send(ctx context.Context, page *embed.Page) (platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSends {
		return nil, fmt.Errorf("%w: send rejected", platform.ErrDeliveryFailed)
	}
	c.seq++
	msg := &Message{
		channel: c,
		id:      fmt.Sprintf("%s/msg-%d", c.id, c.seq),
		page:    page.Clone(),
	}
	c.sent = append(c.sent, msg)
	return msg, nil
}

// AwaitReplies opens a filtered reply stream; see the platform contract.
func (c *Channel) AwaitReplies(ctx context.Context, filter platform.ReplyFilter, timeout time.Duration) (<-chan string, error) {
	l := &replyListener{filter: filter, ch: make(chan string, 64)}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()

	go func() {
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		} else {
			<-ctx.Done()
		}
		c.mu.Lock()
		for i, cur := range c.listeners {
			if cur == l {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	return l.ch, nil
}

// PostReply injects a text reply, delivering it to every matching listener.
func (c *Channel) PostReply(userID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.listeners {
		if l.filter != nil && !l.filter(userID, content) {
			continue
		}
		select {
		case l.ch <- content:
		default:
		}
	}
}

// ReplyListenerCount reports the number of attached reply listeners.
func (c *Channel) ReplyListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Messages returns every message sent on the channel, in order.
func (c *Channel) Messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Message, len(c.sent))
	copy(out, c.sent)
	return out
}

// LastMessage returns the most recently sent message, or nil.
func (c *Channel) LastMessage() *Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1]
}

// Message is an in-memory message handle.
type Message struct {
	mu        sync.Mutex
	channel   *Channel
	id        string
	page      *embed.Page
	edits     int
	deleted   bool
	reactions []string
	listeners []*reactionListener
	failEdits bool
}

// ID returns the message identifier.
func (m *Message) ID() string {
	return m.id
}

// FailEdits makes subsequent Edit calls fail with ErrDeliveryFailed.
func (m *Message) FailEdits(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEdits = fail
}

// Edit replaces the message content.
func (m *Message) Edit(ctx context.Context, page *embed.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdits {
		return fmt.Errorf("%w: edit rejected", platform.ErrDeliveryFailed)
	}
	if m.deleted {
		return fmt.Errorf("%w: message deleted", platform.ErrDeliveryFailed)
	}
	m.page = page.Clone()
	m.edits++
	return nil
}

// Delete marks the message deleted.
func (m *Message) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = true
	return nil
}

// React records reactions in order.
func (m *Message) React(ctx context.Context, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions = append(m.reactions, symbols...)
	return nil
}

// AwaitReactions opens a filtered reaction stream; see the platform contract.
func (m *Message) AwaitReactions(ctx context.Context, filter platform.ReactionFilter, timeout time.Duration) (<-chan platform.Reaction, error) {
	l := &reactionListener{filter: filter, ch: make(chan platform.Reaction, 64)}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	go func() {
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		} else {
			<-ctx.Done()
		}
		m.mu.Lock()
		for i, cur := range m.listeners {
			if cur == l {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
	}()

	return l.ch, nil
}

// AddReaction injects a reaction click, delivering it to every matching
// listener.
func (m *Message) AddReaction(symbol, userID string) {
	r := platform.Reaction{Symbol: symbol, UserID: userID}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listeners {
		if l.filter != nil && !l.filter(r) {
			continue
		}
		select {
		case l.ch <- r:
		default:
		}
	}
}

// Page returns the current message content.
func (m *Message) Page() *embed.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Reactions returns the reactions the bot attached, in order.
func (m *Message) Reactions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.reactions))
	copy(out, m.reactions)
	return out
}

// Deleted reports whether Delete was called.
func (m *Message) Deleted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted
}

// Edits returns the number of successful edits.
func (m *Message) Edits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edits
}

// ListenerCount reports the number of attached reaction listeners.
func (m *Message) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
