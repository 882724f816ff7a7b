// Package gateway implements the platform contract over a websocket chat
// gateway. Client operations are correlated request/response frames; the
// gateway pushes reaction and message events, which a single read pump
// demultiplexes into the scoped listener streams.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"EmbedPager/internal/embed"
	"EmbedPager/internal/platform"

	"github.com/gorilla/websocket"
)

type reactionListener struct {
	filter platform.ReactionFilter
	ch     chan platform.Reaction
}

type replyListener struct {
	filter platform.ReplyFilter
	ch     chan string
}

// Client is a connection to a chat gateway.
type Client struct {
	url    string
	conn   *websocket.Conn
	logger *slog.Logger
	reqID  int32

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[int]chan Inbound
	reactions map[string][]*reactionListener // keyed by message id
	replies   map[string][]*replyListener    // keyed by channel id
	closed    bool
}

// Dial connects to the gateway and starts the read pump.
func Dial(url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	c := &Client{
		url:       url,
		conn:      conn,
		logger:    logger,
		pending:   make(map[int]chan Inbound),
		reactions: make(map[string][]*reactionListener),
		replies:   make(map[string][]*replyListener),
	}

	go c.readPump()

	logger.Info("connected to gateway", "url", url)
	return c, nil
}

// Channel returns a handle to the channel with the given gateway identifier.
func (c *Client) Channel(id string) platform.Channel {
	return &Channel{client: c, id: id}
}

// Close performs the close handshake and disconnects. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.conn.Close()

	c.logger.Info("closed gateway connection", "url", c.url)
	return nil
}

// readPump routes every inbound frame: responses to their waiting request,
// events to the listeners scoped to their message or channel.
func (c *Client) readPump() {
	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			c.mu.Lock()
			closed := c.closed
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			if !closed {
				c.logger.Error("gateway read failed", "error", err)
			}
			return
		}

		switch in.Type {
		case frameResponse:
			c.mu.Lock()
			ch, ok := c.pending[in.ID]
			if ok {
				delete(c.pending, in.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- in
			}
		case frameEvent:
			c.dispatchEvent(in)
		default:
			c.logger.Warn("unknown frame type", "type", in.Type)
		}
	}
}

func (c *Client) dispatchEvent(in Inbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch in.Event {
	case EventReactionAdd:
		r := platform.Reaction{Symbol: in.Emoji, UserID: in.UserID}
		for _, l := range c.reactions[in.MessageID] {
			if l.filter != nil && !l.filter(r) {
				continue
			}
			select {
			case l.ch <- r:
			default:
				c.logger.Warn("reaction listener full, dropping", "message_id", in.MessageID)
			}
		}
	case EventMessageCreate:
		for _, l := range c.replies[in.ChannelID] {
			if l.filter != nil && !l.filter(in.UserID, in.Content) {
				continue
			}
			select {
			case l.ch <- in.Content:
			default:
				c.logger.Warn("reply listener full, dropping", "channel_id", in.ChannelID)
			}
		}
	}
}

// roundTrip sends one request and waits for its correlated response.
func (c *Client) roundTrip(ctx context.Context, req Request) (Inbound, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Inbound{}, fmt.Errorf("%w: gateway connection closed", platform.ErrDeliveryFailed)
	}
	req.ID = int(atomic.AddInt32(&c.reqID, 1))
	ch := make(chan Inbound, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return Inbound{}, fmt.Errorf("%w: write %s: %v", platform.ErrDeliveryFailed, req.Op, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return Inbound{}, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return Inbound{}, fmt.Errorf("%w: connection lost", platform.ErrDeliveryFailed)
		}
		if resp.Error != "" {
			return Inbound{}, fmt.Errorf("%w: %s: %s", platform.ErrDeliveryFailed, req.Op, resp.Error)
		}
		return resp, nil
	}
}

func (c *Client) addReactionListener(messageID string, l *reactionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reactions[messageID] = append(c.reactions[messageID], l)
}

func (c *Client) removeReactionListener(messageID string, l *reactionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls := c.reactions[messageID]
	for i, cur := range ls {
		if cur == l {
			c.reactions[messageID] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	if len(c.reactions[messageID]) == 0 {
		delete(c.reactions, messageID)
	}
}

func (c *Client) addReplyListener(channelID string, l *replyListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[channelID] = append(c.replies[channelID], l)
}

func (c *Client) removeReplyListener(channelID string, l *replyListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls := c.replies[channelID]
	for i, cur := range ls {
		if cur == l {
			c.replies[channelID] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	if len(c.replies[channelID]) == 0 {
		delete(c.replies, channelID)
	}
}

// Channel is a gateway channel handle.
type Channel struct {
	client *Client
	id     string
}

// ID returns the channel identifier.
func (ch *Channel) ID() string {
	return ch.id
}

// Send delivers a new message to the channel.
func (ch *Channel) Send(ctx context.Context, page *embed.Page) (platform.Message, error) {
	resp, err := ch.client.roundTrip(ctx, Request{
		Op:        OpSendMessage,
		ChannelID: ch.id,
		Embed:     page,
	})
	if err != nil {
		return nil, err
	}
	return &Message{client: ch.client, channelID: ch.id, id: resp.MessageID}, nil
}

// AwaitReplies opens a filtered reply stream; see the platform contract.
func (ch *Channel) AwaitReplies(ctx context.Context, filter platform.ReplyFilter, timeout time.Duration) (<-chan string, error) {
	l := &replyListener{filter: filter, ch: make(chan string, 64)}
	ch.client.addReplyListener(ch.id, l)

	go func() {
		waitScope(ctx, timeout)
		ch.client.removeReplyListener(ch.id, l)
	}()

	return l.ch, nil
}

// Message is a gateway message handle.
type Message struct {
	client    *Client
	channelID string
	id        string
}

// ID returns the message identifier.
func (m *Message) ID() string {
	return m.id
}

// Edit replaces the message content.
func (m *Message) Edit(ctx context.Context, page *embed.Page) error {
	_, err := m.client.roundTrip(ctx, Request{
		Op:        OpEditMessage,
		ChannelID: m.channelID,
		MessageID: m.id,
		Embed:     page,
	})
	return err
}

// Delete removes the message.
func (m *Message) Delete(ctx context.Context) error {
	_, err := m.client.roundTrip(ctx, Request{
		Op:        OpDeleteMessage,
		ChannelID: m.channelID,
		MessageID: m.id,
	})
	return err
}

// React adds reactions in the given order.
func (m *Message) React(ctx context.Context, symbols []string) error {
	_, err := m.client.roundTrip(ctx, Request{
		Op:        OpAddReactions,
		ChannelID: m.channelID,
		MessageID: m.id,
		Emojis:    symbols,
	})
	return err
}

// AwaitReactions opens a filtered reaction stream; see the platform contract.
func (m *Message) AwaitReactions(ctx context.Context, filter platform.ReactionFilter, timeout time.Duration) (<-chan platform.Reaction, error) {
	l := &reactionListener{filter: filter, ch: make(chan platform.Reaction, 64)}
	m.client.addReactionListener(m.id, l)

	go func() {
		waitScope(ctx, timeout)
		m.client.removeReactionListener(m.id, l)
	}()

	return l.ch, nil
}

// waitScope blocks until ctx is done or, when timeout is positive, the
// timeout elapses.
func waitScope(ctx context.Context, timeout time.Duration) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		return
	}
	<-ctx.Done()
}
