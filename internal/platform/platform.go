// Package platform defines the contract the pager consumes from a chat
// platform: sending and editing messages, adding reactions, and scoped
// streams of reaction and text-reply events. Implementations live in the
// gateway and memory subpackages.
package platform

import (
	"context"
	"errors"
	"time"

	"EmbedPager/internal/embed"
)

// ErrDeliveryFailed wraps any transport failure from Send, Edit, Delete or
// React. Callers match it with errors.Is; retry policy stays with the
// platform layer.
var ErrDeliveryFailed = errors.New("delivery failed")

// Reaction is one reaction click delivered to a listener.
type Reaction struct {
	Symbol string
	UserID string
}

// ReactionFilter accepts or rejects a reaction before delivery.
type ReactionFilter func(Reaction) bool

// ReplyFilter accepts or rejects a text reply before delivery.
type ReplyFilter func(userID, content string) bool

// Message is a handle to a sent message.
type Message interface {
	// ID returns the platform identifier of the message.
	ID() string

	// Edit replaces the message content.
	Edit(ctx context.Context, page *embed.Page) error

	// Delete removes the message.
	Delete(ctx context.Context) error

	// React adds reactions in the given order.
	React(ctx context.Context, symbols []string) error

	// AwaitReactions opens a stream of reactions on this message matching
	// filter. A timeout <= 0 means the stream is bounded only by ctx. The
	// stream channel is never closed by the producer; consumers stop via ctx.
	AwaitReactions(ctx context.Context, filter ReactionFilter, timeout time.Duration) (<-chan Reaction, error)
}

// Channel is a handle to a chat channel.
type Channel interface {
	// ID returns the platform identifier of the channel.
	ID() string

	// Send delivers a new message and returns its handle.
	Send(ctx context.Context, page *embed.Page) (Message, error)

	// AwaitReplies opens a stream of text replies posted to this channel
	// matching filter. A timeout <= 0 means the stream is bounded only by
	// ctx. The stream channel is never closed by the producer; consumers
	// stop via ctx.
	AwaitReplies(ctx context.Context, filter ReplyFilter, timeout time.Duration) (<-chan string, error)
}
