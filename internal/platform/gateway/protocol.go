package gateway

import "EmbedPager/internal/embed"

// Wire types for the chat-gateway JSON frame protocol.

// Gateway operations issued by the client.
const (
	OpSendMessage   = "send_message"
	OpEditMessage   = "edit_message"
	OpDeleteMessage = "delete_message"
	OpAddReactions  = "add_reactions"
)

// Gateway events pushed by the server.
const (
	EventReactionAdd   = "reaction_add"
	EventMessageCreate = "message_create"
)

// Inbound frame kinds.
const (
	frameResponse = "response"
	frameEvent    = "event"
)

// Request represents one client-initiated operation
type Request struct {
	Op        string      `json:"op"`
	ID        int         `json:"id"`
	ChannelID string      `json:"channel_id,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
	Embed     *embed.Page `json:"embed,omitempty"`
	Emojis    []string    `json:"emojis,omitempty"`
}

// Inbound represents any frame pushed by the gateway: a correlated response
// to a request, or an unsolicited event
type Inbound struct {
	Type string `json:"type"`

	// Response fields
	ID    int    `json:"id,omitempty"`
	Error string `json:"error,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`

	// Shared payload
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	Content   string `json:"content,omitempty"`
}
