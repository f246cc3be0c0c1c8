// Package gateway defines the chat-platform surface the services consume.
// The wire protocol behind it is out of scope; the discord platform package
// provides the production implementation.
package gateway

import "context"

// Message is the hydrated view of a channel message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Content   string
}

// Emoji is the reaction emoji as delivered by the platform. ID is empty for
// unicode emoji.
type Emoji struct {
	ID       string
	Name     string
	Animated bool
}

// Token renders the emoji in the form bindings are configured with: custom
// markup for custom emoji, the grapheme itself for unicode.
func (e Emoji) Token() string {
	if e.ID == "" {
		return e.Name
	}
	prefix := "<"
	if e.Animated {
		prefix = "<a"
	}
	return prefix + ":" + e.Name + ":" + e.ID + ">"
}

// APIName renders the emoji in the form reaction endpoints expect.
func (e Emoji) APIName() string {
	if e.ID == "" {
		return e.Name
	}
	return e.Name + ":" + e.ID
}

// ReactionEvent is a reaction add or remove as delivered by the platform.
// GuildID may be empty on partial payloads; handlers hydrate through
// FetchMessage before resolving.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Emoji     Emoji
}

// Gateway is the outbound platform surface. Implementations suspend on
// every call and report failures as plain errors; callers decide between
// best-effort and required semantics.
type Gateway interface {
	// BotUserID returns the id of the bot's own user, used to exclude the
	// bot from participant sets and to skip self-reactions.
	BotUserID() string

	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	SendMessage(ctx context.Context, channelID, content string) (*Message, error)
	AddReaction(ctx context.Context, channelID, messageID string, emoji Emoji) error

	// FetchReactors returns the ids of every user who reacted to the
	// message with the given emoji, paginating as needed.
	FetchReactors(ctx context.Context, channelID, messageID string, emoji Emoji) ([]string, error)

	GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error
}
