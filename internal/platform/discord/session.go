// Package discord implements the gateway.Gateway surface on top of a
// discordgo session.
package discord

import (
	"context"
	"fmt"

	"community-automation-bot/internal/platform/gateway"

	"github.com/bwmarrin/discordgo"
)

const reactorsPageSize = 100

type Session struct {
	s *discordgo.Session
}

func NewSession(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("empty discord token")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return &Session{s: s}, nil
}

func (s *Session) Open() error {
	return s.s.Open()
}

func (s *Session) Close() error {
	return s.s.Close()
}

func (s *Session) BotUserID() string {
	if s.s.State != nil && s.s.State.User != nil {
		return s.s.State.User.ID
	}
	return ""
}

func (s *Session) FetchMessage(ctx context.Context, channelID, messageID string) (*gateway.Message, error) {
	msg, err := s.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return toMessage(msg), nil
}

func (s *Session) SendMessage(ctx context.Context, channelID, content string) (*gateway.Message, error) {
	msg, err := s.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return toMessage(msg), nil
}

func (s *Session) AddReaction(ctx context.Context, channelID, messageID string, emoji gateway.Emoji) error {
	return s.s.MessageReactionAdd(channelID, messageID, emoji.APIName(), discordgo.WithContext(ctx))
}

func (s *Session) FetchReactors(ctx context.Context, channelID, messageID string, emoji gateway.Emoji) ([]string, error) {
	var userIDs []string
	after := ""

	for {
		users, err := s.s.MessageReactions(channelID, messageID, emoji.APIName(), reactorsPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userIDs = append(userIDs, user.ID)
		}
		if len(users) < reactorsPageSize {
			return userIDs, nil
		}
		after = users[len(users)-1].ID
	}
}

func (s *Session) GrantRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return s.s.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func (s *Session) RevokeRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return s.s.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
}

func toMessage(msg *discordgo.Message) *gateway.Message {
	out := &gateway.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		Content:   msg.Content,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out
}

func toReactionEvent(r *discordgo.MessageReaction) gateway.ReactionEvent {
	return gateway.ReactionEvent{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Emoji: gateway.Emoji{
			ID:       r.Emoji.ID,
			Name:     r.Emoji.Name,
			Animated: r.Emoji.Animated,
		},
	}
}
