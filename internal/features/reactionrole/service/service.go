package service

import (
	"context"
	"errors"
	"time"

	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/common/logger"
	"community-automation-bot/internal/common/reliability"
	"community-automation-bot/internal/features/reactionrole/models"
	"community-automation-bot/internal/features/reactionrole/repository"
	"community-automation-bot/internal/platform/gateway"
	"community-automation-bot/internal/utils/emoji"
)

const (
	grantReason  = "Added via Reaction Roles"
	revokeReason = "Removed via Reaction Roles"
)

// Service is the reaction-role engine plus the operator configuration
// surface for groups and bindings.
type Service interface {
	// HandleReactionAdd and HandleReactionRemove are fire-and-forget:
	// every absent resolution step and every platform failure is a no-op.
	HandleReactionAdd(ctx context.Context, ev gateway.ReactionEvent)
	HandleReactionRemove(ctx context.Context, ev gateway.ReactionEvent)

	CreateGroup(ctx context.Context, messageID, channelID, guildID string, roles []string) (*models.Group, error)
	DeleteGroup(ctx context.Context, messageID string) error
	BindRole(ctx context.Context, guildID, roleID, emojiToken string) error
	UnbindRole(ctx context.Context, guildID, emojiToken string) error
}

type service struct {
	repo repository.Repository
	gw   gateway.Gateway
}

func NewService(repo repository.Repository, gw gateway.Gateway) Service {
	return &service{repo: repo, gw: gw}
}

func (s *service) HandleReactionAdd(ctx context.Context, ev gateway.ReactionEvent) {
	s.handleReaction(ctx, ev, s.gw.GrantRole, grantReason)
}

func (s *service) HandleReactionRemove(ctx context.Context, ev gateway.ReactionEvent) {
	s.handleReaction(ctx, ev, s.gw.RevokeRole, revokeReason)
}

type roleOp func(ctx context.Context, guildID, userID, roleID, reason string) error

func (s *service) handleReaction(ctx context.Context, ev gateway.ReactionEvent, apply roleOp, reason string) {
	if ev.UserID == s.gw.BotUserID() {
		return
	}

	// Hydrate partial payloads before resolution. A failed fetch degrades
	// to a no-op; the event may be for a deleted message.
	if ev.GuildID == "" {
		msg, err := s.gw.FetchMessage(ctx, ev.ChannelID, ev.MessageID)
		if err != nil {
			logger.Debug().
				Str("message_id", ev.MessageID).
				Err(err).
				Msg("Skipping reaction event, hydration failed")
			return
		}
		ev.GuildID = msg.GuildID
	}
	if ev.GuildID == "" {
		return
	}

	group, err := s.repo.GetGroup(ctx, ev.MessageID)
	if err != nil {
		// Most reactions are for unrelated messages.
		return
	}

	key, ok := emoji.Canonical(ev.Emoji.Token())
	if !ok {
		return
	}

	roleID, err := s.repo.GetBoundRole(ctx, ev.GuildID, key)
	if err != nil {
		return
	}

	if !group.HasRole(roleID) {
		return
	}

	// The platform treats re-granting a held role and revoking an absent
	// one as no-ops, so the apply itself is idempotent.
	reliability.BestEffort("reaction role update", func() error {
		return apply(ctx, ev.GuildID, ev.UserID, roleID, reason)
	})
}

func (s *service) CreateGroup(ctx context.Context, messageID, channelID, guildID string, roles []string) (*models.Group, error) {
	if messageID == "" || guildID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "message id and guild id are required")
	}

	group := &models.Group{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
		CreatedAt: time.Now(),
	}
	for _, roleID := range roles {
		group.AddRole(roleID)
	}

	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, apperrors.NewDatabaseError("create reaction role group", err)
	}
	return group, nil
}

func (s *service) DeleteGroup(ctx context.Context, messageID string) error {
	if _, err := s.repo.GetGroup(ctx, messageID); errors.Is(err, repository.ErrGroupNotFound) {
		return apperrors.NewNotFoundError("reaction role group", messageID)
	} else if err != nil {
		return apperrors.NewDatabaseError("get reaction role group", err)
	}

	if err := s.repo.DeleteGroup(ctx, messageID); err != nil {
		return apperrors.NewDatabaseError("delete reaction role group", err)
	}
	return nil
}

func (s *service) BindRole(ctx context.Context, guildID, roleID, emojiToken string) error {
	key, ok := emoji.Canonical(emojiToken)
	if !ok {
		return apperrors.New(apperrors.ErrCodeValidation, "unresolvable emoji token").
			WithDetail("emoji", emojiToken)
	}

	err := s.repo.BindRole(ctx, &models.RoleBinding{
		RoleID:  roleID,
		GuildID: guildID,
		Emoji:   key,
	})
	if errors.Is(err, repository.ErrEmojiTaken) {
		return apperrors.New(apperrors.ErrCodeEmojiInUse, "emoji is already bound to a role in this guild").
			WithDetail("emoji", key)
	}
	if err != nil {
		return apperrors.NewDatabaseError("bind reaction role", err)
	}
	return nil
}

func (s *service) UnbindRole(ctx context.Context, guildID, emojiToken string) error {
	key, ok := emoji.Canonical(emojiToken)
	if !ok {
		return apperrors.New(apperrors.ErrCodeValidation, "unresolvable emoji token").
			WithDetail("emoji", emojiToken)
	}
	if err := s.repo.UnbindRole(ctx, guildID, key); err != nil {
		return apperrors.NewDatabaseError("unbind reaction role", err)
	}
	return nil
}
