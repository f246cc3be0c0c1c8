package repository

import (
	"context"
	"errors"

	"community-automation-bot/internal/features/reactionrole/models"
)

var (
	ErrGroupNotFound = errors.New("reaction role group not found")
	ErrRoleNotFound  = errors.New("no role bound to emoji")
	ErrEmojiTaken    = errors.New("emoji is already bound to a role in this guild")
)

// Repository is the reaction-role index: groups keyed by message id and
// role bindings keyed by (guild, canonical emoji).
type Repository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, messageID string) (*models.Group, error)
	DeleteGroup(ctx context.Context, messageID string) error

	// BindRole registers a binding; returns ErrEmojiTaken when the emoji
	// already maps to a role in the guild.
	BindRole(ctx context.Context, binding *models.RoleBinding) error
	UnbindRole(ctx context.Context, guildID, emojiKey string) error

	// GetBoundRole resolves the role bound to the emoji within the guild.
	// Returns ErrRoleNotFound when no binding exists; callers treat that
	// as a normal short-circuit.
	GetBoundRole(ctx context.Context, guildID, emojiKey string) (string, error)
}
