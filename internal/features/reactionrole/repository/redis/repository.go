package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"community-automation-bot/internal/features/reactionrole/models"
	"community-automation-bot/internal/features/reactionrole/repository"

	"github.com/redis/go-redis/v9"
)

type redisRepository struct {
	client *redis.Client
}

const (
	keyPrefixGroup   = "reactionrole:group:"
	keyPrefixBinding = "reactionrole:binding:"
)

func NewRedisRepository(client *redis.Client) repository.Repository {
	return &redisRepository{client: client}
}

func makeGroupKey(messageID string) string {
	return keyPrefixGroup + messageID
}

func makeBindingKey(guildID, emojiKey string) string {
	return keyPrefixBinding + guildID + ":" + emojiKey
}

func (r *redisRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	data, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to marshal group: %w", err)
	}
	return r.client.Set(ctx, makeGroupKey(group.MessageID), data, 0).Err()
}

func (r *redisRepository) GetGroup(ctx context.Context, messageID string) (*models.Group, error) {
	data, err := r.client.Get(ctx, makeGroupKey(messageID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	var group models.Group
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *redisRepository) DeleteGroup(ctx context.Context, messageID string) error {
	return r.client.Del(ctx, makeGroupKey(messageID)).Err()
}

func (r *redisRepository) BindRole(ctx context.Context, binding *models.RoleBinding) error {
	// SETNX enforces the one-role-per-emoji invariant within a guild.
	ok, err := r.client.SetNX(ctx, makeBindingKey(binding.GuildID, binding.Emoji), binding.RoleID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrEmojiTaken
	}
	return nil
}

func (r *redisRepository) UnbindRole(ctx context.Context, guildID, emojiKey string) error {
	return r.client.Del(ctx, makeBindingKey(guildID, emojiKey)).Err()
}

func (r *redisRepository) GetBoundRole(ctx context.Context, guildID, emojiKey string) (string, error) {
	roleID, err := r.client.Get(ctx, makeBindingKey(guildID, emojiKey)).Result()
	if err == redis.Nil {
		return "", repository.ErrRoleNotFound
	}
	if err != nil {
		return "", err
	}
	return roleID, nil
}
