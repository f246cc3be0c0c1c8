package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"community-automation-bot/internal/features/giveaway/models"
	"community-automation-bot/internal/features/giveaway/repository"

	"github.com/redis/go-redis/v9"
)

type redisRepository struct {
	client *redis.Client
}

const (
	keyPrefixGiveaway   = "giveaway:"
	keyPrefixGuildOpen  = "giveaways:open:guild:"
	keyOpenGiveaways    = "giveaways:open"
	keyEndedGiveaways   = "giveaways:ended"
	keyGiveawayDeadline = "giveaways:deadlines"
)

func NewRedisRepository(client *redis.Client) repository.Repository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeGuildOpenKey(guildID string) string {
	return keyPrefixGuildOpen + guildID
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.MessageID), data, 0)
	pipe.SAdd(ctx, keyOpenGiveaways, giveaway.MessageID)
	pipe.SAdd(ctx, makeGuildOpenKey(giveaway.GuildID), giveaway.MessageID)
	pipe.ZAdd(ctx, keyGiveawayDeadline, redis.Z{
		Score:  float64(giveaway.EndsAt.Unix()),
		Member: giveaway.MessageID,
	})

	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, err
	}

	return &giveaway, nil
}

func (r *redisRepository) CountOpenByGuild(ctx context.Context, guildID string) (int64, error) {
	return r.client.SCard(ctx, makeGuildOpenKey(guildID)).Result()
}

func (r *redisRepository) GetExpired(ctx context.Context, now time.Time) ([]string, error) {
	return r.client.ZRangeByScore(ctx, keyGiveawayDeadline, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
}

const markEndedRetries = 3

func (r *redisRepository) MarkEnded(ctx context.Context, id string) (bool, error) {
	key := makeGiveawayKey(id)

	// The record itself is the arbitration point: WATCH it, re-check the
	// status, and commit the flip together with every index change in one
	// MULTI/EXEC. A failed or interrupted attempt leaves the record open
	// and retryable; exactly one caller ever observes the commit.
	for attempt := 0; attempt < markEndedRetries; attempt++ {
		var ended bool
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				return nil
			}
			if err != nil {
				return err
			}

			var giveaway models.Giveaway
			if err := json.Unmarshal(data, &giveaway); err != nil {
				return err
			}
			if giveaway.Status != models.GiveawayStatusOpen {
				return nil
			}

			giveaway.Status = models.GiveawayStatusEnded
			giveaway.UpdatedAt = time.Now()
			updated, err := json.Marshal(&giveaway)
			if err != nil {
				return fmt.Errorf("failed to marshal giveaway: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				pipe.SMove(ctx, keyOpenGiveaways, keyEndedGiveaways, id)
				pipe.SRem(ctx, makeGuildOpenKey(giveaway.GuildID), id)
				pipe.ZRem(ctx, keyGiveawayDeadline, id)
				return nil
			})
			if err == nil {
				ended = true
			}
			return err
		}, key)

		if err == redis.TxFailedErr {
			// Another writer touched the record; re-read and re-check.
			continue
		}
		if err != nil {
			return false, err
		}
		return ended, nil
	}

	// Lost every race; whoever won performed the transition.
	return false, nil
}

func (r *redisRepository) SetWinners(ctx context.Context, id string, winnerIDs []string) error {
	giveaway, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	giveaway.WinnerIDs = winnerIDs
	giveaway.UpdatedAt = time.Now()
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	return r.client.Set(ctx, makeGiveawayKey(id), data, 0).Err()
}
