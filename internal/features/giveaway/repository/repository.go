package repository

import (
	"context"
	"errors"
	"time"

	"community-automation-bot/internal/features/giveaway/models"
)

var ErrGiveawayNotFound = errors.New("giveaway not found")

// Repository persists giveaway records. The store is the single
// arbitration point for concurrent writers: the open→ended transition is
// a single atomic conditional update.
type Repository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)

	// CountOpenByGuild counts the guild's currently-open giveaways; the
	// quota gate consults it.
	CountOpenByGuild(ctx context.Context, guildID string) (int64, error)

	// GetExpired returns the ids of open giveaways whose deadline is at
	// or before now.
	GetExpired(ctx context.Context, now time.Time) ([]string, error)

	// MarkEnded transitions the giveaway from open to ended. Returns
	// false when the giveaway was not open, which lets overlapping sweep
	// runs finalize a record exactly once.
	MarkEnded(ctx context.Context, id string) (bool, error)

	// SetWinners attaches the drawn winner list to an ended giveaway.
	SetWinners(ctx context.Context, id string, winnerIDs []string) error
}
