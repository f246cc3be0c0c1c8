package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/common/logger"
	"community-automation-bot/internal/common/reliability"
	"community-automation-bot/internal/features/giveaway/models"
	"community-automation-bot/internal/features/giveaway/repository"
	"community-automation-bot/internal/features/premium"
	"community-automation-bot/internal/platform/gateway"
	"community-automation-bot/internal/utils/random"
)

// CommandArgs is the parsed invocation of the giveaway command. Argument
// parsing itself happens upstream.
type CommandArgs struct {
	Remainder string
	Timeout   *int
	Winners   *int
	Remove    bool
}

// Service drives the giveaway lifecycle: creation behind the quota gate,
// the exactly-once open→ended transition, and manual rerolls.
type Service interface {
	// HandleCommand dispatches a command invocation: a remainder naming an
	// existing giveaway ends or rerolls it, anything else starts a new
	// giveaway for that item.
	HandleCommand(ctx context.Context, src *gateway.Message, args CommandArgs) error

	Start(ctx context.Context, src *gateway.Message, item string, timeoutHours, winners int) (*models.Giveaway, error)

	// Finalize performs the open→ended transition for one giveaway and
	// announces the drawn winners. Safe against double invocation: only
	// the caller that wins the conditional update announces.
	Finalize(ctx context.Context, giveawayID string) error

	// Reroll redraws winners for an ended giveaway without reopening it.
	// Invoked on a still-open giveaway it ends it immediately.
	Reroll(ctx context.Context, giveawayID string, excludePrevious bool) error

	Get(ctx context.Context, giveawayID string) (*models.Giveaway, error)
	CountOpen(ctx context.Context, guildID string) (int64, error)
}

type giveawayService struct {
	repo repository.Repository
	gw   gateway.Gateway
	gate *premium.QuotaGate
}

func NewService(repo repository.Repository, gw gateway.Gateway, gate *premium.QuotaGate) Service {
	return &giveawayService{
		repo: repo,
		gw:   gw,
		gate: gate,
	}
}

func (s *giveawayService) HandleCommand(ctx context.Context, src *gateway.Message, args CommandArgs) error {
	remainder := strings.TrimSpace(args.Remainder)
	if remainder == "" {
		return apperrors.NewInvalidSyntaxError("giveaway")
	}

	timeout := models.DefaultTimeoutHours
	if args.Timeout != nil {
		timeout = clamp(*args.Timeout, models.MinTimeoutHours, models.MaxTimeoutHours)
	}
	winners := models.DefaultWinners
	if args.Winners != nil && *args.Winners > models.DefaultWinners {
		winners = *args.Winners
	}

	// A remainder naming an existing giveaway triggers the manual path.
	if _, err := s.repo.GetByID(ctx, remainder); err == nil {
		return s.Reroll(ctx, remainder, args.Remove)
	} else if !errors.Is(err, repository.ErrGiveawayNotFound) {
		return apperrors.NewDatabaseError("get giveaway", err)
	}

	_, err := s.Start(ctx, src, remainder, timeout, winners)
	return err
}

func (s *giveawayService) Start(ctx context.Context, src *gateway.Message, item string, timeoutHours, winners int) (*models.Giveaway, error) {
	if winners < 1 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidWinners, "winners count must be at least 1")
	}
	if timeoutHours < models.MinTimeoutHours || timeoutHours > models.MaxTimeoutHours {
		return nil, apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("giveaway timeout must be between %d and %d hours", models.MinTimeoutHours, models.MaxTimeoutHours))
	}

	if err := s.gate.CheckGiveawayAllowed(ctx, src.GuildID, timeoutHours); err != nil {
		return nil, err
	}

	now := time.Now()
	endsAt := now.Add(time.Duration(timeoutHours) * time.Hour)

	announcement, err := s.gw.SendMessage(ctx, src.ChannelID, formatAnnouncement(item, winners, endsAt))
	if err != nil {
		return nil, apperrors.NewTransientError("send giveaway announcement", err)
	}

	giveaway := &models.Giveaway{
		MessageID: announcement.ID,
		ChannelID: announcement.ChannelID,
		GuildID:   src.GuildID,
		Item:      item,
		Winners:   winners,
		EndsAt:    endsAt,
		Status:    models.GiveawayStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Persisting the record is the essential step. If it fails the
	// announcement is orphaned, and an orphaned announcement simply reads
	// as "not a giveaway" everywhere else.
	if err := s.repo.Create(ctx, giveaway); err != nil {
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	for _, reaction := range participationEmoji {
		reaction := reaction
		reliability.BestEffort("add giveaway reaction", func() error {
			return s.gw.AddReaction(ctx, announcement.ChannelID, announcement.ID, reaction)
		})
	}

	logger.Info().
		Str("giveaway_id", giveaway.MessageID).
		Str("guild_id", giveaway.GuildID).
		Int("winners", winners).
		Time("ends_at", endsAt).
		Msg("Giveaway started")

	return giveaway, nil
}

func (s *giveawayService) Finalize(ctx context.Context, giveawayID string) error {
	ended, err := s.repo.MarkEnded(ctx, giveawayID)
	if err != nil {
		return apperrors.NewDatabaseError("end giveaway", err)
	}
	if !ended {
		// Lost the race or the giveaway was never open; the winning
		// caller announces.
		return nil
	}

	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if err != nil {
		return apperrors.NewDatabaseError("get giveaway", err)
	}

	return s.drawAndAnnounce(ctx, giveaway, nil, "Giveaway ended")
}

func (s *giveawayService) Reroll(ctx context.Context, giveawayID string, excludePrevious bool) error {
	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return apperrors.NewGiveawayNotFoundError(giveawayID)
	}
	if err != nil {
		return apperrors.NewDatabaseError("get giveaway", err)
	}

	// The manual trigger on a still-open giveaway is an early end, not a
	// reroll; the conditional transition still arbitrates.
	if giveaway.IsOpen() {
		return s.Finalize(ctx, giveawayID)
	}

	var exclude []string
	if excludePrevious {
		exclude = giveaway.WinnerIDs
	}
	return s.drawAndAnnounce(ctx, giveaway, exclude, "Giveaway rerolled")
}

func (s *giveawayService) Get(ctx context.Context, giveawayID string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, giveawayID)
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return nil, apperrors.NewGiveawayNotFoundError(giveawayID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get giveaway", err)
	}
	return giveaway, nil
}

func (s *giveawayService) CountOpen(ctx context.Context, guildID string) (int64, error) {
	count, err := s.repo.CountOpenByGuild(ctx, guildID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count open giveaways", err)
	}
	return count, nil
}

// drawAndAnnounce gathers the participant set, draws winners and persists
// them, then announces. Only the persistence is required.
func (s *giveawayService) drawAndAnnounce(ctx context.Context, giveaway *models.Giveaway, exclude []string, logMsg string) error {
	participants, err := s.gatherParticipants(ctx, giveaway)
	if err != nil {
		return apperrors.NewTransientError("gather giveaway participants", err)
	}

	if len(exclude) > 0 {
		excluded := make(map[string]bool, len(exclude))
		for _, id := range exclude {
			excluded[id] = true
		}
		kept := participants[:0]
		for _, id := range participants {
			if !excluded[id] {
				kept = append(kept, id)
			}
		}
		participants = kept
	}

	if len(participants) == 0 {
		reliability.BestEffort("announce giveaway result", func() error {
			_, err := s.gw.SendMessage(ctx, giveaway.ChannelID, formatNoWinner(giveaway.Item))
			return err
		})
		logger.Info().
			Str("giveaway_id", giveaway.MessageID).
			Msg(logMsg + " with no participants")
		return nil
	}

	winnerIDs, err := random.PickWinners(participants, giveaway.Winners)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "failed to draw winners for giveaway %s", giveaway.MessageID)
	}

	err = reliability.Required(func() error {
		return s.repo.SetWinners(ctx, giveaway.MessageID, winnerIDs)
	})
	if err != nil {
		return apperrors.NewDatabaseError("set giveaway winners", err)
	}

	reliability.BestEffort("announce giveaway result", func() error {
		_, err := s.gw.SendMessage(ctx, giveaway.ChannelID, formatWinners(giveaway.Item, winnerIDs))
		return err
	})

	logger.Info().
		Str("giveaway_id", giveaway.MessageID).
		Int("participants", len(participants)).
		Int("winners", len(winnerIDs)).
		Msg(logMsg)

	return nil
}

// gatherParticipants derives the participant set from the announcement's
// reactions, excluding the bot itself. The set is never persisted.
func (s *giveawayService) gatherParticipants(ctx context.Context, giveaway *models.Giveaway) ([]string, error) {
	seen := make(map[string]bool)
	var participants []string
	var lastErr error
	fetched := false

	for _, reaction := range participationEmoji {
		users, err := s.gw.FetchReactors(ctx, giveaway.ChannelID, giveaway.MessageID, reaction)
		if err != nil {
			lastErr = err
			continue
		}
		fetched = true
		for _, userID := range users {
			if userID == s.gw.BotUserID() || seen[userID] {
				continue
			}
			seen[userID] = true
			participants = append(participants, userID)
		}
	}

	if !fetched && lastErr != nil {
		return nil, lastErr
	}
	return participants, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func formatAnnouncement(item string, winners int, endsAt time.Time) string {
	return fmt.Sprintf(
		"🎉 **GIVEAWAY!** %s\nReact to this message with 🎊 or 🎉 to participate for a chance to win.\n%d winner(s) • Ends <t:%d:R>",
		item, winners, endsAt.Unix(),
	)
}

func formatWinners(item string, winnerIDs []string) string {
	mentions := make([]string, len(winnerIDs))
	for i, id := range winnerIDs {
		mentions[i] = mention(id)
	}
	return fmt.Sprintf("🎉 Congratulations %s! You won **%s**!", strings.Join(mentions, " "), item)
}

func formatNoWinner(item string) string {
	return fmt.Sprintf("Nobody participated in the giveaway for **%s**, so there is no winner.", item)
}
