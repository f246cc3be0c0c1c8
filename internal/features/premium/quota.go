package premium

import (
	"context"

	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/common/logger"
)

// OpenGiveawayCounter counts the guild's currently-open giveaways.
type OpenGiveawayCounter interface {
	CountOpenByGuild(ctx context.Context, guildID string) (int64, error)
}

// QuotaGate decides whether a guild may create another giveaway. The
// two rejection reasons are deliberately distinct: PREMIUM_MEMBERSHIP_REQUIRED
// for guilds with no tier and LIMITED_PREMIUM_MEMBERSHIP for guilds over
// their own tier's allowance.
type QuotaGate struct {
	resolver TierResolver
	counter  OpenGiveawayCounter
	isExempt ExemptFunc
}

func NewQuotaGate(resolver TierResolver, counter OpenGiveawayCounter, isExempt ExemptFunc) *QuotaGate {
	return &QuotaGate{
		resolver: resolver,
		counter:  counter,
		isExempt: isExempt,
	}
}

// CheckGiveawayAllowed validates the requested timeout against the guild's
// tier and then the guild's open-giveaway count against the concurrency
// allowance. Returns nil to allow.
func (q *QuotaGate) CheckGiveawayAllowed(ctx context.Context, guildID string, timeoutHours int) error {
	if q.isExempt != nil && q.isExempt(guildID) {
		return nil
	}

	tier, err := q.resolver.FetchPremiumTier(ctx, guildID)
	if err != nil {
		// A failed lookup is treated as no membership rather than an
		// error; the baseline limits still apply.
		logger.Warn().
			Str("guild_id", guildID).
			Err(err).
			Msg("Premium tier lookup failed, assuming no membership")
		tier = TierNone
	}

	limits := LimitsFor(tier)

	if timeoutHours > limits.GiveawayTimeoutHours {
		if tier == TierNone {
			return apperrors.NewPremiumRequiredError("giveaway timeout", limits.GiveawayTimeoutHours)
		}
		return apperrors.NewTierLimitExceededError("giveaway timeout", limits.GiveawayTimeoutHours)
	}

	openCount, err := q.counter.CountOpenByGuild(ctx, guildID)
	if err != nil {
		return apperrors.NewDatabaseError("count open giveaways", err)
	}

	if openCount >= int64(limits.ConcurrentGiveaways) {
		if tier == TierNone {
			return apperrors.NewPremiumRequiredError("concurrent giveaways", limits.ConcurrentGiveaways)
		}
		return apperrors.NewTierLimitExceededError("concurrent giveaways", limits.ConcurrentGiveaways)
	}

	return nil
}
