// Package premium evaluates a guild's membership tier against the usage
// limits table before quota-gated features run.
package premium

import "context"

// Tier is a guild's premium membership tier.
type Tier string

const (
	TierNone     Tier = "NONE"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Limits holds the numeric allowances for a tier.
type Limits struct {
	// GiveawayTimeoutHours is the maximum giveaway duration.
	GiveawayTimeoutHours int
	// ConcurrentGiveaways is the maximum number of simultaneously open
	// giveaways per guild.
	ConcurrentGiveaways int
}

var limitsByTier = map[Tier]Limits{
	TierNone:     {GiveawayTimeoutHours: 72, ConcurrentGiveaways: 1},
	TierGold:     {GiveawayTimeoutHours: 168, ConcurrentGiveaways: 5},
	TierPlatinum: {GiveawayTimeoutHours: 360, ConcurrentGiveaways: 10},
}

// LimitsFor returns the allowances for the tier, falling back to the
// baseline row for unknown values.
func LimitsFor(tier Tier) Limits {
	if limits, ok := limitsByTier[tier]; ok {
		return limits
	}
	return limitsByTier[TierNone]
}

// TierResolver looks up a guild's tier from the external membership
// service. Implementations should return TierNone, not an error, when the
// guild simply has no membership.
type TierResolver interface {
	FetchPremiumTier(ctx context.Context, guildID string) (Tier, error)
}

// ExemptFunc reports whether the guild bypasses all quota checks.
type ExemptFunc func(guildID string) bool

// HomeGuildExemption exempts a single designated guild id. An empty id
// exempts nothing.
func HomeGuildExemption(homeGuildID string) ExemptFunc {
	return func(guildID string) bool {
		return homeGuildID != "" && guildID == homeGuildID
	}
}
