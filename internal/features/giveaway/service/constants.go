package service

import "community-automation-bot/internal/platform/gateway"

// participationEmoji are the fixed celebratory reactions attached to every
// announcement; reacting with either one enters the giveaway.
var participationEmoji = []gateway.Emoji{
	{Name: "🎊"},
	{Name: "🎉"},
}
