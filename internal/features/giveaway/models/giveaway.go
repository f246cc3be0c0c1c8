package models

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway
type GiveawayStatus string

const (
	GiveawayStatusOpen  GiveawayStatus = "open"
	GiveawayStatusEnded GiveawayStatus = "ended" // terminal
)

const (
	// MinTimeoutHours and MaxTimeoutHours bound the requested duration;
	// tier limits narrow the range further.
	MinTimeoutHours = 1
	MaxTimeoutHours = 720

	DefaultTimeoutHours = 3
	DefaultWinners      = 1
)

// Giveaway is a time-boxed group activity attached to its announcement
// message; the message id is the record key.
type Giveaway struct {
	MessageID string         `json:"message_id"`
	ChannelID string         `json:"channel_id"`
	GuildID   string         `json:"guild_id"`
	Item      string         `json:"item"`
	Winners   int            `json:"winners"`
	EndsAt    time.Time      `json:"ends_at"`
	Status    GiveawayStatus `json:"status"`
	WinnerIDs []string       `json:"winner_ids,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsOpen reports whether the giveaway still accepts participants.
func (g *Giveaway) IsOpen() bool {
	return g.Status == GiveawayStatusOpen
}

// IsDue reports whether the giveaway's deadline has passed.
func (g *Giveaway) IsDue(now time.Time) bool {
	return !g.EndsAt.After(now)
}
