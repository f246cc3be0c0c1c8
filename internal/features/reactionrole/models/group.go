package models

import "time"

// Group is a reaction-role group hosted on a single message. One group per
// message; the message id is the record key.
type Group struct {
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRole reports whether the role is one of the group's candidates.
func (g *Group) HasRole(roleID string) bool {
	for _, id := range g.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// AddRole appends the role if it is not already a candidate.
func (g *Group) AddRole(roleID string) {
	if !g.HasRole(roleID) {
		g.Roles = append(g.Roles, roleID)
	}
}

// RoleBinding binds a role to exactly one canonical emoji within a guild.
// A role may be reused across groups; an emoji maps to at most one role
// per guild.
type RoleBinding struct {
	RoleID  string `json:"role_id"`
	GuildID string `json:"guild_id"`
	Emoji   string `json:"emoji"`
}
