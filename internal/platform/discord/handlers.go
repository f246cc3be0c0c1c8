package discord

import (
	"context"
	"strconv"
	"strings"

	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/common/logger"
	"community-automation-bot/internal/common/reliability"
	giveawayservice "community-automation-bot/internal/features/giveaway/service"
	reactionroleservice "community-automation-bot/internal/features/reactionrole/service"

	"github.com/bwmarrin/discordgo"
)

// RegisterHandlers wires the platform events into the engines. Reaction
// handlers run inline on discordgo's per-event dispatch, preserving the
// gateway's delivery order for a given message.
func (s *Session) RegisterHandlers(reactionRoles reactionroleservice.Service, giveaways giveawayservice.Service, prefix string) {
	s.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		reactionRoles.HandleReactionAdd(context.Background(), toReactionEvent(r.MessageReaction))
	})

	s.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		reactionRoles.HandleReactionRemove(context.Background(), toReactionEvent(r.MessageReaction))
	})

	s.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		s.handleMessage(giveaways, prefix, m)
	})
}

func (s *Session) handleMessage(giveaways giveawayservice.Service, prefix string, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(fields) == 0 || fields[0] != "giveaway" {
		return
	}

	ctx := context.Background()
	args := parseCommandArgs(fields[1:])

	err := giveaways.HandleCommand(ctx, toMessage(m.Message), args)
	if err == nil {
		return
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.IsTransient() {
		// Transient platform failures never surface to the user.
		logger.Warn().
			Str("message_id", m.ID).
			Err(err).
			Msg("Giveaway command failed")
		return
	}

	reliability.BestEffort("send command rejection", func() error {
		_, err := s.SendMessage(ctx, m.ChannelID, "❌ "+appErr.Message)
		return err
	})
}

// parseCommandArgs parses `--timeout/-t N`, `--winners/-w N` and
// `--remove`; everything after a literal `--`, or any residual tokens,
// form the remainder.
func parseCommandArgs(tokens []string) giveawayservice.CommandArgs {
	var args giveawayservice.CommandArgs
	var rest []string

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "--":
			rest = append(rest, tokens[i+1:]...)
			i = len(tokens)
		case "--timeout", "-t":
			if i+1 < len(tokens) {
				if v, err := strconv.Atoi(tokens[i+1]); err == nil {
					args.Timeout = &v
				}
				i++
			}
		case "--winners", "-w":
			if i+1 < len(tokens) {
				if v, err := strconv.Atoi(tokens[i+1]); err == nil {
					args.Winners = &v
				}
				i++
			}
		case "--remove":
			args.Remove = true
		default:
			rest = append(rest, tokens[i])
		}
	}

	args.Remainder = strings.Join(rest, " ")
	return args
}
