package http

import (
	"net/http"

	apperrors "community-automation-bot/internal/common/errors"
	giveawayservice "community-automation-bot/internal/features/giveaway/service"
	reactionroleservice "community-automation-bot/internal/features/reactionrole/service"

	"github.com/gin-gonic/gin"
)

func getGiveaway(svc giveawayservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		giveaway, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, giveaway)
	}
}

func countOpenGiveaways(svc giveawayservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.CountOpen(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"guild_id": c.Param("id"),
			"open":     count,
		})
	}
}

type createGroupRequest struct {
	MessageID string   `json:"message_id" binding:"required"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id" binding:"required"`
	Roles     []string `json:"roles"`
}

func createGroup(svc reactionroleservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid request body"))
			return
		}

		group, err := svc.CreateGroup(c.Request.Context(), req.MessageID, req.ChannelID, req.GuildID, req.Roles)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, group)
	}
}

func deleteGroup(svc reactionroleservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteGroup(c.Request.Context(), c.Param("messageID")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type bindRoleRequest struct {
	GuildID string `json:"guild_id" binding:"required"`
	RoleID  string `json:"role_id" binding:"required"`
	Emoji   string `json:"emoji" binding:"required"`
}

func bindRole(svc reactionroleservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bindRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid request body"))
			return
		}

		if err := svc.BindRole(c.Request.Context(), req.GuildID, req.RoleID, req.Emoji); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func unbindRole(svc reactionroleservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		guildID := c.Query("guild_id")
		emoji := c.Query("emoji")
		if guildID == "" || emoji == "" {
			respondError(c, apperrors.New(apperrors.ErrCodeValidation, "guild_id and emoji are required"))
			return
		}

		if err := svc.UnbindRole(c.Request.Context(), guildID, emoji); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
