// Package http exposes the internal ops API: health probes plus a small
// read/configure surface for giveaways and reaction-role groups.
package http

import (
	"context"
	"net/http"
	"time"

	"community-automation-bot/internal/common/config"
	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/common/middleware"
	giveawayservice "community-automation-bot/internal/features/giveaway/service"
	reactionroleservice "community-automation-bot/internal/features/reactionrole/service"
	"community-automation-bot/internal/platform/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, giveaways giveawayservice.Service, reactionRoles reactionroleservice.Service, redisClient *redis.Client) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		giveawayRoutes := v1.Group("/giveaways")
		{
			giveawayRoutes.GET("/:id", getGiveaway(giveaways))
		}

		guilds := v1.Group("/guilds")
		{
			guilds.GET("/:id/giveaways/open", countOpenGiveaways(giveaways))
		}

		reactionRoleRoutes := v1.Group("/reaction-roles")
		{
			reactionRoleRoutes.POST("/groups", createGroup(reactionRoles))
			reactionRoleRoutes.DELETE("/groups/:messageID", deleteGroup(reactionRoles))
			reactionRoleRoutes.POST("/bindings", bindRole(reactionRoles))
			reactionRoleRoutes.DELETE("/bindings", unbindRole(reactionRoles))
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "community-automation-bot",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "community-automation-bot",
		})
	})

	return router
}

func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case appErr.IsNotFound():
		status = http.StatusNotFound
	case appErr.Code == apperrors.ErrCodeValidation,
		appErr.Code == apperrors.ErrCodeInvalidSyntax,
		appErr.Code == apperrors.ErrCodeInvalidWinners:
		status = http.StatusBadRequest
	case appErr.Code == apperrors.ErrCodeEmojiInUse:
		status = http.StatusConflict
	case appErr.Code == apperrors.ErrCodePremiumRequired,
		appErr.Code == apperrors.ErrCodeTierLimitExceeded:
		status = http.StatusForbidden
	}

	c.JSON(status, gin.H{
		"error":   appErr.Message,
		"code":    appErr.Code,
		"details": appErr.Details,
	})
}
