package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community-automation-bot/internal/common/cache"
	"community-automation-bot/internal/common/config"
	"community-automation-bot/internal/common/logger"
	giveawayrepo "community-automation-bot/internal/features/giveaway/repository/redis"
	giveawayservice "community-automation-bot/internal/features/giveaway/service"
	"community-automation-bot/internal/features/premium"
	reactionrolerepo "community-automation-bot/internal/features/reactionrole/repository/redis"
	reactionroleservice "community-automation-bot/internal/features/reactionrole/service"
	httpapi "community-automation-bot/internal/http"
	"community-automation-bot/internal/platform/discord"
	"community-automation-bot/internal/platform/premiumapi"
	"community-automation-bot/internal/platform/redis"
)

func main() {
	cfg := config.Load()
	logger.Init("community-automation-bot", cfg.Debug)

	logger.Info().
		Bool("debug", cfg.Debug).
		Msg("Starting community automation bot")

	ctx := context.Background()

	redisClient, err := redis.FromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	reactionRoleRepo := reactionrolerepo.NewRedisRepository(redisClient.Client)
	giveawayRepo := giveawayrepo.NewRedisRepository(redisClient.Client)

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create discord session")
	}

	premiumClient := premiumapi.NewClient(cfg, cacheService)
	gate := premium.NewQuotaGate(premiumClient, giveawayRepo, premium.HomeGuildExemption(cfg.Discord.HomeGuildID))

	reactionRoleSvc := reactionroleservice.NewService(reactionRoleRepo, session)
	giveawaySvc := giveawayservice.NewService(giveawayRepo, session, gate)

	session.RegisterHandlers(reactionRoleSvc, giveawaySvc, cfg.Discord.CommandPrefix)

	if err := session.Open(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open discord gateway connection")
	}
	defer session.Close()

	logger.Info().Msg("Discord gateway connection established")

	expiration := giveawayservice.NewExpirationService(giveawaySvc, giveawayRepo, cfg.Sweep.Interval)
	expiration.Start()
	defer expiration.Stop()

	router := httpapi.NewRouter(cfg, giveawaySvc, reactionRoleSvc, redisClient)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Ops API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ops API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ops API shutdown failed")
	}

	logger.Info().Msg("Shutdown complete")
}
