package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/chatlink/config"
	"github.com/d60-Lab/chatlink/internal/api"
	"github.com/d60-Lab/chatlink/internal/api/handler"
	"github.com/d60-Lab/chatlink/internal/auth"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/internal/service"
	"github.com/d60-Lab/chatlink/internal/session"
	"github.com/d60-Lab/chatlink/internal/ws"
	"github.com/d60-Lab/chatlink/internal/ws/handlers"
	"github.com/d60-Lab/chatlink/pkg/database"
	"github.com/d60-Lab/chatlink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init database failed", zap.Error(err))
		os.Exit(1)
	}
	rdb, err := database.InitRedis(cfg)
	if err != nil {
		logger.Error("init redis failed", zap.Error(err))
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewUserConnectionRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	memberRepo := repository.NewUserChannelRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	users := service.NewUserService(userRepo)
	presence := service.NewPresenceService(rdb, cfg.Chat.PresenceTTL)
	connections := service.NewConnectionService(db, userRepo, connRepo, cfg.Chat.ConnectionLimit)
	channels := service.NewChannelService(db, presence, connections, channelRepo, memberRepo, cfg.Chat.ChannelHeadLimit)
	messages := service.NewMessageService(channels, msgRepo, cfg.Chat.FanoutWorkers, cfg.Chat.FanoutQueueSize)
	stopFanout := messages.Start()

	registry := session.NewRegistry()
	dispatcher := ws.NewDispatcher(handlers.All(handlers.Deps{
		Registry:    registry,
		Users:       users,
		Connections: connections,
		Channels:    channels,
		Messages:    messages,
		Presence:    presence,
	})...)
	logger.Info("dispatcher ready", zap.Int("handlers", dispatcher.Registered()))

	authSvc := auth.NewService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handler.New(authSvc, registry, dispatcher, cfg.Chat.WSMessageRate, cfg.Chat.WSMessageBurst)
	router := api.NewRouter(h, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down", zap.Int("live_sessions", registry.Len()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopFanout(ctx); err != nil {
		logger.Warn("fanout drain", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close", zap.Error(err))
	}
	logger.Info("bye")
}
