package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"healthcoach-backend/internal/config"
	"healthcoach-backend/internal/db"
	"healthcoach-backend/internal/llm"
	"healthcoach-backend/internal/logger"
	"healthcoach-backend/internal/logic"
	"healthcoach-backend/internal/middlewares"
)

// newHTTPServer 流式接口不设写超时
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// gracefulShutdown 收到信号后给正在处理的请求 5 秒收尾
func gracefulShutdown(server *http.Server, logger zerolog.Logger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	close(done)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	gin.SetMode(cfg.GinMode)

	if err := db.InitDB(db.Config{Driver: cfg.DBDriver, DSN: cfg.DSN(), AutoMigrate: cfg.AutoMigrate}); err != nil {
		appLogger.Fatal().Err(err).Msg("init database")
	}
	if sqlDB, err := db.GetDB().DB(); err == nil {
		defer sqlDB.Close()
	}

	completer, err := llm.New(cfg.LLMProvider, llm.SettingsFromConfig(cfg))
	if err != nil {
		appLogger.Fatal().Err(err).Msg("init completion client")
	}

	server := logic.NewServer(
		db.NewStore(db.GetDB()),
		completer,
		middlewares.NewAuthenticator(cfg.JWTSecret, appLogger),
		appLogger,
		cfg.CoachRecentLimit,
	)
	httpServer := newHTTPServer(cfg, server.SetupRouter())

	done := make(chan struct{})
	go gracefulShutdown(httpServer, appLogger, done)

	appLogger.Info().
		Str("addr", httpServer.Addr).
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.LLMModel).
		Msg("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error().Err(err).Msg("http server error")
		os.Exit(1)
	}

	<-done
	appLogger.Info().Msg("graceful shutdown complete")
}
