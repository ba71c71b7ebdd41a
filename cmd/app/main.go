package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"webby-assistant/internal/config"
	"webby-assistant/internal/middleware"
	"webby-assistant/pkg/log"
	"webby-assistant/pkg/redis"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.NewLogger().Fatalf("Error loading .env file: %v", err)
	}
	logger := log.NewLogger()

	assistantConfig, err := config.LoadAssistantConfig(afero.NewOsFs(), os.Getenv("ASSISTANT_CONFIG"))
	if err != nil {
		logger.Fatalf("Invalid assistant config: %v", err)
	}

	// Sounds are rendered at startup; SOUND_DIR keeps them on disk instead.
	soundFs, soundDir := afero.NewMemMapFs(), "/sounds"
	if dir := os.Getenv("SOUND_DIR"); dir != "" {
		soundFs, soundDir = afero.NewOsFs(), dir
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithMiddleware(middleware.DefaultConfig()),
		config.WithUtils(),
		config.WithAssistantConfig(assistantConfig),
		config.WithSoundBank(soundFs, soundDir),
	}
	if os.Getenv("DB_HOST") != "" {
		options = append(options, config.WithDatabase())
	} else {
		logger.Warn("DB_HOST not set, interaction history disabled")
	}
	if os.Getenv("REDIS_ADDRESS") != "" {
		options = append(options, config.WithRedisServer(redis.New(logger)))
	} else {
		logger.Warn("REDIS_ADDRESS not set, chat history disabled")
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
