package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"jan-server/clients/jan-chat/internal/config"
	"jan-server/clients/jan-chat/internal/infrastructure/logger"
	"jan-server/clients/jan-chat/internal/testhelpers/fakebackend"
)

// fake-backend serves the chat API from memory so jan-chat can be tried
// without the real service.
func main() {
	loadEnvFiles()

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "info"
	}
	cfg.ServiceName = "jan-chat-fake-backend"

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := fakebackend.New(
		fakebackend.WithSecret(cfg.FakeBackendSecret),
		fakebackend.WithShareBaseURL(cfg.FakeBackendShareURL),
		fakebackend.WithLogger(log),
	)
	if err := server.Run(ctx, cfg.FakeBackendAddr(), cfg.ShutdownTimeout); err != nil {
		log.Fatal().Err(err).Msg("fake backend stopped")
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
