package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/application/coordinator"
	"jan-server/clients/jan-chat/internal/config"
	"jan-server/clients/jan-chat/internal/domain/document"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/infrastructure/backendapi"
	"jan-server/clients/jan-chat/internal/infrastructure/logger"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
	"jan-server/clients/jan-chat/internal/infrastructure/tokenstore"
	"jan-server/clients/jan-chat/internal/interfaces/console"
)

// Application holds everything a command needs.
type Application struct {
	cfg     *config.Config
	log     zerolog.Logger
	notices *notice.Queue
	coord   *coordinator.Coordinator
}

func NewApplication(cfg *config.Config, log zerolog.Logger, notices *notice.Queue, coord *coordinator.Coordinator) *Application {
	return &Application{
		cfg:     cfg,
		log:     log,
		notices: notices,
		coord:   coord,
	}
}

func newTokenStore(cfg *config.Config) *tokenstore.FileStore {
	return tokenstore.NewFileStore(cfg.TokenFile)
}

func newBackendClient(cfg *config.Config, tokens *tokenstore.FileStore, log zerolog.Logger) *backendapi.Client {
	return backendapi.NewClient(cfg.APIURL, cfg.RequestTimeout, tokens, log)
}

func newNoticeQueue(cfg *config.Config, log zerolog.Logger) *notice.Queue {
	return notice.NewQueue(cfg.NoticeBuffer, log)
}

func newDocumentService(cfg *config.Config, api document.API, log zerolog.Logger) *document.Service {
	return document.NewService(api, cfg.MaxUploadBytes, log)
}

// loadConfig applies the persistent flags on top of file and environment config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("token-file"); v != "" {
		cfg.TokenFile = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run builds the application, runs fn and prints the notices it produced. Success
// notices go to stdout and failures to stderr.
func run(cmd *cobra.Command, fn func(ctx context.Context, app *Application) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, err := BuildApplication(cfg, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer app.coord.Close()

	err = fn(ctx, app)
	app.flushNotices(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// signedIn bootstraps and fails unless a session was restored.
func (a *Application) signedIn(ctx context.Context) error {
	if err := a.coord.Bootstrap(ctx); err != nil {
		return err
	}
	if !a.coord.Session().Current().Authenticated() {
		return fmt.Errorf("not signed in; run 'jan-chat login' first")
	}
	return nil
}

func (a *Application) flushNotices(out, errOut io.Writer) {
	for _, n := range a.notices.Drain() {
		if n.Success() {
			console.PrintNotice(out, n)
		} else {
			console.PrintNotice(errOut, n)
		}
	}
}
