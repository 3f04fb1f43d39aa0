package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/auth"
	"github.com/gigachat/gigachat-server/internal/config"
	"github.com/gigachat/gigachat-server/internal/core"
	"github.com/gigachat/gigachat-server/internal/email"
	"github.com/gigachat/gigachat-server/internal/service/groups"
	"github.com/gigachat/gigachat-server/internal/service/history"
	"github.com/gigachat/gigachat-server/internal/store"
	"github.com/gigachat/gigachat-server/internal/store/sqlite"
	transporthttp "github.com/gigachat/gigachat-server/internal/transport/http"
)

// App wires together store, services, core relay and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}

	var mailer email.Sender
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		logger.Info().Str("smtp_host", cfg.SMTPHost).Msg("email sender configured")
	} else {
		mailer = email.NewLogSender(logger)
		logger.Warn().Msg("smtp not configured, verification emails will be logged only")
	}

	authService := auth.NewService(st, jwtConfig, mailer, cfg.BaseURL, logger)

	registry := core.NewRegistry()
	coordinator := core.NewCoordinator(st, st, registry, logger)

	server := transporthttp.NewServer(cfg, transporthttp.Deps{
		Store:       st,
		AuthService: authService,
		History:     history.New(st),
		Groups:      groups.New(st),
		Registry:    registry,
		Coordinator: coordinator,
	}, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
