package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/auth"
	"github.com/beamchat/server/internal/config"
	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/store"
	"github.com/beamchat/server/internal/store/sqlite"
	transporthttp "github.com/beamchat/server/internal/transport/http"
)

const tokenTTL = 24 * time.Hour

// App wires the store, hub and HTTP server together.
type App struct {
	cfg    *config.Config
	log    *zerolog.Logger
	store  store.Store
	hub    *core.Hub
	server *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	for _, dir := range []string{"uploads", "voice"} {
		if err := os.MkdirAll(filepath.Join(cfg.DataDir, dir), 0o755); err != nil {
			st.Close()
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      tokenTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(st, logger)
	server := transporthttp.NewServer(hub, authService, st, cfg, logger)

	return &App{
		cfg:    cfg,
		log:    logger,
		store:  st,
		hub:    hub,
		server: server,
	}, nil
}

// Run starts the hub and the HTTP server and blocks until the context
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			a.cleanup()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown failed")
	}

	a.cleanup()
	return nil
}

func (a *App) cleanup() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close store")
	}
}
