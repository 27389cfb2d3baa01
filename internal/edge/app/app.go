// Package app assembles the edge service: configuration, storage,
// token and csrf key material, services, and the HTTP server.
package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	httpapi "github.com/quollhq/authedge/internal/edge/http"
	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/internal/edge/store"
	"github.com/quollhq/authedge/internal/edge/store/drivers/sqlite"
	"github.com/quollhq/authedge/pkg/cryptox"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the edge service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	tokens    *jwtx.Service
	passwords cryptox.PasswordScheme
	signer    *csrfx.Signer
	guard     *csrfx.Guard
	namespace uuid.UUID

	// Services
	authFlow *service.AuthFlow
	accounts *service.AccountService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authedge",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	scheme, err := buildPasswordScheme(cfg)
	if err != nil {
		return nil, err
	}
	app.passwords = scheme

	namespace, err := uuid.Parse(cfg.UUIDNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uuid namespace: %w", err)
	}
	app.namespace = namespace

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.tokens = jwtx.NewService(
		cfg.Issuer,
		cfg.Audience,
		cfg.AccessTTL,
		cfg.RefreshTTL,
		cfg.JWTPrivateKeyPath,
		cfg.JWTPublicKeyPath,
	)

	app.signer = csrfx.NewSigner(cfg.CsrfSigningKeyPath)
	app.guard = csrfx.NewGuard(app.signer, csrfx.CookieBagFactory(cfg.CookieSecure))

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("edge service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down edge service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("edge service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host, app.passwords.Seal)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authFlow = &service.AuthFlow{
		Store:     app.db,
		Tokens:    app.tokens,
		Passwords: app.passwords,
		Namespace: app.namespace,
	}
	app.accounts = &service.AccountService{
		Store:  app.db,
		Tokens: app.tokens,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(httpapi.RouterConfig{
		Version: BuildVersion,
		Logger:  app.logger,

		Store:  app.db,
		Tokens: app.tokens,

		AuthFlow: app.authFlow,
		Accounts: app.accounts,

		Guard: app.guard,

		BasicUser:    app.cfg.BasicUser,
		BasicPass:    app.cfg.BasicPass,
		CookieSecure: app.cfg.CookieSecure,
	})
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// buildPasswordScheme selects the credential storage scheme from config.
func buildPasswordScheme(cfg Config) (cryptox.PasswordScheme, error) {
	switch cfg.PasswordScheme {
	case "argon2id":
		return cryptox.Argon2idScheme{}, nil
	case "", "envelope":
		key, err := hex.DecodeString(cfg.CipherKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cipher key: %w", err)
		}
		cipher, err := cryptox.NewCipher(cfg.CipherAlgorithm, key, cfg.CipherIVLength, cfg.CipherDelimiter)
		if err != nil {
			return nil, err
		}
		return cryptox.EnvelopeScheme{Cipher: cipher}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", cfg.PasswordScheme)
	}
}
