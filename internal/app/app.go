package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"edu-platform/internal/auth"
	"edu-platform/internal/config"
	"edu-platform/internal/database"
	"edu-platform/internal/handler"
	"edu-platform/internal/logger"
	"edu-platform/internal/mailer"
	"edu-platform/internal/middleware"
	"edu-platform/internal/repository"
	"edu-platform/internal/router"
	"edu-platform/internal/service"
	"edu-platform/pkg/envelope"
)

type App struct {
	cfg          *config.Config
	log          *logger.Logger
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	started := time.Now()

	log.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, database.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	statsRepo := repository.NewStatsRepository(db.Pool)

	permissions, err := loadPermissions(cfg.PermissionsFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	authService := service.NewAuthService(userRepo, tokens)
	authService.SetRoles(permissions)
	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to seed admin user: %w", err)
		}
	}

	sender, err := newSender(cfg, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	emailService, err := service.NewEmailService(sender, cfg.AppName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize email service: %w", err)
	}

	responder := envelope.NewResponder(log.Slog(), cfg.IsProduction())
	authMiddleware := middleware.NewAuthMiddleware(tokens, permissions)

	appRouter := router.New(cfg, responder, authMiddleware, router.Handlers{
		Health: handler.NewHealthHandler(db, started, cfg.IsProduction()),
		Email:  handler.NewEmailHandler(emailService, responder),
		Auth:   handler.NewAuthHandler(authService, responder),
		TestDB: handler.NewTestDBHandler(statsRepo, responder),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:    cfg,
		log:    log,
		server: server,
		cleanupFuncs: []func(){
			db.Close,
		},
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server starting", logger.Meta{"addr": a.server.Addr, "env": a.cfg.Environment})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return err
	}

	a.log.Info("server stopped")
	return nil
}

func loadPermissions(path string) (*auth.Permissions, error) {
	if path == "" {
		return auth.DefaultPermissions()
	}
	return auth.LoadPermissions(path)
}

// newSender falls back to logging messages when no SMTP relay is configured.
func newSender(cfg *config.Config, log *logger.Logger) (mailer.Sender, error) {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set; emails will be logged instead of sent")
		return mailer.NewLogSender(cfg.SMTPFrom, log.Slog()), nil
	}

	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		TLS:      cfg.SMTPTLS,
		Timeout:  cfg.SMTPTimeout,
	})
}
