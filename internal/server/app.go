// Package server initializes and runs the backend application: database,
// migrations, mail transport, services, and the HTTP server, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/config"
	"github.com/fitplan/fitplan/internal/server/mail"
	"github.com/fitplan/fitplan/internal/server/repositories/repomanager"
	"github.com/fitplan/fitplan/internal/server/rest"
	"github.com/fitplan/fitplan/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *rest.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := mail.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	sessions := services.NewSessionService(db, rm, cfg)
	invitations := services.NewInvitationService(db, rm, notifier, logger, cfg)
	resets := services.NewPasswordResetService(db, rm, notifier, logger, cfg)
	authService := services.NewAuthService(db, rm, sessions, invitations, resets, logger)
	userService := services.NewUserService(db, rm)

	srv := rest.NewServer(cfg.Addr, logger, authService, userService, invitations, cfg.SecretKey)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
