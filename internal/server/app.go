// Package server wires the portal together: configuration, database,
// services and the HTTP server, and runs them until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/config"
	"github.com/dmitrijs2005/swiftportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/swiftportal/internal/server/receipts"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swiftportal/internal/server/rest"
	"github.com/dmitrijs2005/swiftportal/internal/server/services"
)

const limiterPruneInterval = time.Minute

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	limiters   *limiters
	httpServer *rest.Server
}

// limiters holds one window per throttled route group; customer and
// employee logins are counted separately.
type limiters struct {
	login         *ratelimit.Limiter
	employeeLogin *ratelimit.Limiter
	transaction   *ratelimit.Limiter
}

func newLimiters(c *config.Config) (*limiters, error) {
	login, err := ratelimit.New(c.LoginRateLimit, c.LoginRateWindow)
	if err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	employeeLogin, err := ratelimit.New(c.LoginRateLimit, c.LoginRateWindow)
	if err != nil {
		return nil, fmt.Errorf("employee login rate limit: %w", err)
	}
	transaction, err := ratelimit.New(c.TransactionRateLimit, c.TransactionRateWindow)
	if err != nil {
		return nil, fmt.Errorf("transaction rate limit: %w", err)
	}
	return &limiters{login: login, employeeLogin: employeeLogin, transaction: transaction}, nil
}

func (l *limiters) all() []*ratelimit.Limiter {
	return []*ratelimit.Limiter{l.login, l.employeeLogin, l.transaction}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	lims, err := newLimiters(c)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	tokens := auth.NewTokenService(c.SecretKey, c.TokenValidityDuration)

	archiver, err := newArchiver(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	httpServer := rest.NewServer(c, logger, rest.Deps{
		Accounts:             services.NewAccountService(db, rm, hasher, tokens, logger),
		Transactions:         services.NewTransactionService(db, rm, archiver, logger),
		Tokens:               tokens,
		LoginLimiter:         lims.login,
		EmployeeLoginLimiter: lims.employeeLogin,
		TransactionLimiter:   lims.transaction,
		DB:                   db,
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		limiters:   lims,
		httpServer: httpServer,
	}, nil
}

// newArchiver returns the S3 receipt archiver, or a no-op one when no
// bucket is configured.
func newArchiver(ctx context.Context, c *config.Config, logger logging.Logger) (services.ReceiptArchiver, error) {
	if c.S3Bucket == "" {
		logger.Info(ctx, "receipt archive disabled")
		return receipts.Noop{}, nil
	}
	a, err := receipts.NewS3Archiver(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("receipt archive init error: %w", err)
	}
	return a, nil
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
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for _, l := range app.limiters.all() {
		l := l
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Run(ctx, limiterPruneInterval)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
