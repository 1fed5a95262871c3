// Package rest exposes the portal over HTTP: routing, the access-control
// gates and the JSON handlers.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/config"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/ratelimit"
	"github.com/gorilla/mux"
)

const (
	msgLoginThrottled       = "Too many login attempts. Try again after 15 minutes"
	msgTransactionThrottled = "Too many transaction requests. Please wait 5 minutes."

	shutdownTimeout = 10 * time.Second
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Accounts             AccountService
	Transactions         TransactionService
	Tokens               *auth.TokenService
	LoginLimiter         *ratelimit.Limiter
	EmployeeLoginLimiter *ratelimit.Limiter
	TransactionLimiter   *ratelimit.Limiter
	DB                   Pinger
}

type Server struct {
	address      string
	certFile     string
	keyFile      string
	tls          bool
	origin       string
	logger       logging.Logger
	accounts     AccountService
	transactions TransactionService
	tokens       *auth.TokenService
	loginLimiter *ratelimit.Limiter
	staffLimiter *ratelimit.Limiter
	txLimiter    *ratelimit.Limiter
	db           Pinger
}

func NewServer(cfg *config.Config, l logging.Logger, d Deps) *Server {
	return &Server{
		address:      cfg.EndpointAddrHTTP,
		certFile:     cfg.TLSCertFile,
		keyFile:      cfg.TLSKeyFile,
		tls:          cfg.TLSEnabled(),
		origin:       cfg.AllowedOrigin,
		logger:       l.With("module", "http_server"),
		accounts:     d.Accounts,
		transactions: d.Transactions,
		tokens:       d.Tokens,
		loginLimiter: d.LoginLimiter,
		staffLimiter: d.EmployeeLoginLimiter,
		txLimiter:    d.TransactionLimiter,
		db:           d.DB,
	}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	authn := Authenticate(s.tokens)

	r.Handle("/signup", http.HandlerFunc(s.handleSignup)).Methods(http.MethodPost)
	r.Handle("/login", Chain(http.HandlerFunc(s.handleLogin),
		Throttle(s.loginLimiter, msgLoginThrottled),
	)).Methods(http.MethodPost)
	r.Handle("/employee-login", Chain(http.HandlerFunc(s.handleEmployeeLogin),
		Throttle(s.staffLimiter, msgLoginThrottled),
	)).Methods(http.MethodPost)

	// The transaction limiter runs after authentication so the window is
	// keyed by the account number rather than the client IP.
	r.Handle("/transactions", Chain(http.HandlerFunc(s.handleCreateTransaction),
		authn,
		RequireRole(models.RoleCustomer),
		Throttle(s.txLimiter, msgTransactionThrottled),
	)).Methods(http.MethodPost)
	r.Handle("/transactions", Chain(http.HandlerFunc(s.handleListTransactions),
		authn,
		RequireRole(models.RoleEmployee),
	)).Methods(http.MethodGet)
	r.Handle("/transactions/{id}", Chain(http.HandlerFunc(s.handleGetTransaction),
		authn,
		RequirePermission(models.PermTransactionsRead),
	)).Methods(http.MethodGet)
	r.Handle("/transactions/{id}/approve", Chain(http.HandlerFunc(s.handleApproveTransaction),
		authn,
		RequireRole(models.RoleEmployee),
	)).Methods(http.MethodPatch)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	var h http.Handler = r
	h = cors(s.origin)(h)
	h = securityHeaders().Handler(h)
	h = recoverPanics(s.logger)(h)
	h = accessLog(s.logger)(h)
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully. TLS is
// used when both a certificate and a key are configured.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	var err error
	if s.tls {
		s.logger.Info(ctx, "Starting HTTPS server", "address", s.address)
		err = srv.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		err = srv.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
