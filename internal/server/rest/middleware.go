package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/unrolled/secure"
)

const contentSecurityPolicy = "default-src 'self';script-src 'self';object-src 'none';" +
	"base-uri 'self';font-src 'self' https: data:;form-action 'self';frame-ancestors 'self';" +
	"img-src 'self' data:;script-src-attr 'none';style-src 'self' https: 'unsafe-inline';" +
	"upgrade-insecure-requests"

// securityHeaders sets the browser hardening headers on every response.
// HSTS is sent on plain HTTP too, since TLS may terminate at a proxy.
func securityHeaders() *secure.Secure {
	return secure.New(secure.Options{
		ContentSecurityPolicy:         contentSecurityPolicy,
		STSSeconds:                    31536000,
		STSIncludeSubdomains:          true,
		STSPreload:                    true,
		ForceSTSHeader:                true,
		ContentTypeNosniff:            true,
		CustomFrameOptionsValue:       "SAMEORIGIN",
		ReferrerPolicy:                "no-referrer",
		CrossOriginOpenerPolicy:       "same-origin",
		CrossOriginResourcePolicy:     "same-origin",
		XDNSPrefetchControl:           "off",
		XPermittedCrossDomainPolicies: "none",
	})
}

// cors allows credentialed requests from a single frontend origin and
// answers preflight requests itself. An empty origin disables CORS.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return handlers.CORS(
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)
}

type recoveryLogger struct {
	log logging.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error(context.Background(), "panic while serving request", "panic", fmt.Sprint(v...))
}

// recoverPanics turns a handler panic into a bare 500.
func recoverPanics(log logging.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: log}),
		handlers.PrintRecoveryStack(false),
	)
}

func accessLog(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"duration", m.Duration,
				"bytes", m.Written,
			)
		})
	}
}
