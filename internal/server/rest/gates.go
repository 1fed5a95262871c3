package rest

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/ratelimit"
)

// Decision is the outcome of a Gate: either continue with a (possibly
// enriched) context, or reject the request with a status and message.
type Decision struct {
	ctx     context.Context
	reject  bool
	status  int
	message string
	header  http.Header
}

func Continue(ctx context.Context) Decision {
	return Decision{ctx: ctx}
}

func Reject(status int, message string) Decision {
	return Decision{reject: true, status: status, message: message}
}

// WithHeader adds a response header sent along with a rejection.
func (d Decision) WithHeader(key, value string) Decision {
	if d.header == nil {
		d.header = http.Header{}
	}
	d.header.Set(key, value)
	return d
}

func (d Decision) Rejected() bool { return d.reject }
func (d Decision) Status() int    { return d.status }

// Gate inspects a request and decides whether it may proceed.
type Gate func(*http.Request) Decision

// Chain runs gates in order before h. The first rejection is written as a
// JSON error and h is not called.
func Chain(h http.Handler, gates ...Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range gates {
			d := g(r)
			if d.reject {
				for k, v := range d.header {
					w.Header()[k] = v
				}
				writeMessage(w, d.status, d.message)
				return
			}
			r = r.WithContext(d.ctx)
		}
		h.ServeHTTP(w, r)
	})
}

type ctxKey string

const claimsKey ctxKey = "claims"

// ClaimsFromContext returns the verified token claims stored by
// Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

const msgUnauthenticated = "Authentication failed. Please log in again."

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func Authenticate(tokens *auth.TokenService) Gate {
	return func(r *http.Request) Decision {
		token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			return Reject(http.StatusUnauthorized, msgUnauthenticated)
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			return Reject(http.StatusUnauthorized, msgUnauthenticated)
		}

		return Continue(context.WithValue(r.Context(), claimsKey, claims))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole admits only requests whose token role is one of roles.
func RequireRole(roles ...models.Role) Gate {
	return func(r *http.Request) Decision {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Role == "" {
			return Reject(http.StatusForbidden, "Role not found")
		}
		for _, role := range roles {
			if claims.Role == role {
				return Continue(r.Context())
			}
		}
		return Reject(http.StatusForbidden, "Access denied")
	}
}

// RequirePermission admits only requests whose token lists permission.
func RequirePermission(permission string) Gate {
	return func(r *http.Request) Decision {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || len(claims.Permissions) == 0 {
			return Reject(http.StatusForbidden, "Permissions not found")
		}
		if !claims.HasPermission(permission) {
			return Reject(http.StatusForbidden, "Action not allowed")
		}
		return Continue(r.Context())
	}
}

// Throttle counts the request against l under RateLimitKey and rejects it
// with 429 once the window is full.
func Throttle(l *ratelimit.Limiter, message string) Gate {
	return func(r *http.Request) Decision {
		ok, retryAfter := l.Allow(RateLimitKey(r))
		if ok {
			return Continue(r.Context())
		}
		secs := int(math.Ceil(retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return Reject(http.StatusTooManyRequests, message).WithHeader("Retry-After", strconv.Itoa(secs))
	}
}

// RateLimitKey identifies the caller: the authenticated account number,
// else the employee number, else the client IP.
func RateLimitKey(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok {
		if c.AccountNumber != "" {
			return "account:" + c.AccountNumber
		}
		if c.EmployeeNumber != "" {
			return "employee:" + c.EmployeeNumber
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
