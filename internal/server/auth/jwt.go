// Package auth implements password hashing and the session token service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token. Customers are identified by
// AccountNumber, employees by EmployeeNumber; exactly one is set.
type Claims struct {
	jwt.RegisteredClaims
	Role           models.Role `json:"role"`
	AccountNumber  string      `json:"accountNum,omitempty"`
	EmployeeNumber string      `json:"employeeNumber,omitempty"`
	Username       string      `json:"username,omitempty"`
	Permissions    []string    `json:"permissions,omitempty"`
}

// Identity returns the account or employee number the token was issued for.
func (c *Claims) Identity() string {
	if c.Role == models.RoleEmployee {
		return c.EmployeeNumber
	}
	return c.AccountNumber
}

func (c *Claims) HasPermission(p string) bool {
	for _, have := range c.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// TokenService issues and verifies HS256 session tokens. The secret is
// fixed for the lifetime of the service.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, validity time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: []byte(secret), validity: validity, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IssueCustomer issues a customer token bound to accountNumber.
func (s *TokenService) IssueCustomer(accountNumber string) (string, error) {
	return s.issue(&Claims{Role: models.RoleCustomer, AccountNumber: accountNumber})
}

// IssueEmployee issues an employee token carrying the employee role's
// permissions.
func (s *TokenService) IssueEmployee(employeeNumber, username string) (string, error) {
	return s.issue(&Claims{
		Role:           models.RoleEmployee,
		EmployeeNumber: employeeNumber,
		Username:       username,
		Permissions:    models.RoleEmployee.Permissions(),
	})
}

func (s *TokenService) issue(c *Claims) (string, error) {
	if c.Identity() == "" {
		return "", fmt.Errorf("%w: empty identity", common.ErrInvalidToken)
	}
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify parses and validates token. Expiry is checked with zero leeway.
// It returns common.ErrTokenExpired for expired tokens and
// common.ErrInvalidToken for any other failure.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !claims.Role.Valid() || claims.Identity() == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
