package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/services"
	"github.com/gorilla/mux"
)

type AccountService interface {
	Signup(ctx context.Context, req *services.SignupRequest) (*models.Account, error)
	Login(ctx context.Context, username, accountNum, password string) (string, error)
	EmployeeLogin(ctx context.Context, username, employeeNumber, password string) (string, error)
}

type TransactionService interface {
	Create(ctx context.Context, customerAccount string, req *services.CreateTransactionRequest) (*models.Transaction, error)
	List(ctx context.Context) ([]*models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Approve(ctx context.Context, id, employeeNumber string) (*models.Transaction, error)
}

// Pinger reports database liveness. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type loginRequest struct {
	Username   string `json:"username"`
	AccountNum string `json:"accountNum"`
	Password   string `json:"password"`
}

type employeeLoginRequest struct {
	Username       string `json:"username"`
	EmployeeNumber string `json:"employeeNumber"`
	Password       string `json:"password"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type transactionResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
}

const (
	msgLoginFailed         = "Incorrect credentials. Please check your Account Number, Username and Password"
	msgEmployeeLoginFailed = "Incorrect credentials. Please check your username, employee number, and password."
	msgEmployeeLoginError  = "Login failed due to server error."
	msgTxNotFound          = "Transaction not found"
)

// fail writes err as a JSON error. Validation errors carry their own
// message; internal errors are logged and replaced by a generic one.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, messages map[int]string) {
	status := statusFor(err)

	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeMessage(w, status, ve.Error())
		return
	case status == http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	if msg, ok := messages[status]; ok {
		writeMessage(w, status, msg)
		return
	}
	if status == http.StatusInternalServerError {
		writeMessage(w, status, msgInternal)
		return
	}
	writeMessage(w, status, http.StatusText(status))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, nil)
		return
	}

	account, err := s.accounts.Signup(r.Context(), &req)
	if err != nil {
		s.fail(w, r, err, map[int]string{http.StatusConflict: "ID already in use"})
		return
	}

	writeMessage(w, http.StatusCreated, "You have successfully signed up "+account.FullName())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, nil)
		return
	}

	token, err := s.accounts.Login(r.Context(), req.Username, req.AccountNum, req.Password)
	if err != nil {
		s.fail(w, r, err, map[int]string{http.StatusUnauthorized: msgLoginFailed})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Message: "Welcome Back", Token: token})
}

func (s *Server) handleEmployeeLogin(w http.ResponseWriter, r *http.Request) {
	var req employeeLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, nil)
		return
	}

	token, err := s.accounts.EmployeeLogin(r.Context(), req.Username, req.EmployeeNumber, req.Password)
	if err != nil {
		s.fail(w, r, err, map[int]string{
			http.StatusUnauthorized:        msgEmployeeLoginFailed,
			http.StatusInternalServerError: msgEmployeeLoginError,
		})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Message: "Welcome back!", Token: token})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	var req services.CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, nil)
		return
	}

	t, err := s.transactions.Create(r.Context(), claims.AccountNumber, &req)
	if err != nil {
		s.fail(w, r, err, map[int]string{http.StatusUnauthorized: msgUnauthenticated})
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse{Message: "Transaction creation successfully", Transaction: t})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := s.transactions.List(r.Context())
	if err != nil {
		s.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err, map[int]string{http.StatusNotFound: msgTxNotFound})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleApproveTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	t, err := s.transactions.Approve(r.Context(), mux.Vars(r)["id"], claims.EmployeeNumber)
	if err != nil {
		s.fail(w, r, err, map[int]string{
			http.StatusNotFound:     msgTxNotFound,
			http.StatusConflict:     "Transaction already approved",
			http.StatusUnauthorized: msgUnauthenticated,
		})
		return
	}

	writeJSON(w, http.StatusOK, transactionResponse{Message: "Transaction approved successfully", Transaction: t})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Database unavailable"))
			return
		}
	}
	_, _ = w.Write([]byte("OK"))
}
