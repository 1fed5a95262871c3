package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/repomanager"
)

// ErrNationalIDInUse is returned by Signup when an account already holds
// the national id.
var ErrNationalIDInUse = fmt.Errorf("national id already in use: %w", common.ErrConflict)

// AccountService handles customer signup and the customer and employee
// logins.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	log         logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	tokens *auth.TokenService, log logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "accounts"),
	}
}

func (s *AccountService) Signup(ctx context.Context, req *SignupRequest) (*models.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)

	_, err := repo.FindByNationalID(ctx, req.ID)
	if err == nil {
		return nil, ErrNationalIDInUse
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	account, err := repo.Create(ctx, &models.Account{
		Username:      req.Username,
		FirstName:     req.Name,
		Surname:       req.Surname,
		NationalID:    req.ID,
		AccountNumber: req.AccountNum,
		PasswordHash:  hash,
		Role:          models.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, ErrNationalIDInUse
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account created", "account", account.AccountNumber)
	return account, nil
}

// Login checks customer credentials and returns a session token. Unknown
// users and wrong passwords both yield common.ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, username, accountNum, password string) (string, error) {
	account, err := s.repomanager.Accounts(s.db).FindByCredentials(ctx, username, accountNum)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.VerifyAbsent(password)
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("error searching account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", common.ErrUnauthorized
	}

	token, err := s.tokens.IssueCustomer(account.AccountNumber)
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}
	return token, nil
}

func (s *AccountService) EmployeeLogin(ctx context.Context, username, employeeNumber, password string) (string, error) {
	employee, err := s.repomanager.Employees(s.db).FindByCredentials(ctx, username, employeeNumber)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.VerifyAbsent(password)
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("error searching employee: %w", err)
	}

	if !s.hasher.Verify(password, employee.PasswordHash) {
		return "", common.ErrUnauthorized
	}

	token, err := s.tokens.IssueEmployee(employee.EmployeeNumber, employee.Username)
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}
	return token, nil
}
