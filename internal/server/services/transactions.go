package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/dbx"
	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ReceiptArchiver stores a record of an approved transaction.
type ReceiptArchiver interface {
	Archive(ctx context.Context, t *models.Transaction) error
}

type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    ReceiptArchiver
	log         logging.Logger
	now         func() time.Time
	newID       func() string
}

type TransactionOption func(*TransactionService)

// WithNow replaces time.Now, for tests.
func WithNow(now func() time.Time) TransactionOption {
	return func(s *TransactionService) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString, for tests.
func WithIDGenerator(f func() string) TransactionOption {
	return func(s *TransactionService) { s.newID = f }
}

func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, archiver ReceiptArchiver,
	log logging.Logger, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		db:          db,
		repomanager: m,
		archiver:    archiver,
		log:         log.With("module", "transactions"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates req and stores a PENDING transaction owned by
// customerAccount. Nothing is written when validation fails.
func (s *TransactionService) Create(ctx context.Context, customerAccount string, req *CreateTransactionRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Accounts(s.db).FindByAccountNumber(ctx, customerAccount); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	t := &models.Transaction{
		ID:              s.newID(),
		CustomerAccount: customerAccount,
		Amount:          *req.Amount,
		Currency:        strings.ToUpper(req.Currency),
		Provider:        req.Provider,
		PayeeAccount:    req.PayeeAccount,
		RecipientName:   strings.TrimSpace(req.RecipientName),
		SwiftCode:       strings.ToUpper(req.SwiftCode),
		Status:          models.StatusPending,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repomanager.Transactions(s.db).Create(ctx, t); err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}

	s.log.Info(ctx, "transaction created", "id", t.ID, "account", customerAccount)
	return t, nil
}

func (s *TransactionService) List(ctx context.Context) ([]*models.Transaction, error) {
	list, err := s.repomanager.Transactions(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return list, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	t, err := s.repomanager.Transactions(s.db).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	return t, nil
}

// Approve moves a PENDING transaction to APPROVED under a row lock, so
// concurrent approvals of the same id cannot both succeed. A second
// approval yields common.ErrAlreadyApproved.
func (s *TransactionService) Approve(ctx context.Context, id, employeeNumber string) (*models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}

	if _, err := s.repomanager.Employees(s.db).FindByEmployeeNumber(ctx, employeeNumber); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching employee: %w", err)
	}

	var t *models.Transaction

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		var err error
		t, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := t.Approve(employeeNumber, s.now().UTC()); err != nil {
			return err
		}

		return repo.SaveApproval(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("error approving transaction: %w", err)
	}

	s.log.Info(ctx, "transaction approved", "id", t.ID, "employee", employeeNumber)

	if err := s.archiver.Archive(ctx, t); err != nil {
		s.log.Error(ctx, "error archiving approval receipt", "id", t.ID, "error", err)
	}

	return t, nil
}
