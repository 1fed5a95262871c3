package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/dbx"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/pgerr"
)

const selectColumns = `SELECT id, customer_account, amount, currency, provider, payee_account,
		        recipient_name, swift_code, status, created_at, approved_at, approved_by
		 FROM transactions`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) error {
	query :=
		`INSERT INTO transactions (id, customer_account, amount, currency, provider, payee_account,
		                           recipient_name, swift_code, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.CustomerAccount, t.Amount, t.Currency, t.Provider, t.PayeeAccount,
		t.RecipientName, t.SwiftCode, string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return nil
}

// List returns every transaction in storage order.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, pgerr.Wrap(err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scan(r.db.QueryRowContext(ctx, selectColumns+"\n\t\t WHERE id = $1", id))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return t, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scan(r.db.QueryRowContext(ctx, selectColumns+"\n\t\t WHERE id = $1\n\t\t FOR UPDATE", id))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return t, nil
}

// SaveApproval persists the approval fields of t. It only matches rows that
// are still PENDING, so an approval is written at most once.
func (r *PostgresRepository) SaveApproval(ctx context.Context, t *models.Transaction) error {
	query :=
		`UPDATE transactions
		 SET status = $2, approved_at = $3, approved_by = $4
		 WHERE id = $1 AND status = 'PENDING'
		 `

	res, err := r.db.ExecContext(ctx, query, t.ID, string(t.Status), t.ApprovedAt, t.ApprovedBy)
	if err != nil {
		return pgerr.Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyApproved
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var (
		status     string
		approvedAt sql.NullTime
		approvedBy sql.NullString
	)

	err := s.Scan(&t.ID, &t.CustomerAccount, &t.Amount, &t.Currency, &t.Provider, &t.PayeeAccount,
		&t.RecipientName, &t.SwiftCode, &status, &t.CreatedAt, &approvedAt, &approvedBy)
	if err != nil {
		return nil, err
	}

	t.Status = models.TransactionStatus(status)
	if approvedAt.Valid {
		at := approvedAt.Time
		t.ApprovedAt = &at
	}
	t.ApprovedBy = approvedBy.String
	return t, nil
}
