package accounts

import (
	"context"

	"github.com/dmitrijs2005/swiftportal/internal/dbx"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts account and fills in its ID and CreatedAt. A duplicate
// national id or account number yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, first_name, surname, national_id, account_number, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.FirstName, account.Surname, account.NationalID,
		account.AccountNumber, account.PasswordHash, string(account.Role),
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}

	return account, nil
}

func (r *PostgresRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.Account, error) {
	query :=
		`SELECT id, username, first_name, surname, national_id, account_number, password_hash, role, created_at
		 FROM accounts
		 WHERE national_id = $1
		 `

	return r.scanOne(ctx, query, nationalID)
}

// FindByCredentials looks an account up by username and account number
// together; both must match the same record.
func (r *PostgresRepository) FindByCredentials(ctx context.Context, username, accountNumber string) (*models.Account, error) {
	query :=
		`SELECT id, username, first_name, surname, national_id, account_number, password_hash, role, created_at
		 FROM accounts
		 WHERE username = $1 AND account_number = $2
		 `

	return r.scanOne(ctx, query, username, accountNumber)
}

func (r *PostgresRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query :=
		`SELECT id, username, first_name, surname, national_id, account_number, password_hash, role, created_at
		 FROM accounts
		 WHERE account_number = $1
		 `

	return r.scanOne(ctx, query, accountNumber)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a := &models.Account{}
	var role string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Username, &a.FirstName, &a.Surname, &a.NationalID,
		&a.AccountNumber, &a.PasswordHash, &role, &a.CreatedAt,
	)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}

	a.Role = models.Role(role)
	return a, nil
}
