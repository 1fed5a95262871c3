package employees

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

func (r *PostgresRepository) FindByCredentials(ctx context.Context, username, employeeNumber string) (*models.Employee, error) {
	query :=
		`SELECT id, username, full_name, employee_number, password_hash, role, created_at
		 FROM employees
		 WHERE username = $1 AND employee_number = $2
		 `

	return r.scanOne(ctx, query, username, employeeNumber)
}

func (r *PostgresRepository) FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*models.Employee, error) {
	query :=
		`SELECT id, username, full_name, employee_number, password_hash, role, created_at
		 FROM employees
		 WHERE employee_number = $1
		 `

	return r.scanOne(ctx, query, employeeNumber)
}

// Upsert inserts e, or updates the full name and password of the employee
// with the same username. An existing employee number is kept.
func (r *PostgresRepository) Upsert(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	query :=
		`INSERT INTO employees (username, full_name, employee_number, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO UPDATE
		 SET full_name = EXCLUDED.full_name, password_hash = EXCLUDED.password_hash
		 RETURNING id, username, full_name, employee_number, password_hash, role, created_at
		 `

	return r.scanOne(ctx, query, e.Username, e.FullName, e.EmployeeNumber, e.PasswordHash, string(models.RoleEmployee))
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Employee, error) {
	e := &models.Employee{}
	var role string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&e.ID, &e.Username, &e.FullName, &e.EmployeeNumber, &e.PasswordHash, &role, &e.CreatedAt,
	)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}

	e.Role = models.Role(role)
	return e, nil
}
