package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/swiftportal/internal/dbx"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/employees"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/transactions"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Employees(db dbx.DBTX) employees.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
