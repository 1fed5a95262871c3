package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/dbx"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/employees"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/transactions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// --- fake repositories ---

type fakeAccountsRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Account
	findErr   error
	createErr error
}

func newFakeAccounts(list ...*models.Account) *fakeAccountsRepo {
	f := &fakeAccountsRepo{byID: map[string]*models.Account{}}
	for _, a := range list {
		f.byID[a.NationalID] = a
	}
	return f
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := *a
	c.ID = "acc-" + a.NationalID
	c.CreatedAt = fixedNow
	f.byID[a.NationalID] = &c
	return &c, nil
}

func (f *fakeAccountsRepo) find(match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.byID {
		if match(a) {
			return a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountsRepo) FindByNationalID(_ context.Context, id string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.NationalID == id })
}

func (f *fakeAccountsRepo) FindByCredentials(_ context.Context, username, accountNumber string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.Username == username && a.AccountNumber == accountNumber })
}

func (f *fakeAccountsRepo) FindByAccountNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	return f.find(func(a *models.Account) bool { return a.AccountNumber == accountNumber })
}

type fakeEmployeesRepo struct {
	list    []*models.Employee
	findErr error
}

func (f *fakeEmployeesRepo) FindByCredentials(_ context.Context, username, employeeNumber string) (*models.Employee, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, e := range f.list {
		if e.Username == username && e.EmployeeNumber == employeeNumber {
			return e, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeEmployeesRepo) FindByEmployeeNumber(_ context.Context, employeeNumber string) (*models.Employee, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, e := range f.list {
		if e.EmployeeNumber == employeeNumber {
			return e, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakeTransactionsRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Transaction
	order     []string
	createErr error
	saveErr   error
	creates   int
}

func newFakeTransactions() *fakeTransactionsRepo {
	return &fakeTransactionsRepo{rows: map[string]*models.Transaction{}}
}

func (f *fakeTransactionsRepo) Create(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	c := *t
	f.rows[t.ID] = &c
	f.order = append(f.order, t.ID)
	return nil
}

func (f *fakeTransactionsRepo) List(context.Context) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Transaction, 0, len(f.order))
	for _, id := range f.order {
		c := *f.rows[id]
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeTransactionsRepo) Get(_ context.Context, id string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeTransactionsRepo) GetForUpdate(ctx context.Context, id string) (*models.Transaction, error) {
	return f.Get(ctx, id)
}

func (f *fakeTransactionsRepo) SaveApproval(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *t
	f.rows[t.ID] = &c
	return nil
}

// --- fake repository manager ---

type fakeManager struct {
	accounts     *fakeAccountsRepo
	employees    *fakeEmployeesRepo
	transactions *fakeTransactionsRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		accounts:     newFakeAccounts(),
		employees:    &fakeEmployeesRepo{},
		transactions: newFakeTransactions(),
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Accounts(dbx.DBTX) accounts.Repository        { return m.accounts }
func (m *fakeManager) Employees(dbx.DBTX) employees.Repository      { return m.employees }
func (m *fakeManager) Transactions(dbx.DBTX) transactions.Repository {
	return m.transactions
}

// --- fake archiver ---

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
	err      error
}

func (a *fakeArchiver) Archive(_ context.Context, t *models.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, t.ID)
	return a.err
}

func (f *fakeEmployeesRepo) Upsert(_ context.Context, e *models.Employee) (*models.Employee, error) {
	f.list = append(f.list, e)
	return e, nil
}
