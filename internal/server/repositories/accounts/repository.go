// Package accounts stores customer accounts.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/swiftportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Account, error)
	FindByCredentials(ctx context.Context, username, accountNumber string) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
}
