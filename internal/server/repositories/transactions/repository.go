// Package transactions stores SWIFT transfer requests.
package transactions

import (
	"context"

	"github.com/dmitrijs2005/swiftportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context) ([]*models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	// GetForUpdate locks the row until the surrounding SQL transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Transaction, error)
	SaveApproval(ctx context.Context, t *models.Transaction) error
}
