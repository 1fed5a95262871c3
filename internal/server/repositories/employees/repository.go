// Package employees stores bank staff records. The API only reads them;
// Upsert is used by the provisioning tool.
package employees

import (
	"context"

	"github.com/dmitrijs2005/swiftportal/internal/server/models"
)

type Repository interface {
	FindByCredentials(ctx context.Context, username, employeeNumber string) (*models.Employee, error)
	FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*models.Employee, error)
	Upsert(ctx context.Context, e *models.Employee) (*models.Employee, error)
}
