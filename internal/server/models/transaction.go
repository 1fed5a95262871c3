package models

import (
	"time"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
)

// ProviderSWIFT is the only accepted transfer provider.
const ProviderSWIFT = "SWIFT"

// Transaction is an international transfer request. It is created PENDING
// by a customer and moved to APPROVED exactly once by an employee.
type Transaction struct {
	ID              string            `json:"id"`
	CustomerAccount string            `json:"customerAccount"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Provider        string            `json:"provider"`
	PayeeAccount    string            `json:"payeeAccount"`
	RecipientName   string            `json:"recipientName"`
	SwiftCode       string            `json:"swiftCode"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	ApprovedAt      *time.Time        `json:"approvedAt,omitempty"`
	ApprovedBy      string            `json:"approvedBy,omitempty"`
}

// Approve moves a pending transaction to APPROVED. Any other starting
// status yields common.ErrAlreadyApproved and leaves t unchanged.
func (t *Transaction) Approve(employeeNumber string, at time.Time) error {
	if t.Status != StatusPending {
		return common.ErrAlreadyApproved
	}
	t.Status = StatusApproved
	t.ApprovedAt = &at
	t.ApprovedBy = employeeNumber
	return nil
}
