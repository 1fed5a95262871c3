package models

import "time"

// Employee is a bank staff record. Employees are provisioned outside the
// API; the server only reads them.
type Employee struct {
	ID             string
	Username       string
	FullName       string
	EmployeeNumber string
	PasswordHash   string
	Role           Role
	CreatedAt      time.Time
}
