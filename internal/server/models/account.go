package models

import "time"

// Account is a customer record created at signup. FirstName, Surname and
// NationalID never change after creation.
type Account struct {
	ID            string
	Username      string
	FirstName     string
	Surname       string
	NationalID    string
	AccountNumber string
	PasswordHash  string
	Role          Role
	CreatedAt     time.Time
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.Surname
}
