// Package models contains the server-side domain records: customer
// accounts, employees and SWIFT transfer transactions.
package models

// Role is the single role embedded in a session token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// Permissions granted to a role. Tokens carry these so routes can be
// guarded by permission instead of role.
const (
	PermTransactionsRead    = "transactions:read"
	PermTransactionsApprove = "transactions:approve"
)

var rolePermissions = map[Role][]string{
	RoleEmployee: {PermTransactionsRead, PermTransactionsApprove},
}

// Permissions returns a copy of the permissions granted to r.
func (r Role) Permissions() []string {
	p := rolePermissions[r]
	if len(p) == 0 {
		return nil
	}
	return append([]string(nil), p...)
}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleEmployee
}
