// Package seed provisions employee accounts. Employees cannot sign up
// through the API; an operator creates them with cmd/seed.
package seed

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/dmitrijs2005/swiftportal/internal/flagx"
	"github.com/dmitrijs2005/swiftportal/internal/logging"
	"github.com/dmitrijs2005/swiftportal/internal/server/auth"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/dmitrijs2005/swiftportal/internal/server/repositories/employees"
	"github.com/dmitrijs2005/swiftportal/internal/server/services"
	"github.com/google/uuid"
)

// PasswordEnv names the environment variable read before prompting.
const PasswordEnv = "SEED_EMPLOYEE_PASSWORD"

type EmployeeInput struct {
	Username       string
	FullName       string
	EmployeeNumber string
	Password       string
}

// ParseOptions reads -user, -name and -number from args, ignoring the
// server's own flags.
func ParseOptions(args []string) (EmployeeInput, error) {
	var in EmployeeInput

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&in.Username, "user", "", "employee username")
	fs.StringVar(&in.FullName, "name", "", "employee full name")
	fs.StringVar(&in.EmployeeNumber, "number", "", "employee number (random UUID when empty)")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-user", "-name", "-number"})); err != nil {
		return in, err
	}
	return in, nil
}

// Complete fills the fields missing from in: text fields are prompted on
// reader/w, the password is taken from the environment or read without
// echo.
func Complete(in EmployeeInput, reader *bufio.Reader, w io.Writer, lookupEnv func(string) (string, bool)) (EmployeeInput, error) {
	var err error
	if in.Username == "" {
		if in.Username, err = PromptLine(reader, "Username", w); err != nil {
			return in, err
		}
	}
	if in.FullName == "" {
		if in.FullName, err = PromptLine(reader, "Full name", w); err != nil {
			return in, err
		}
	}
	if in.Password == "" {
		if v, ok := lookupEnv(PasswordEnv); ok && v != "" {
			in.Password = v
		} else if in.Password, err = PromptNewPassword(w); err != nil {
			return in, err
		}
	}
	return in, nil
}

type Seeder struct {
	repo   employees.Repository
	hasher *auth.PasswordHasher
	log    logging.Logger
}

func NewSeeder(repo employees.Repository, hasher *auth.PasswordHasher, log logging.Logger) *Seeder {
	return &Seeder{repo: repo, hasher: hasher, log: log.With("module", "seed")}
}

// Seed validates in, hashes the password and upserts the employee by
// username.
func (s *Seeder) Seed(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)

	if len(in.Username) < 3 || len(in.Username) > 30 {
		return nil, common.NewValidationError("username", "length must be between 3 and 30 characters")
	}
	if in.FullName == "" {
		return nil, common.NewValidationError("fullName", "is required")
	}
	if err := services.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.EmployeeNumber == "" {
		in.EmployeeNumber = uuid.NewString()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	e, err := s.repo.Upsert(ctx, &models.Employee{
		Username:       in.Username,
		FullName:       in.FullName,
		EmployeeNumber: in.EmployeeNumber,
		PasswordHash:   hash,
		Role:           models.RoleEmployee,
	})
	if err != nil {
		return nil, fmt.Errorf("error saving employee: %w", err)
	}

	s.log.Info(ctx, "employee seeded", "username", e.Username, "employeeNumber", e.EmployeeNumber)
	return e, nil
}
