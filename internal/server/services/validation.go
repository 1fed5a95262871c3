package services

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/swiftportal/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const passwordSpecials = "@$!%*?&#"

// Amounts are stored as NUMERIC(20,4).
const amountScale = 4

var amountCeiling = decimal.New(1, 16)

const (
	msgPassword = "must be at least 8 characters and include an uppercase letter, a lowercase letter, a digit and one of " + passwordSpecials
	msgAmount   = "must be a positive number with at most 4 decimal places and less than 10000000000000000"
)

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name       string `json:"name" validate:"required,alphanum,min=3,max=30"`
	Surname    string `json:"surname" validate:"required,alphanum,min=3,max=30"`
	Username   string `json:"username" validate:"required,alphanum,min=3,max=30"`
	ID         string `json:"id" validate:"required,number,len=13"`
	AccountNum string `json:"accountNum" validate:"required,number,len=12"`
	Password   string `json:"password" validate:"required,password"`
}

// CreateTransactionRequest is the body of POST /transactions. Amount is a
// pointer so that a missing value can be told apart from zero.
type CreateTransactionRequest struct {
	Amount        *decimal.Decimal `json:"amount" validate:"required,amount"`
	Currency      string           `json:"currency" validate:"required,len=3"`
	Provider      string           `json:"provider" validate:"required,oneof=SWIFT"`
	PayeeAccount  string           `json:"payeeAccount" validate:"required,number,min=12,max=20"`
	RecipientName string           `json:"recipientName" validate:"required,trimmedmin=3"`
	SwiftCode     string           `json:"swiftCode" validate:"required,alphanum,min=8,max=11"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && validAmount(d)
	})
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	mustRegister(v, "trimmedmin", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func (r *SignupRequest) Validate() error {
	return validationError(validate.Struct(r))
}

func (r *CreateTransactionRequest) Validate() error {
	return validationError(validate.Struct(r))
}

// ValidatePassword enforces the password policy shared by customers and
// provisioned employees.
func ValidatePassword(p string) error {
	return validationError(validate.Var(p, "required,password"))
}

// validationError turns the first failed rule into a *common.ValidationError.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	field := fe.Field()
	if field == "" {
		field = "password"
	}
	return common.NewValidationError(field, reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "alphanum":
		return "must only contain alpha-numeric characters"
	case "number":
		return "must only contain digits"
	case "len":
		return "length must be " + fe.Param() + " characters long"
	case "min", "trimmedmin":
		return "length must be at least " + fe.Param() + " characters long"
	case "max":
		return "length must be less than or equal to " + fe.Param() + " characters long"
	case "oneof":
		return "must be [" + fe.Param() + "]"
	case "amount":
		return msgAmount
	case "password":
		return msgPassword
	}
	return "is invalid"
}

// validAmount reports whether d is positive and fits the stored column.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() &&
		d.Equal(d.Truncate(amountScale)) &&
		d.LessThan(amountCeiling)
}

func strongPassword(p string) bool {
	if utf8.RuneCountInString(p) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, c := range p {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		}
	}
	return lower && upper && digit && special
}
