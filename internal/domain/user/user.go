// Package user models the shop customer, including the integer-sum debt
// balance the debt-repayment order variant settles.
package user

import "errors"

var (
	ErrNotFound = errors.New("user: not found")
	ErrNegativeDebt = errors.New("user: debt would go negative")
)

type Language string

const (
	LanguageRU Language = "ru"
	LanguageUZ Language = "uz"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleManager    Role = "manager"
	RoleSuperadmin Role = "superadmin"
)

type User struct {
	ID           int64
	TelegramID   *int64
	Phone        *string
	Language     Language
	Role         Role
	Debt         int64 // sum, >= 0 always
	Login        *string
	PasswordHash *string
}
