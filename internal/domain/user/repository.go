package user

import "context"

// Repository persists users. GetForUpdate takes a row lock for the duration
// of the caller's transaction, required before any debt mutation.
type Repository interface {
	Get(ctx context.Context, id int64) (*User, error)
	GetForUpdate(ctx context.Context, id int64) (*User, error)

	// AddDebt performs `UPDATE users SET debt = debt + delta WHERE id = ?`.
	// delta may be negative (repayment); callers are responsible for holding
	// the row lock and for saturating at zero before calling with a negative
	// delta larger than the current balance.
	AddDebt(ctx context.Context, id int64, delta int64) error
}
