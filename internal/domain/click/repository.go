package click

import "context"

// Repository persists Click transactions.
type Repository interface {
	Insert(ctx context.Context, t *Transaction) error
	FindByClickTransID(ctx context.Context, clickTransID int64) (*Transaction, error)
	FindConfirmedByClickTransID(ctx context.Context, clickTransID int64) (*Transaction, error)
}
