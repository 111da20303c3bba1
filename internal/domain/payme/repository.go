package payme

import "context"

var ErrNotFound = &RPCError{Code: CodeTransactionNotFound, Message: "Транзакция не найдена"}

// Repository persists Payme transactions.
type Repository interface {
	Insert(ctx context.Context, t *Transaction) error
	FindByPaymeID(ctx context.Context, paymeID string) (*Transaction, error)
	GetForUpdate(ctx context.Context, paymeID string) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error

	// FindActiveByOrderForUpdate returns the order's active (state=1)
	// transaction, locked, or ErrNotFound if none exists.
	FindActiveByOrderForUpdate(ctx context.Context, orderID int64) (*Transaction, error)

	// ListByTimeRange enumerates transactions whose provider Time falls in
	// [from, to], for GetStatement.
	ListByTimeRange(ctx context.Context, from, to int64) ([]Transaction, error)
}
