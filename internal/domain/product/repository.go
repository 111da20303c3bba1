package product

import "context"

// Repository exposes the lock-free conditional stock primitive the order
// service builds on: linearizability comes from the row's own write, not
// from an application-held lock (see CONCURRENCY & RESOURCE MODEL).
type Repository interface {
	Get(ctx context.Context, id int64) (*Product, error)

	// TryDecrementStock performs `UPDATE products SET stock = stock - qty
	// WHERE id = ? AND stock >= qty` and reports whether a row was affected.
	TryDecrementStock(ctx context.Context, id int64, qty int) (bool, error)

	// IncrementStock performs `UPDATE products SET stock = stock + qty WHERE
	// id = ?` unconditionally, for cancellation-time restoration. It is a
	// no-op (not an error) if the product no longer exists.
	IncrementStock(ctx context.Context, id int64, qty int) error
}
