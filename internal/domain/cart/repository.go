package cart

import "context"

// Repository persists cart rows and supports the cart-drain algorithm: scan
// a user's rows restricted to a product set, ordered by id, so drains are
// deterministic and concurrent drains on overlapping carts lock rows in a
// stable order (avoiding deadlock).
type Repository interface {
	ListByUserAndIDs(ctx context.Context, userID int64, ids []int64) ([]Item, error)

	// ListByUserAndProductsForUpdate returns, in ascending id order and
	// locked for the caller's transaction, every cart row for userID whose
	// product is in productIDs.
	ListByUserAndProductsForUpdate(ctx context.Context, userID int64, productIDs []int64) ([]Item, error)

	DeleteByIDs(ctx context.Context, ids []int64) error
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
}
