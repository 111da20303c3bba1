// Package cart models the shopping cart: the row itself, its persistence
// port, and the cart-drain algorithm (Drain, in drain.go), the only
// non-trivial piece of logic here.
package cart

import "errors"

var ErrNotFound = errors.New("cart: item not found")

// Item has no uniqueness constraint on (UserID, ProductID); the service
// treats the set as additive.
type Item struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}
