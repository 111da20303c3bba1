// Package txn defines the unit-of-work port every payment/order use case
// opens once per request: "all inside one DB transaction" (§4.2 algorithm),
// with pessimistic row locks taken inside fn via the repositories, and a
// bounded lock_timeout enforced by the concrete implementation.
package txn

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned by an UnitOfWork implementation when the
// configured lock_timeout elapses while a handler waits on a row lock
// (§5): the caller maps this to "order busy, retry later" rather than
// hanging the provider's HTTP round-trip indefinitely.
var ErrLockTimeout = errors.New("txn: lock wait timed out")

// UnitOfWork runs fn within a single database transaction. Repositories
// invoked with the ctx fn receives must participate in that same
// transaction; the gorm implementation achieves this by stashing the *gorm.DB
// transaction handle on the context.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}
