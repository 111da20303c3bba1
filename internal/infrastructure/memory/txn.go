package memory

import (
	"context"
	"sync"

	"github.com/shopmini/paycore/internal/application/txn"
)

type txnKey struct{}

// UnitOfWork is a reentrant in-process stand-in for the gorm transaction
// wrapper: a single mutex plays the role of the database's serialization,
// and a context marker makes nested Atomic calls (CancelOrder invoked from
// inside Payme/Click's own transaction) a no-op re-entry rather than a
// deadlock on the same mutex.
type UnitOfWork struct {
	mu sync.Mutex
}

func NewUnitOfWork() *UnitOfWork { return &UnitOfWork{} }

var _ txn.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txnKey{}) != nil {
		return fn(ctx)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(context.WithValue(ctx, txnKey{}, true))
}
