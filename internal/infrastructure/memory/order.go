// Package memory provides mutex-guarded in-process fakes for every domain
// repository, used by application-layer tests in place of gormrepo.
package memory

import (
	"context"
	"sync"
	"time"

	domorder "github.com/shopmini/paycore/internal/domain/order"
)

// OrderRepo is a mutex-guarded map-backed order.Repository. GetForUpdate
// carries no real locking semantics (the tests that use it are
// single-goroutine); it exists so call sites don't need a second code path.
type OrderRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domorder.Order
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{rows: make(map[int64]*domorder.Order)}
}

func (r *OrderRepo) Insert(_ context.Context, o *domorder.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.rows[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepo) Get(_ context.Context, id int64) (*domorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, domorder.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id int64) (*domorder.Order, error) {
	return r.Get(ctx, id)
}

func (r *OrderRepo) Update(_ context.Context, o *domorder.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[o.ID]; !ok {
		return domorder.ErrNotFound
	}
	r.rows[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepo) FindPendingOnline(_ context.Context, userID int64) (*domorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.UserID == userID && o.Status == domorder.StatusNew && o.PaymentMethod.IsOnline() {
			return o.Clone(), nil
		}
	}
	return nil, domorder.ErrNotFound
}

func (r *OrderRepo) ListExpiredOnline(_ context.Context, olderThan time.Time) ([]*domorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domorder.Order
	for _, o := range r.rows {
		if o.Status == domorder.StatusNew && o.PaymentMethod.IsOnline() && o.CreatedAt.Before(olderThan) {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}
