package memory

import (
	"context"
	"sync"

	dompayme "github.com/shopmini/paycore/internal/domain/payme"
)

type PaymeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*dompayme.Transaction // keyed by PaymeID
}

func NewPaymeRepo() *PaymeRepo {
	return &PaymeRepo{rows: make(map[string]*dompayme.Transaction)}
}

func (r *PaymeRepo) Insert(_ context.Context, t *dompayme.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.rows[t.PaymeID] = &cp
	return nil
}

func (r *PaymeRepo) FindByPaymeID(_ context.Context, paymeID string) (*dompayme.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[paymeID]
	if !ok {
		return nil, dompayme.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *PaymeRepo) GetForUpdate(ctx context.Context, paymeID string) (*dompayme.Transaction, error) {
	return r.FindByPaymeID(ctx, paymeID)
}

func (r *PaymeRepo) Update(_ context.Context, t *dompayme.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[t.PaymeID]; !ok {
		return dompayme.ErrNotFound
	}
	cp := *t
	r.rows[t.PaymeID] = &cp
	return nil
}

func (r *PaymeRepo) FindActiveByOrderForUpdate(_ context.Context, orderID int64) (*dompayme.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.rows {
		if t.OrderID == orderID && t.IsActive() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, dompayme.ErrNotFound
}

func (r *PaymeRepo) ListByTimeRange(_ context.Context, from, to int64) ([]dompayme.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dompayme.Transaction
	for _, t := range r.rows {
		if t.Time >= from && t.Time <= to {
			out = append(out, *t)
		}
	}
	return out, nil
}
