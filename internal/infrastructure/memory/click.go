package memory

import (
	"context"
	"sync"

	domclick "github.com/shopmini/paycore/internal/domain/click"
)

// ClickRepo is a mutex-guarded click.Repository fake.
type ClickRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domclick.Transaction // keyed by ClickTransID
}

func NewClickRepo() *ClickRepo {
	return &ClickRepo{rows: make(map[int64]*domclick.Transaction)}
}

func (r *ClickRepo) Insert(_ context.Context, t *domclick.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.rows[t.ClickTransID] = &cp
	return nil
}

func (r *ClickRepo) FindByClickTransID(_ context.Context, clickTransID int64) (*domclick.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[clickTransID]
	if !ok {
		return nil, domclick.ErrTxMissing
	}
	cp := *t
	return &cp, nil
}

func (r *ClickRepo) FindConfirmedByClickTransID(_ context.Context, clickTransID int64) (*domclick.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[clickTransID]
	if !ok || t.Status != domclick.StatusConfirmed {
		return nil, domclick.ErrTxMissing
	}
	cp := *t
	return &cp, nil
}
