package memory

import (
	"context"
	"sync"

	domuser "github.com/shopmini/paycore/internal/domain/user"
)

type UserRepo struct {
	mu   sync.Mutex
	rows map[int64]*domuser.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{rows: make(map[int64]*domuser.User)}
}

func (r *UserRepo) Seed(u *domuser.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.rows[u.ID] = &cp
}

func (r *UserRepo) Get(_ context.Context, id int64) (*domuser.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, domuser.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetForUpdate(ctx context.Context, id int64) (*domuser.User, error) {
	return r.Get(ctx, id)
}

func (r *UserRepo) AddDebt(_ context.Context, id int64, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return domuser.ErrNotFound
	}
	next := u.Debt + delta
	if next < 0 {
		return domuser.ErrNegativeDebt
	}
	u.Debt = next
	return nil
}
