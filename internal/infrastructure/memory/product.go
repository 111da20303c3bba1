package memory

import (
	"context"
	"sync"

	domproduct "github.com/shopmini/paycore/internal/domain/product"
)

type ProductRepo struct {
	mu   sync.Mutex
	rows map[int64]*domproduct.Product
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{rows: make(map[int64]*domproduct.Product)}
}

// Seed inserts or overwrites a product row; test-only helper.
func (r *ProductRepo) Seed(p *domproduct.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.rows[p.ID] = &cp
}

func (r *ProductRepo) Get(_ context.Context, id int64) (*domproduct.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, domproduct.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) TryDecrementStock(_ context.Context, id int64, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return false, domproduct.ErrNotFound
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *ProductRepo) IncrementStock(_ context.Context, id int64, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil
	}
	p.Stock += qty
	return nil
}
