package memory

import (
	"context"
	"sort"
	"sync"

	domcart "github.com/shopmini/paycore/internal/domain/cart"
)

type CartRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domcart.Item
}

func NewCartRepo() *CartRepo {
	return &CartRepo{rows: make(map[int64]domcart.Item)}
}

// Seed inserts a cart row, assigning the next id, and returns it.
func (r *CartRepo) Seed(userID, productID int64, quantity int) domcart.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item := domcart.Item{ID: r.nextID, UserID: userID, ProductID: productID, Quantity: quantity}
	r.rows[item.ID] = item
	return item
}

func (r *CartRepo) ListByUserAndIDs(_ context.Context, userID int64, ids []int64) ([]domcart.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domcart.Item
	for _, id := range ids {
		if row, ok := r.rows[id]; ok && row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *CartRepo) ListByUserAndProductsForUpdate(_ context.Context, userID int64, productIDs []int64) ([]domcart.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	var out []domcart.Item
	for _, row := range r.rows {
		if row.UserID != userID {
			continue
		}
		if _, ok := wanted[row.ProductID]; !ok {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CartRepo) DeleteByIDs(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.rows, id)
	}
	return nil
}

func (r *CartRepo) UpdateQuantity(_ context.Context, id int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domcart.ErrNotFound
	}
	row.Quantity = quantity
	r.rows[id] = row
	return nil
}
