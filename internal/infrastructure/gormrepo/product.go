package gormrepo

import (
	"context"
	"errors"

	domproduct "github.com/shopmini/paycore/internal/domain/product"
	"gorm.io/gorm"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(ctx context.Context, id int64) (*domproduct.Product, error) {
	tx := dbFrom(ctx, r.db)
	var row gormProduct
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domproduct.ErrNotFound
		}
		return nil, err
	}
	return toDomainProduct(row), nil
}

// TryDecrementStock relies on the conditional UPDATE itself for
// linearizability; no SELECT ... FOR UPDATE is taken.
func (r *ProductRepo) TryDecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	tx := dbFrom(ctx, r.db)
	res := tx.Model(&gormProduct{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ProductRepo) IncrementStock(ctx context.Context, id int64, qty int) error {
	tx := dbFrom(ctx, r.db)
	return tx.Model(&gormProduct{}).Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}
