package gormrepo

import (
	"context"

	domcart "github.com/shopmini/paycore/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) ListByUserAndIDs(ctx context.Context, userID int64, ids []int64) ([]domcart.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx := dbFrom(ctx, r.db)
	var rows []gormCartItem
	if err := tx.Where("user_id = ? AND id IN ?", userID, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// ListByUserAndProductsForUpdate locks and returns rows in ascending id
// order, so concurrent drains over overlapping carts take row locks in a
// stable order.
func (r *CartRepo) ListByUserAndProductsForUpdate(ctx context.Context, userID int64, productIDs []int64) ([]domcart.Item, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	tx := dbFrom(ctx, r.db)
	var rows []gormCartItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

func (r *CartRepo) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx := dbFrom(ctx, r.db)
	return tx.Where("id IN ?", ids).Delete(&gormCartItem{}).Error
}

func (r *CartRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	tx := dbFrom(ctx, r.db)
	res := tx.Model(&gormCartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domcart.ErrNotFound
	}
	return nil
}

func toItems(rows []gormCartItem) []domcart.Item {
	out := make([]domcart.Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, domcart.Item{ID: row.ID, UserID: row.UserID, ProductID: row.ProductID, Quantity: row.Quantity})
	}
	return out
}
