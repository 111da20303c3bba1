package gormrepo

import (
	"errors"
	"time"

	"context"

	domorder "github.com/shopmini/paycore/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) Insert(ctx context.Context, o *domorder.Order) error {
	tx := dbFrom(ctx, r.db)
	row, items := fromDomainOrder(o)
	row.ID = 0
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	o.ID = row.ID
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = row.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].ID = items[i].ID
			o.Items[i].OrderID = row.ID
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (*domorder.Order, error) {
	return r.get(ctx, id, false)
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id int64) (*domorder.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepo) get(ctx context.Context, id int64, lock bool) (*domorder.Order, error) {
	tx := dbFrom(ctx, r.db)
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row gormOrder
	if err := q.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domorder.ErrNotFound
		}
		return nil, err
	}
	var items []gormOrderItem
	if err := tx.Where("order_id = ?", id).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return toDomainOrder(row, items), nil
}

// Update persists the fields the state machine can change; items are
// immutable snapshots written once at Insert and never revised.
func (r *OrderRepo) Update(ctx context.Context, o *domorder.Order) error {
	tx := dbFrom(ctx, r.db)
	return tx.Model(&gormOrder{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":         string(o.Status),
		"payment_method": string(o.PaymentMethod),
		"updated_at":     o.UpdatedAt,
	}).Error
}

func (r *OrderRepo) FindPendingOnline(ctx context.Context, userID int64) (*domorder.Order, error) {
	tx := dbFrom(ctx, r.db)
	var row gormOrder
	err := tx.Where("user_id = ? AND status = ? AND payment_method IN ?",
		userID, string(domorder.StatusNew), onlineMethods()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domorder.ErrNotFound
		}
		return nil, err
	}
	var items []gormOrderItem
	if err := tx.Where("order_id = ?", row.ID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return toDomainOrder(row, items), nil
}

func (r *OrderRepo) ListExpiredOnline(ctx context.Context, olderThan time.Time) ([]*domorder.Order, error) {
	tx := dbFrom(ctx, r.db)
	var rows []gormOrder
	err := tx.Where("status = ? AND payment_method IN ? AND created_at < ?",
		string(domorder.StatusNew), onlineMethods(), olderThan).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domorder.Order, 0, len(rows))
	for _, row := range rows {
		var items []gormOrderItem
		if err := tx.Where("order_id = ?", row.ID).Order("id").Find(&items).Error; err != nil {
			return nil, err
		}
		out = append(out, toDomainOrder(row, items))
	}
	return out, nil
}

func onlineMethods() []string {
	return []string{string(domorder.PaymentCard), string(domorder.PaymentClick)}
}
