package gormrepo

import (
	"context"
	"errors"

	dompayme "github.com/shopmini/paycore/internal/domain/payme"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymeRepo struct{ db *gorm.DB }

func NewPaymeRepo(db *gorm.DB) *PaymeRepo { return &PaymeRepo{db: db} }

func (r *PaymeRepo) Insert(ctx context.Context, t *dompayme.Transaction) error {
	tx := dbFrom(ctx, r.db)
	row := fromDomainPayme(t)
	row.ID = 0
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (r *PaymeRepo) FindByPaymeID(ctx context.Context, paymeID string) (*dompayme.Transaction, error) {
	return r.find(ctx, paymeID, false)
}

func (r *PaymeRepo) GetForUpdate(ctx context.Context, paymeID string) (*dompayme.Transaction, error) {
	return r.find(ctx, paymeID, true)
}

func (r *PaymeRepo) find(ctx context.Context, paymeID string, lock bool) (*dompayme.Transaction, error) {
	tx := dbFrom(ctx, r.db)
	if lock {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row gormPaymeTransaction
	if err := tx.First(&row, "payme_id = ?", paymeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dompayme.ErrNotFound
		}
		return nil, err
	}
	return toDomainPayme(row), nil
}

func (r *PaymeRepo) Update(ctx context.Context, t *dompayme.Transaction) error {
	tx := dbFrom(ctx, r.db)
	return tx.Model(&gormPaymeTransaction{}).Where("payme_id = ?", t.PaymeID).Updates(map[string]any{
		"state":        int(t.State),
		"reason":       t.Reason,
		"perform_time": t.PerformTime,
		"cancel_time":  t.CancelTime,
	}).Error
}

func (r *PaymeRepo) FindActiveByOrderForUpdate(ctx context.Context, orderID int64) (*dompayme.Transaction, error) {
	tx := dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	var row gormPaymeTransaction
	err := tx.Where("order_id = ? AND state = ?", orderID, int(dompayme.StateCreated)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dompayme.ErrNotFound
		}
		return nil, err
	}
	return toDomainPayme(row), nil
}

func (r *PaymeRepo) ListByTimeRange(ctx context.Context, from, to int64) ([]dompayme.Transaction, error) {
	tx := dbFrom(ctx, r.db)
	var rows []gormPaymeTransaction
	if err := tx.Where("time >= ? AND time <= ?", from, to).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]dompayme.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomainPayme(row))
	}
	return out, nil
}
