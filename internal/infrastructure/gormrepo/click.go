package gormrepo

import (
	"context"
	"errors"

	domclick "github.com/shopmini/paycore/internal/domain/click"
	"gorm.io/gorm"
)

type ClickRepo struct{ db *gorm.DB }

func NewClickRepo(db *gorm.DB) *ClickRepo { return &ClickRepo{db: db} }

func (r *ClickRepo) Insert(ctx context.Context, t *domclick.Transaction) error {
	tx := dbFrom(ctx, r.db)
	row := fromDomainClick(t)
	row.ID = 0
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (r *ClickRepo) FindByClickTransID(ctx context.Context, clickTransID int64) (*domclick.Transaction, error) {
	tx := dbFrom(ctx, r.db)
	var row gormClickTransaction
	if err := tx.First(&row, "click_trans_id = ?", clickTransID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domclick.ErrTxMissing
		}
		return nil, err
	}
	return toDomainClick(row), nil
}

func (r *ClickRepo) FindConfirmedByClickTransID(ctx context.Context, clickTransID int64) (*domclick.Transaction, error) {
	tx := dbFrom(ctx, r.db)
	var row gormClickTransaction
	err := tx.Where("click_trans_id = ? AND status = ?", clickTransID, string(domclick.StatusConfirmed)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domclick.ErrTxMissing
		}
		return nil, err
	}
	return toDomainClick(row), nil
}
