package gormrepo

import (
	"context"
	"errors"

	domuser "github.com/shopmini/paycore/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Get(ctx context.Context, id int64) (*domuser.User, error) {
	return r.get(ctx, id, false)
}

func (r *UserRepo) GetForUpdate(ctx context.Context, id int64) (*domuser.User, error) {
	return r.get(ctx, id, true)
}

func (r *UserRepo) get(ctx context.Context, id int64, lock bool) (*domuser.User, error) {
	tx := dbFrom(ctx, r.db)
	if lock {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row gormUser
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domuser.ErrNotFound
		}
		return nil, err
	}
	return toDomainUser(row), nil
}

// AddDebt folds the negative-balance guard into the UPDATE's WHERE clause;
// a zero RowsAffected is disambiguated by a follow-up existence check.
func (r *UserRepo) AddDebt(ctx context.Context, id int64, delta int64) error {
	tx := dbFrom(ctx, r.db)
	res := tx.Model(&gormUser{}).
		Where("id = ? AND debt + ? >= 0", id, delta).
		Update("debt", gorm.Expr("debt + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var row gormUser
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domuser.ErrNotFound
		}
		return err
	}
	return domuser.ErrNegativeDebt
}
