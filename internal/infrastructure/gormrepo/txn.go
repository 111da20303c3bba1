package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopmini/paycore/internal/application/txn"
	"gorm.io/gorm"
)

type txKey struct{}

// lockTimeoutSQLState is Postgres's SQLSTATE for "lock_timeout exceeded".
const lockTimeoutSQLState = "55P03"

// UnitOfWork opens a real database transaction per outermost Atomic call and
// stashes the *gorm.DB handle on the context; every repository in this
// package resolves that handle via dbFrom instead of its own base *gorm.DB
// whenever one is present, so a nested Atomic call (CancelOrder invoked from
// inside Payme/Click's own commit, or the reaper's own per-candidate call)
// reuses the enclosing transaction rather than opening a second one.
//
// Every outermost transaction sets a session-local lock_timeout (§4.3, §5):
// a handler blocked on SELECT ... FOR UPDATE longer than this surfaces
// txn.ErrLockTimeout instead of hanging the provider's HTTP round-trip.
type UnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

const defaultLockTimeout = 5 * time.Second

func NewUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *UnitOfWork {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &UnitOfWork{db: db, lockTimeout: lockTimeout}
}

var _ txn.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if serr := tx.Exec(stmt).Error; serr != nil {
			return serr
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return translateLockError(err)
}

// translateLockError maps Postgres's lock_timeout SQLSTATE to the
// transport-agnostic txn.ErrLockTimeout sentinel every handler checks for
// with errors.Is, leaving every other error untouched.
func translateLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockTimeoutSQLState {
		return txn.ErrLockTimeout
	}
	return err
}

func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}
