// Package reaper implements the zombie-order sweep (§4.5): a periodic
// background reconciler that cancels abandoned online orders and their
// dangling Payme transactions.
package reaper

import (
	"context"
	"time"

	domorder "github.com/shopmini/paycore/internal/domain/order"
	dompayme "github.com/shopmini/paycore/internal/domain/payme"
	"github.com/shopmini/paycore/internal/application/txn"
	"github.com/shopmini/paycore/internal/observability"
)

const (
	defaultInterval  = 60 * time.Second
	defaultThreshold = 30 * time.Minute
)

// OrderCanceller is the one OrderService method the reaper needs.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID int64) error
}

type Deps struct {
	Orders        domorder.Repository
	Transactions  dompayme.Repository
	UnitOfWork    txn.UnitOfWork
	Lifecycle     OrderCanceller
	Interval      time.Duration
	Threshold     time.Duration
	Observability observability.Observability
}

// Runner drives the sweep loop; call Run in its own goroutine.
type Runner struct {
	orders       domorder.Repository
	transactions dompayme.Repository
	uow          txn.UnitOfWork
	lifecycle    OrderCanceller
	interval     time.Duration
	threshold    time.Duration

	log observability.Logger
}

func NewRunner(d Deps) *Runner {
	tel := d.Observability
	if tel == nil {
		tel = observability.Nop()
	}
	interval := d.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Runner{
		orders:       d.Orders,
		transactions: d.Transactions,
		uow:          d.UnitOfWork,
		lifecycle:    d.Lifecycle,
		interval:     interval,
		threshold:    threshold,
		log:          tel.Logger().With(observability.F("component", "reaper")),
	}
}

// Run blocks, sweeping every interval until ctx is cancelled. A panic or
// error in one sweep is logged and the loop resumes at the next tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnceSafely(ctx)
		}
	}
}

func (r *Runner) sweepOnceSafely(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("reaper_panic", observability.F("recovered", rec))
		}
	}()
	if err := r.sweepOnce(ctx); err != nil {
		r.log.Error("reaper_sweep_failed", observability.F("error", err.Error()))
	}
}

func (r *Runner) sweepOnce(ctx context.Context) error {
	now := time.Now()
	olderThan := now.Add(-r.threshold)

	candidates := make(map[int64]struct{})

	expired, err := r.orders.ListExpiredOnline(ctx, olderThan)
	if err != nil {
		return err
	}
	for _, o := range expired {
		candidates[o.ID] = struct{}{}
	}

	staleTxs, err := r.transactions.ListByTimeRange(ctx, 0, dompayme.NowMillis()-r.threshold.Milliseconds())
	if err != nil {
		r.log.Warn("reaper_statement_scan_failed", observability.F("error", err.Error()))
	} else {
		for i := range staleTxs {
			if staleTxs[i].IsActive() {
				candidates[staleTxs[i].OrderID] = struct{}{}
			}
		}
	}

	for orderID := range candidates {
		if err := r.reapOne(ctx, orderID); err != nil {
			r.log.Warn("reaper_reap_failed", observability.F("order_id", orderID), observability.F("error", err.Error()))
		}
	}
	return nil
}

// reapOne cancels the order and, when its active Payme transaction is older
// than the threshold, that transaction too, inside one transaction. The order's status is re-checked under
// lock so a concurrently completed payment is never undone.
func (r *Runner) reapOne(ctx context.Context, orderID int64) error {
	return r.uow.Atomic(ctx, func(ctx context.Context) error {
		o, err := r.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != domorder.StatusNew {
			return nil
		}

		if t, terr := r.transactions.FindActiveByOrderForUpdate(ctx, orderID); terr == nil && t != nil {
			age := dompayme.NowMillis() - t.CreateTime
			if age > r.threshold.Milliseconds() {
				reason := dompayme.ReasonTimeoutOrSuperseded
				cancelTime := dompayme.NowMillis()
				t.State = dompayme.StateCancelled
				t.Reason = &reason
				t.CancelTime = &cancelTime
				if uerr := r.transactions.Update(ctx, t); uerr != nil {
					return uerr
				}
			}
		}

		return r.lifecycle.CancelOrder(ctx, orderID)
	})
}
