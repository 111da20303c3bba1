// Package payme implements the provider-facing JSON-RPC state machine
// (§4.3): six methods over PaymeTransaction rows, each run inside one DB
// transaction with pessimistic locking on the order and transaction rows.
package payme

import (
	"context"
	"errors"
	"strconv"
	"time"

	domcart "github.com/shopmini/paycore/internal/domain/cart"
	"github.com/shopmini/paycore/internal/domain/money"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	dompayme "github.com/shopmini/paycore/internal/domain/payme"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/application/txn"
	"github.com/shopmini/paycore/internal/observability"
)

// mapAtomicErr turns a lock-wait timeout into the provider's "order busy,
// retry later" code (§4.3, §5); every other error keeps its
// CodeOrderNotFound fallback (the transaction's own failure carries no
// useful provider-facing detail beyond "try again").
func mapAtomicErr(err error) *dompayme.RPCError {
	if errors.Is(err, txn.ErrLockTimeout) {
		return dompayme.ErrOrderNotAvailable
	}
	return dompayme.ErrOrderNotFound
}

// Config carries the provider-facing configuration (§6).
type Config struct {
	MerchantAccountField string // "order_id"
	PaymentTimeout       time.Duration
	FutureSkew           time.Duration // 60s, tolerance for CreateTransaction's `time` field
	DefaultPackageCode   string
}

type Deps struct {
	Transactions  dompayme.Repository
	Orders        domorder.Repository
	Users         domuser.Repository
	Carts         domcart.Repository
	Products      domproduct.Repository
	UnitOfWork    txn.UnitOfWork
	OrderLifecycle OrderCanceller
	Publisher     domoutbox.Publisher
	Config        Config
	Observability observability.Observability
}

type Service struct {
	txs      dompayme.Repository
	orders   domorder.Repository
	users    domuser.Repository
	carts    domcart.Repository
	products domproduct.Repository
	uow      txn.UnitOfWork
	lifecycle OrderCanceller
	publisher domoutbox.Publisher
	cfg      Config

	tel observability.Observability
	log observability.Logger
}

func NewService(d Deps) *Service {
	tel := d.Observability
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		txs:       d.Transactions,
		orders:    d.Orders,
		users:     d.Users,
		carts:     d.Carts,
		products:  d.Products,
		uow:       d.UnitOfWork,
		lifecycle: d.OrderLifecycle,
		publisher: d.Publisher,
		cfg:       d.Config,
		tel:       tel,
		log:       tel.Logger().With(observability.F("component", "payme-service")),
	}
}

func (s *Service) orderIDFromAccount(account map[string]string) (int64, *dompayme.RPCError) {
	raw, ok := account[s.cfg.MerchantAccountField]
	if !ok {
		return 0, dompayme.ErrOrderNotFound
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dompayme.ErrOrderNotFound
	}
	return id, nil
}

// CheckPerformTransaction implements §4.3.1.
func (s *Service) CheckPerformTransaction(ctx context.Context, amount int64, account map[string]string) (res *AllowResult, rpcErr *dompayme.RPCError) {
	orderID, aerr := s.orderIDFromAccount(account)
	if aerr != nil {
		return nil, aerr
	}

	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		o, ferr := s.orders.GetForUpdate(ctx, orderID)
		if ferr != nil {
			rpcErr = dompayme.ErrOrderNotFound
			return rpcErr
		}
		if o.IsExpired(s.cfg.PaymentTimeout, time.Now()) {
			if _, cerr := s.lifecycle.CancelExpiredOnlineOrder(ctx, o.ID); cerr != nil {
				return cerr
			}
			// nil lets the cancellation commit; rpcErr is reported after Atomic.
			rpcErr = dompayme.ErrOrderNotAvailable
			return nil
		}
		if o.PaymentMethod != domorder.PaymentCard {
			rpcErr = dompayme.ErrOrderNotAvailable
			return rpcErr
		}
		if money.SumToTiyin(o.TotalAmount) != amount {
			rpcErr = dompayme.ErrAmount
			return rpcErr
		}
		if o.Status != domorder.StatusNew {
			rpcErr = dompayme.ErrOrderNotAvailable
			return rpcErr
		}
		res = &AllowResult{Allow: true}
		return nil
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err != nil {
		return nil, mapAtomicErr(err)
	}
	return res, nil
}

// CreateTransaction implements §4.3.2.
func (s *Service) CreateTransaction(ctx context.Context, paymeID string, providerTime, amount int64, account map[string]string) (res *CreateResult, rpcErr *dompayme.RPCError) {
	now := dompayme.NowMillis()
	if providerTime > now+s.cfg.FutureSkew.Milliseconds() {
		return nil, dompayme.ErrAmount
	}
	if abs64(now-providerTime) > s.cfg.PaymentTimeout.Milliseconds() {
		return nil, dompayme.ErrAmount
	}

	orderID, aerr := s.orderIDFromAccount(account)
	if aerr != nil {
		return nil, aerr
	}

	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		existing, ferr := s.txs.FindByPaymeID(ctx, paymeID)
		if ferr == nil {
			if existing.Amount != amount {
				rpcErr = dompayme.ErrAmount
				return rpcErr
			}
			if existing.OrderID != orderID {
				rpcErr = dompayme.ErrOrderNotAvailable
				return rpcErr
			}
			if existing.IsActive() {
				res = &CreateResult{Snapshot: snapshotOf(existing)}
				return nil
			}
			res = &CreateResult{Snapshot: snapshotOf(existing)}
			return nil
		}

		o, oerr := s.orders.GetForUpdate(ctx, orderID)
		if oerr != nil {
			rpcErr = dompayme.ErrOrderNotFound
			return rpcErr
		}
		if o.IsExpired(s.cfg.PaymentTimeout, time.Now()) {
			if _, cerr := s.lifecycle.CancelExpiredOnlineOrder(ctx, o.ID); cerr != nil {
				return cerr
			}
			// nil lets the cancellation commit; rpcErr is reported after Atomic.
			rpcErr = dompayme.ErrOrderNotAvailable
			return nil
		}
		if money.SumToTiyin(o.TotalAmount) != amount || o.PaymentMethod != domorder.PaymentCard || o.Status != domorder.StatusNew {
			rpcErr = dompayme.ErrOrderNotAvailable
			return rpcErr
		}

		if o.OrderType == domorder.TypeDebtRepayment {
			u, uerr := s.users.GetForUpdate(ctx, o.UserID)
			if uerr != nil {
				return uerr
			}
			if amount > money.SumToTiyin(u.Debt) {
				if cerr := s.lifecycle.CancelOrder(ctx, o.ID); cerr != nil {
					return cerr
				}
				// nil lets the cancellation commit; rpcErr is reported after Atomic.
				rpcErr = dompayme.ErrAmount
				return nil
			}
		}

		if active, aerr := s.txs.FindActiveByOrderForUpdate(ctx, orderID); aerr == nil && active != nil {
			reason := dompayme.ReasonTimeoutOrSuperseded
			active.State = dompayme.StateCancelled
			active.Reason = &reason
			cancelTime := now
			active.CancelTime = &cancelTime
			if uerr := s.txs.Update(ctx, active); uerr != nil {
				return uerr
			}
		}

		newTx := &dompayme.Transaction{
			PaymeID:    paymeID,
			OrderID:    orderID,
			Amount:     amount,
			Time:       providerTime,
			State:      dompayme.StateCreated,
			CreateTime: now,
		}
		if ierr := s.txs.Insert(ctx, newTx); ierr != nil {
			return ierr
		}

		detail, derr := s.buildReceipt(ctx, o)
		if derr != nil {
			return derr
		}
		res = &CreateResult{Snapshot: snapshotOf(newTx), Detail: detail}
		return nil
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err != nil {
		s.log.Error("create_transaction_failed", observability.F("error", err.Error()))
		return nil, mapAtomicErr(err)
	}
	return res, nil
}

func (s *Service) buildReceipt(ctx context.Context, o *domorder.Order) (*ReceiptDetail, error) {
	if o.OrderType == domorder.TypeDebtRepayment {
		return &ReceiptDetail{
			ReceiptType: 0,
			Items: []ReceiptItem{{
				Title:      "Погашение задолженности",
				Price:      money.SumToTiyin(o.TotalAmount),
				Count:      1,
				Code:       domproduct.DefaultIKPU,
				Units:      receiptUnitPiece,
				VATPercent: 0,
				Package:    s.cfg.DefaultPackageCode,
			}},
		}, nil
	}

	items := make([]ReceiptItem, 0, len(o.Items))
	for _, it := range o.Items {
		ikpu := domproduct.DefaultIKPU
		pkg := s.cfg.DefaultPackageCode
		if it.ProductID != nil {
			if p, perr := s.products.Get(ctx, *it.ProductID); perr == nil {
				if p.IKPU != "" {
					ikpu = p.IKPU
				}
				if p.PackageCode != "" {
					pkg = p.PackageCode
				}
			}
		}
		items = append(items, ReceiptItem{
			Title:      it.ProductName,
			Price:      money.SumToTiyin(it.PriceAtPurchase),
			Count:      it.Quantity,
			Code:       ikpu,
			Units:      receiptUnitPiece,
			VATPercent: 0,
			Package:    pkg,
		})
	}
	return &ReceiptDetail{ReceiptType: 0, Items: items}, nil
}

// PerformTransaction implements §4.3.3.
func (s *Service) PerformTransaction(ctx context.Context, paymeID string) (res *Snapshot, rpcErr *dompayme.RPCError) {
	var paidOrder *domorder.Order

	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		t, ferr := s.txs.GetForUpdate(ctx, paymeID)
		if ferr != nil {
			rpcErr = dompayme.ErrTransactionNotFound
			return rpcErr
		}

		if t.State == dompayme.StatePerformed {
			snap := snapshotOf(t)
			res = &snap
			return nil
		}
		if t.State != dompayme.StateCreated {
			rpcErr = dompayme.ErrAlreadyDone
			return rpcErr
		}

		now := dompayme.NowMillis()
		if now-t.CreateTime > s.cfg.PaymentTimeout.Milliseconds() {
			reason := dompayme.ReasonTimeoutOrSuperseded
			t.State = dompayme.StateCancelled
			t.Reason = &reason
			t.CancelTime = &now
			if uerr := s.txs.Update(ctx, t); uerr != nil {
				return uerr
			}
			// nil lets the state=-1 update commit; rpcErr is reported after Atomic.
			rpcErr = dompayme.ErrAlreadyDone
			return nil
		}

		o, oerr := s.orders.GetForUpdate(ctx, t.OrderID)
		if oerr != nil {
			rpcErr = dompayme.ErrOrderNotFound
			return rpcErr
		}
		if o.PaymentMethod != domorder.PaymentCard || o.Status != domorder.StatusNew || o.IsExpired(s.cfg.PaymentTimeout, time.Now()) {
			rpcErr = dompayme.ErrOrderNotAvailable
			return rpcErr
		}

		if o.OrderType == domorder.TypeDebtRepayment {
			u, uerr := s.users.GetForUpdate(ctx, o.UserID)
			if uerr != nil {
				return uerr
			}
			if o.TotalAmount > u.Debt {
				if cerr := s.lifecycle.CancelOrder(ctx, o.ID); cerr != nil {
					return cerr
				}
				// nil lets the cancellation commit; rpcErr is reported after Atomic.
				rpcErr = dompayme.ErrAmount
				return nil
			}
		}

		t.State = dompayme.StatePerformed
		t.PerformTime = &now
		if uerr := s.txs.Update(ctx, t); uerr != nil {
			return uerr
		}

		if perr := o.Pay(domorder.PaymentCard); perr != nil {
			return perr
		}
		if o.OrderType == domorder.TypeDebtRepayment {
			if cerr := o.Complete(); cerr != nil {
				return cerr
			}
			u, uerr := s.users.GetForUpdate(ctx, o.UserID)
			if uerr != nil {
				return uerr
			}
			dec := o.TotalAmount
			if dec > u.Debt {
				dec = u.Debt
			}
			if derr := s.users.AddDebt(ctx, o.UserID, -dec); derr != nil {
				return derr
			}
		} else {
			if derr := s.drainCart(ctx, o); derr != nil {
				return derr
			}
		}
		if uerr := s.orders.Update(ctx, o); uerr != nil {
			return uerr
		}

		paidOrder = o
		snap := snapshotOf(t)
		res = &snap
		return nil
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err != nil {
		s.log.Error("perform_transaction_failed", observability.F("error", err.Error()))
		if errors.Is(err, txn.ErrLockTimeout) {
			return nil, dompayme.ErrOrderNotAvailable
		}
		return nil, dompayme.ErrTransactionNotFound
	}
	if s.publisher != nil && paidOrder != nil {
		if perr := s.publisher.Publish(ctx, domorder.NewPaidEvent(paidOrder)); perr != nil {
			s.log.Warn("event_publish_failed", observability.F("error", perr.Error()))
		}
	}
	return res, nil
}

// drainCart implements the multiset cart-drain described in §4.3.3/§4.4.2.
func (s *Service) drainCart(ctx context.Context, o *domorder.Order) error {
	ordered := make(map[int64]int)
	productIDs := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		if it.ProductID == nil {
			continue
		}
		if _, seen := ordered[*it.ProductID]; !seen {
			productIDs = append(productIDs, *it.ProductID)
		}
		ordered[*it.ProductID] += it.Quantity
	}
	if len(productIDs) == 0 {
		return nil
	}
	rows, err := s.carts.ListByUserAndProductsForUpdate(ctx, o.UserID, productIDs)
	if err != nil {
		return err
	}
	toDelete, toUpdate := domcart.Drain(ordered, rows)
	if len(toDelete) > 0 {
		if err := s.carts.DeleteByIDs(ctx, toDelete); err != nil {
			return err
		}
	}
	for id, qty := range toUpdate {
		if err := s.carts.UpdateQuantity(ctx, id, qty); err != nil {
			return err
		}
	}
	return nil
}

// CancelTransaction implements §4.3.4. Only the "refuse" variant of a
// post-perform cancel is implemented: a state=2 transaction cannot be
// cancelled through this path (see the design ledger's codified choice).
func (s *Service) CancelTransaction(ctx context.Context, paymeID string, reason int) (res *Snapshot, rpcErr *dompayme.RPCError) {
	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		t, ferr := s.txs.GetForUpdate(ctx, paymeID)
		if ferr != nil {
			rpcErr = dompayme.ErrTransactionNotFound
			return rpcErr
		}
		if t.State < 0 {
			snap := snapshotOf(t)
			res = &snap
			return nil
		}
		if t.State == dompayme.StatePerformed {
			rpcErr = dompayme.ErrCannotCancel
			return rpcErr
		}

		now := dompayme.NowMillis()
		t.State = dompayme.StateCancelled
		t.Reason = &reason
		t.CancelTime = &now
		if uerr := s.txs.Update(ctx, t); uerr != nil {
			return uerr
		}
		if cerr := s.lifecycle.CancelOrder(ctx, t.OrderID); cerr != nil {
			return cerr
		}
		snap := snapshotOf(t)
		res = &snap
		return nil
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err != nil {
		if errors.Is(err, txn.ErrLockTimeout) {
			return nil, dompayme.ErrOrderNotAvailable
		}
		return nil, dompayme.ErrTransactionNotFound
	}
	return res, nil
}

// CheckTransaction implements §4.3.5.
func (s *Service) CheckTransaction(ctx context.Context, paymeID string) (*Snapshot, *dompayme.RPCError) {
	t, err := s.txs.FindByPaymeID(ctx, paymeID)
	if err != nil {
		return nil, dompayme.ErrTransactionNotFound
	}
	snap := snapshotOf(t)
	return &snap, nil
}

// GetStatement implements §4.3.6.
func (s *Service) GetStatement(ctx context.Context, from, to int64) ([]StatementEntry, *dompayme.RPCError) {
	txs, err := s.txs.ListByTimeRange(ctx, from, to)
	if err != nil {
		return nil, dompayme.ErrTransactionNotFound
	}
	out := make([]StatementEntry, 0, len(txs))
	for i := range txs {
		t := &txs[i]
		out = append(out, StatementEntry{
			ID:          strconv.FormatInt(t.ID, 10),
			Time:        t.Time,
			Amount:      t.Amount,
			Account:     map[string]string{s.cfg.MerchantAccountField: strconv.FormatInt(t.OrderID, 10)},
			CreateTime:  t.CreateTime,
			PerformTime: t.PerformTime,
			CancelTime:  t.CancelTime,
			Transaction: t.PaymeID,
			State:       int(t.State),
			Reason:      t.Reason,
		})
	}
	return out, nil
}

func snapshotOf(t *dompayme.Transaction) Snapshot {
	return Snapshot{
		CreateTime:  t.CreateTime,
		PerformTime: t.PerformTime,
		CancelTime:  t.CancelTime,
		Transaction: t.PaymeID,
		State:       int(t.State),
		Reason:      t.Reason,
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
