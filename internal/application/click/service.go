// Package click implements Click's two-phase prepare/complete callback
// protocol (§4.4): signature verification, order preconditions, cart drain
// on confirmation, and a post-commit event that triggers asynchronous
// fiscal-receipt dispatch (consumed by internal/application/fiscal).
package click

import (
	"context"
	"strconv"
	"time"

	domcart "github.com/shopmini/paycore/internal/domain/cart"
	domclick "github.com/shopmini/paycore/internal/domain/click"
	"github.com/shopmini/paycore/internal/domain/money"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/application/txn"
	"github.com/shopmini/paycore/internal/observability"
)

type Config struct {
	ServiceID      string
	SecretKey      string
	PaymentTimeout time.Duration
}

type Deps struct {
	Transactions   domclick.Repository
	Orders         domorder.Repository
	Users          domuser.Repository
	Carts          domcart.Repository
	UnitOfWork     txn.UnitOfWork
	OrderLifecycle OrderCanceller
	Publisher      domoutbox.Publisher
	Config         Config
	Observability  observability.Observability
}

type Service struct {
	txs       domclick.Repository
	orders    domorder.Repository
	users     domuser.Repository
	carts     domcart.Repository
	uow       txn.UnitOfWork
	lifecycle OrderCanceller
	publisher domoutbox.Publisher
	cfg       Config

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
		uow:       d.UnitOfWork,
		lifecycle: d.OrderLifecycle,
		publisher: d.Publisher,
		cfg:       d.Config,
		tel:       tel,
		log:       tel.Logger().With(observability.F("component", "click-service")),
	}
}

// Response is the JSON envelope every Click callback returns (§6).
type Response struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID int64  `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

func errResponse(req CallbackRequest, e *domclick.CallbackError) *Response {
	return &Response{
		ClickTransID:    req.ClickTransID,
		MerchantTransID: req.MerchantTransID,
		Error:           int(e.Code),
		ErrorNote:       e.Note,
	}
}

func (s *Service) parseOrderID(req CallbackRequest) (int64, *domclick.CallbackError) {
	id, err := strconv.ParseInt(req.MerchantTransID, 10, 64)
	if err != nil || id <= 0 {
		return 0, domclick.ErrOrderMissing
	}
	return id, nil
}

func (s *Service) parseAmount(req CallbackRequest) (int64, *domclick.CallbackError) {
	amount, err := money.ParseInt(req.Amount)
	if err != nil {
		return 0, domclick.ErrAmount
	}
	return amount, nil
}

// Prepare implements §4.4.1.
func (s *Service) Prepare(ctx context.Context, req CallbackRequest) *Response {
	if !verifySign(req, s.cfg.SecretKey) {
		return errResponse(req, domclick.ErrSignFailed)
	}
	if req.Action != int(domclick.ActionPrepare) {
		return errResponse(req, domclick.ErrAction)
	}
	amount, aerr := s.parseAmount(req)
	if aerr != nil {
		return errResponse(req, aerr)
	}
	orderID, oerr := s.parseOrderID(req)
	if oerr != nil {
		return errResponse(req, oerr)
	}

	var result *Response
	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		o, ferr := s.orders.GetForUpdate(ctx, orderID)
		if ferr != nil {
			result = errResponse(req, domclick.ErrOrderMissing)
			return nil
		}
		if o.IsExpired(s.cfg.PaymentTimeout, time.Now()) {
			if _, cerr := s.lifecycle.CancelExpiredOnlineOrder(ctx, o.ID); cerr != nil {
				return cerr
			}
			result = errResponse(req, domclick.ErrCancelled)
			return nil
		}
		if amount != o.TotalAmount {
			result = errResponse(req, domclick.ErrAmount)
			return nil
		}
		switch o.Status {
		case domorder.StatusNew:
			result = &Response{ClickTransID: req.ClickTransID, MerchantTransID: req.MerchantTransID, MerchantPrepareID: orderID, Error: 0}
		case domorder.StatusCancelled:
			result = errResponse(req, domclick.ErrCancelled)
		default:
			result = errResponse(req, domclick.ErrAlreadyPaid)
		}
		return nil
	})
	if err != nil {
		s.log.Error("click_prepare_failed", observability.F("error", err.Error()))
		return errResponse(req, domclick.ErrOrderMissing)
	}
	return result
}

// Complete implements §4.4.2.
func (s *Service) Complete(ctx context.Context, req CallbackRequest) *Response {
	if !verifySign(req, s.cfg.SecretKey) {
		return errResponse(req, domclick.ErrSignFailed)
	}
	if req.Action != int(domclick.ActionComplete) {
		return errResponse(req, domclick.ErrAction)
	}
	amount, aerr := s.parseAmount(req)
	if aerr != nil {
		return errResponse(req, aerr)
	}
	orderID, oerr := s.parseOrderID(req)
	if oerr != nil {
		return errResponse(req, oerr)
	}

	var result *Response
	var dispatchOrder *domorder.Order

	err := s.uow.Atomic(ctx, func(ctx context.Context) error {
		o, ferr := s.orders.GetForUpdate(ctx, orderID)
		if ferr != nil {
			result = errResponse(req, domclick.ErrOrderMissing)
			return nil
		}

		if req.Error < 0 {
			if o.Status != domorder.StatusCancelled {
				if cerr := s.lifecycle.CancelOrder(ctx, o.ID); cerr != nil {
					return cerr
				}
			}
			result = &Response{ClickTransID: req.ClickTransID, MerchantTransID: req.MerchantTransID, MerchantConfirmID: orderID, Error: 0}
			return nil
		}

		if confirmed, cerr := s.txs.FindConfirmedByClickTransID(ctx, req.ClickTransID); cerr == nil && confirmed != nil {
			result = &Response{ClickTransID: req.ClickTransID, MerchantTransID: req.MerchantTransID, MerchantConfirmID: orderID, Error: 0}
			return nil
		}

		if o.IsExpired(s.cfg.PaymentTimeout, time.Now()) {
			if _, xerr := s.lifecycle.CancelExpiredOnlineOrder(ctx, o.ID); xerr != nil {
				return xerr
			}
			result = errResponse(req, domclick.ErrCancelled)
			return nil
		}
		if amount != o.TotalAmount {
			result = errResponse(req, domclick.ErrAmount)
			return nil
		}

		if o.OrderType == domorder.TypeDebtRepayment {
			u, uerr := s.users.GetForUpdate(ctx, o.UserID)
			if uerr != nil {
				return uerr
			}
			if o.TotalAmount > u.Debt {
				result = errResponse(req, domclick.ErrAmount)
				return nil
			}
		}

		switch o.Status {
		case domorder.StatusCancelled:
			result = errResponse(req, domclick.ErrCancelled)
			return nil
		case domorder.StatusNew:
			if perr := o.Pay(domorder.PaymentClick); perr != nil {
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

			now := time.Now().UTC()
			ct := &domclick.Transaction{
				ClickTransID:    req.ClickTransID,
				MerchantTransID: req.MerchantTransID,
				Amount:          amount,
				Action:          domclick.ActionComplete,
				Status:          domclick.StatusConfirmed,
				SignTime:        now,
				SignString:      req.SignString,
			}
			if ierr := s.txs.Insert(ctx, ct); ierr != nil {
				return ierr
			}

			dispatchOrder = o
			result = &Response{ClickTransID: req.ClickTransID, MerchantTransID: req.MerchantTransID, MerchantConfirmID: orderID, Error: 0}
		default:
			result = errResponse(req, domclick.ErrAlreadyPaid)
		}
		return nil
	})
	if err != nil {
		s.log.Error("click_complete_failed", observability.F("error", err.Error()))
		return errResponse(req, domclick.ErrOrderMissing)
	}

	if dispatchOrder != nil && s.publisher != nil {
		if perr := s.publisher.Publish(ctx, domorder.NewPaidEvent(dispatchOrder)); perr != nil {
			s.log.Warn("event_publish_failed", observability.F("error", perr.Error()))
		}
		// Fiscal dispatch is asynchronous (§4.4.3): publish rather than call
		// the OFD client inline, so the provider's response never waits on
		// that outbound HTTP round-trip.
		if perr := s.publisher.Publish(ctx, domclick.NewConfirmedEvent(req.ClickTransID, dispatchOrder)); perr != nil {
			s.log.Warn("event_publish_failed", observability.F("error", perr.Error()))
		}
	}
	return result
}

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
