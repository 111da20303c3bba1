// Package order implements the order lifecycle manager (§4.2): creation
// under stock/debt invariants, expiry-driven cancellation of abandoned
// online orders, and compensating cancel with stock/debt reversal.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domcart "github.com/shopmini/paycore/internal/domain/cart"
	"github.com/shopmini/paycore/internal/domain/money"
	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/application/txn"
	"github.com/shopmini/paycore/internal/observability"
	"github.com/shopmini/paycore/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentService      = "order-service"
	spanPrefix            = "UC."
	useCaseCreateOrder    = "order.create"
	useCaseCancelExpired  = "order.cancel_expired"
	useCaseCancelOrder    = "order.cancel"
	pickupAddressDefault  = "Самовывоз: Чиланзар, 1"
	minPhoneDigits        = 9
)

// Service implements the order lifecycle manager.
type Service struct {
	orders   domorder.Repository
	products domproduct.Repository
	carts    domcart.Repository
	users    domuser.Repository
	uow      txn.UnitOfWork
	publisher domoutbox.Publisher

	paymentTimeout time.Duration
	pickupAddress  string
	urls           PayURLConfig

	tel          observability.Observability
	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

// Deps bundles Service's constructor dependencies to keep NewService's
// signature from growing unbounded as more ports are added.
type Deps struct {
	Orders         domorder.Repository
	Products       domproduct.Repository
	Carts          domcart.Repository
	Users          domuser.Repository
	UnitOfWork     txn.UnitOfWork
	Publisher      domoutbox.Publisher
	PaymentTimeout time.Duration
	PickupAddress  string
	URLs           PayURLConfig
	Observability  observability.Observability
}

func NewService(d Deps) *Service {
	tel := d.Observability
	if tel == nil {
		tel = observability.Nop()
	}
	pickup := d.PickupAddress
	if pickup == "" {
		pickup = pickupAddressDefault
	}
	return &Service{
		orders:         d.Orders,
		products:       d.Products,
		carts:          d.Carts,
		users:          d.Users,
		uow:            d.UnitOfWork,
		publisher:      d.Publisher,
		paymentTimeout: d.PaymentTimeout,
		pickupAddress:  pickup,
		urls:           d.URLs,
		tel:            tel,
		log:            tel.Logger().With(observability.F("component", componentService)),
		reqCounter:     tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram:   tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type CreateOrderInput struct {
	ItemIDs        []int64
	DeliveryMethod domorder.DeliveryMethod
	PaymentMethod  domorder.PaymentMethod
	Phone          string
	Address        string
	Comment        string
}

type CreateOrderResult struct {
	OrderID int64
	Status  string // "success" (cash) or "redirect"
	PayURL  string
}

// CreateOrder implements §4.2's algorithm in a single transaction.
func (s *Service) CreateOrder(ctx context.Context, u *domuser.User, in CreateOrderInput) (res *CreateOrderResult, err error) {
	ctx, logger, finish := s.startUseCase(ctx, useCaseCreateOrder,
		attribute.Int64("user.id", u.ID),
	)
	defer func() { finish(&err) }()

	phone, ok := normalizePhone(in.Phone)
	if !ok {
		return nil, domorder.ErrInvalidPhone
	}
	if u.Debt != 0 {
		return nil, domorder.ErrHasDebt
	}
	address := in.Address
	switch in.DeliveryMethod {
	case domorder.DeliveryDelivery:
		if strings.TrimSpace(address) == "" {
			return nil, fmt.Errorf("%w: address required for delivery", domorder.ErrInvalidItems)
		}
	case domorder.DeliveryPickup:
		address = s.pickupAddress
	}

	var createdCash *domorder.Order
	err = s.uow.Atomic(ctx, func(ctx context.Context) error {
		if cancelled, cerr := s.cancelPendingIfExpired(ctx, u.ID); cerr != nil {
			return cerr
		} else if !cancelled {
			if _, ferr := s.orders.FindPendingOnline(ctx, u.ID); ferr == nil {
				return domorder.ErrPendingOnline
			} else if !errors.Is(ferr, domorder.ErrNotFound) {
				return ferr
			}
		}

		cartRows, cerr := s.carts.ListByUserAndIDs(ctx, u.ID, in.ItemIDs)
		if cerr != nil {
			return cerr
		}
		if len(cartRows) != len(in.ItemIDs) {
			return domorder.ErrInvalidItems
		}

		items := make([]domorder.Item, 0, len(cartRows))
		for _, row := range cartRows {
			p, perr := s.products.Get(ctx, row.ProductID)
			if perr != nil {
				if errors.Is(perr, domproduct.ErrNotFound) {
					return domorder.ErrProductUnavailable
				}
				return perr
			}
			if !p.IsActive {
				return domorder.ErrProductUnavailable
			}

			ok, derr := s.products.TryDecrementStock(ctx, p.ID, row.Quantity)
			if derr != nil {
				return derr
			}
			if !ok {
				current, _ := s.products.Get(ctx, p.ID)
				stock := 0
				if current != nil {
					stock = current.Stock
				}
				return fmt.Errorf("%w: product %d has %d in stock", domorder.ErrInsufficientStock, p.ID, stock)
			}

			stockBefore := p.Stock
			productID := p.ID
			items = append(items, domorder.Item{
				ProductID:        &productID,
				ProductName:      p.Name,
				PriceAtPurchase:  p.Price,
				Quantity:         row.Quantity,
				StockBeforeOrder: &stockBefore,
			})
		}

		newOrder, derr := domorder.New(0, u.ID, items, in.PaymentMethod, in.DeliveryMethod, phone, address, in.Comment)
		if derr != nil {
			return derr
		}
		if ierr := s.orders.Insert(ctx, newOrder); ierr != nil {
			return ierr
		}

		if in.PaymentMethod == domorder.PaymentCash {
			if derr := s.carts.DeleteByIDs(ctx, in.ItemIDs); derr != nil {
				return derr
			}
			createdCash = newOrder
		}

		res = &CreateOrderResult{OrderID: newOrder.ID}
		switch in.PaymentMethod {
		case domorder.PaymentCard:
			res.Status = "redirect"
			res.PayURL = s.urls.BuildPaymeURL(newOrder.ID, money.SumToTiyin(newOrder.TotalAmount))
		case domorder.PaymentClick:
			res.Status = "redirect"
			res.PayURL = s.urls.BuildClickURL(newOrder.ID, newOrder.TotalAmount)
		default:
			res.Status = "success"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if createdCash != nil {
		s.publishBestEffort(ctx, domorder.NewCreatedEvent(createdCash))
	}
	logger.Info("order_created", observability.F("order_id", orderIDOrZero(res)))
	return res, nil
}

// cancelPendingIfExpired cancels the user's pending online order if one
// exists and has expired, and reports whether it did so. It must run
// within an already-open transaction (called from CreateOrder's Atomic).
func (s *Service) cancelPendingIfExpired(ctx context.Context, userID int64) (bool, error) {
	existing, err := s.orders.FindPendingOnline(ctx, userID)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	locked, err := s.orders.GetForUpdate(ctx, existing.ID)
	if err != nil {
		return false, err
	}
	if !locked.IsExpired(s.paymentTimeout, time.Now()) {
		return false, nil
	}
	if err := s.cancelOrderLocked(ctx, locked); err != nil {
		return false, err
	}
	return true, nil
}

// CancelExpiredOnlineOrder cancels orderID if, and only if, it is still
// status=new, online, and past the payment timeout. Safe to call whether or
// not the caller already holds an open transaction on ctx.
func (s *Service) CancelExpiredOnlineOrder(ctx context.Context, orderID int64) (cancelled bool, err error) {
	ctx, _, finish := s.startUseCase(ctx, useCaseCancelExpired, attribute.Int64("order.id", orderID))
	defer func() { finish(&err) }()

	err = s.uow.Atomic(ctx, func(ctx context.Context) error {
		o, ferr := s.orders.GetForUpdate(ctx, orderID)
		if ferr != nil {
			return ferr
		}
		if !o.IsExpired(s.paymentTimeout, time.Now()) {
			return nil
		}
		cancelled = true
		return s.cancelOrderLocked(ctx, o)
	})
	return cancelled, err
}

// CancelOrder is the compensating cancel (§4.2): idempotent, restores stock
// and/or debt depending on order type and prior status.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (err error) {
	ctx, _, finish := s.startUseCase(ctx, useCaseCancelOrder, attribute.Int64("order.id", orderID))
	defer func() { finish(&err) }()

	return s.uow.Atomic(ctx, func(ctx context.Context) error {
		o, ferr := s.orders.GetForUpdate(ctx, orderID)
		if ferr != nil {
			return ferr
		}
		return s.cancelOrderLocked(ctx, o)
	})
}

func (s *Service) cancelOrderLocked(ctx context.Context, o *domorder.Order) error {
	if o.Status == domorder.StatusCancelled {
		return nil
	}
	prevStatus := o.Status

	if o.OrderType == domorder.TypeProduct {
		for _, it := range o.Items {
			if it.ProductID == nil {
				continue
			}
			if err := s.products.IncrementStock(ctx, *it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
	} else if o.OrderType == domorder.TypeDebtRepayment && (prevStatus == domorder.StatusPaid || prevStatus == domorder.StatusDone) {
		if err := s.users.AddDebt(ctx, o.UserID, o.TotalAmount); err != nil {
			return err
		}
	}

	if err := o.Cancel(); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	s.publishBestEffort(ctx, domorder.NewCancelledEvent(o))
	return nil
}

func (s *Service) publishBestEffort(ctx context.Context, evt domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("event_publish_failed", observability.F("event", evt.EventName()), observability.F("error", err.Error()))
	}
}

func (s *Service) startUseCase(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, observability.Logger, func(errp *error)) {
	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+useCase, append(attrs, attribute.String("use_case", useCase))...)
	start := time.Now()
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))

	return ctx, logger, func(errp *error) {
		lat := time.Since(start).Seconds()
		outcome := "success"
		if errp != nil && *errp != nil {
			outcome = "error"
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		s.reqCounter.Add(1, observability.L("use_case", useCase), observability.L("outcome", outcome))
		s.durHistogram.Observe(lat, observability.L("use_case", useCase))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		}
		if errp != nil && *errp != nil {
			fields = append(fields, observability.F("error", (*errp).Error()))
		}
		logger.Info("use_case_done", fields...)
	}
}

func normalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	return digits, len(digits) >= minPhoneDigits
}

func orderIDOrZero(r *CreateOrderResult) int64 {
	if r == nil {
		return 0
	}
	return r.OrderID
}
