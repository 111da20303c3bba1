// Package order models the order lifecycle: creation, payment confirmation,
// delivery, completion, and compensating cancellation.
package order

import "time"

type Status string

const (
	StatusNew       Status = "new"
	StatusPaid      Status = "paid"
	StatusDelivery  Status = "delivery"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

type Type string

const (
	TypeProduct       Type = "product"
	TypeDebtRepayment Type = "debt_repayment"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentClick PaymentMethod = "click"
)

// IsOnline reports whether the method routes through a provider (and is
// therefore subject to the payment timeout / zombie-order reaping).
func (m PaymentMethod) IsOnline() bool {
	return m == PaymentCard || m == PaymentClick
}

type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Order is the aggregate root for one checkout. Items and their
// provider-transaction lifetimes are owned exclusively by the order.
type Order struct {
	ID            int64
	UserID        int64
	Status        Status
	OrderType     Type
	PaymentMethod PaymentMethod
	Delivery      DeliveryMethod
	TotalAmount   int64 // sum, not tiyin
	ContactPhone  string
	Address       string
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []Item

	state orderState
}

// Item is a point-in-time snapshot of a purchased product: name and price
// are copied at order-creation time so a later product edit or soft delete
// never rewrites history.
type Item struct {
	ID               int64
	OrderID          int64
	ProductID        *int64 // nil once the source product has been hard-deleted
	ProductName      string
	PriceAtPurchase  int64
	Quantity         int
	StockBeforeOrder *int // diagnostic snapshot only; no operation below reads it
}

// New constructs a product order in status=new. Debt-repayment orders, which
// carry no items, are constructed by NewDebtRepayment.
func New(id, userID int64, items []Item, method PaymentMethod, delivery DeliveryMethod, phone, address, comment string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	var total int64
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += it.PriceAtPurchase * int64(it.Quantity)
	}
	if total <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	o := &Order{
		ID:            id,
		UserID:        userID,
		Status:        StatusNew,
		OrderType:     TypeProduct,
		PaymentMethod: method,
		Delivery:      delivery,
		TotalAmount:   total,
		ContactPhone:  phone,
		Address:       address,
		Comment:       comment,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}
	o.ensureState()
	return o, nil
}

// NewDebtRepayment constructs a debt-repayment order, which carries no items.
func NewDebtRepayment(id, userID int64, amount int64, phone string) (*Order, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	o := &Order{
		ID:            id,
		UserID:        userID,
		Status:        StatusNew,
		OrderType:     TypeDebtRepayment,
		PaymentMethod: PaymentCard,
		TotalAmount:   amount,
		ContactPhone:  phone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.ensureState()
	return o, nil
}

func (o *Order) IsExpired(timeout time.Duration, now time.Time) bool {
	return o.Status == StatusNew && o.PaymentMethod.IsOnline() && o.CreatedAt.Before(now.Add(-timeout))
}

func (o *Order) Pay(method PaymentMethod) error {
	o.ensureState()
	next, err := o.state.OnPay(o, method)
	return o.transition(next, err)
}

func (o *Order) Deliver() error {
	o.ensureState()
	next, err := o.state.OnDeliver(o)
	return o.transition(next, err)
}

func (o *Order) Complete() error {
	o.ensureState()
	next, err := o.state.OnComplete(o)
	return o.transition(next, err)
}

func (o *Order) Cancel() error {
	o.ensureState()
	next, err := o.state.OnCancel(o)
	return o.transition(next, err)
}

func (o *Order) transition(next orderState, err error) error {
	if err != nil {
		return err
	}
	if next == nil {
		return ErrInvalidTransition
	}
	o.state = next
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) ensureState() {
	if o.state != nil {
		return
	}
	o.state = stateFor(o.Status)
}

func (o *Order) touch() { o.UpdatedAt = time.Now().UTC() }

// Clone returns a deep-enough copy safe to hand to a caller across a
// repository boundary (items slice is copied; the internal state pointer is
// recomputed lazily).
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.state = nil
	clone.Items = append([]Item(nil), o.Items...)
	clone.ensureState()
	return &clone
}
