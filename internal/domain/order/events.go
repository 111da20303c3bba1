package order

import "time"

// CreatedEvent is published after a cash order commits, for the notify
// worker to enqueue a confirmation message (ported from the original
// asyncio.create_task Telegram notify on cash order creation).
type CreatedEvent struct {
	OrderID    int64
	UserID     int64
	OccurredAt time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{OrderID: o.ID, UserID: o.UserID, OccurredAt: time.Now().UTC()}
}

// PaidEvent is published post-commit by both PaymeService.PerformTransaction
// and ClickService.Complete, feeding the notify worker.
type PaidEvent struct {
	OrderID    int64
	UserID     int64
	Method     PaymentMethod
	OccurredAt time.Time
}

func (PaidEvent) EventName() string { return "order.paid" }

func NewPaidEvent(o *Order) PaidEvent {
	return PaidEvent{OrderID: o.ID, UserID: o.UserID, Method: o.PaymentMethod, OccurredAt: time.Now().UTC()}
}

// CancelledEvent is published whenever CancelOrder runs to completion.
type CancelledEvent struct {
	OrderID    int64
	UserID     int64
	OccurredAt time.Time
}

func (CancelledEvent) EventName() string { return "order.cancelled" }

func NewCancelledEvent(o *Order) CancelledEvent {
	return CancelledEvent{OrderID: o.ID, UserID: o.UserID, OccurredAt: time.Now().UTC()}
}
