package click

import (
	"time"

	domorder "github.com/shopmini/paycore/internal/domain/order"
)

// ConfirmedEvent is published after Complete commits a newly confirmed
// transaction, decoupling the fiscal-receipt dispatch (an outbound HTTP
// call) from the callback's own response (§4.4.2, §4.4.3): the provider
// gets its `error: 0` answer without waiting on Click's OFD endpoint.
type ConfirmedEvent struct {
	ClickTransID int64
	Order        *domorder.Order
	OccurredAt   time.Time
}

func (ConfirmedEvent) EventName() string { return "click.confirmed" }

func NewConfirmedEvent(clickTransID int64, o *domorder.Order) ConfirmedEvent {
	return ConfirmedEvent{ClickTransID: clickTransID, Order: o, OccurredAt: time.Now().UTC()}
}
