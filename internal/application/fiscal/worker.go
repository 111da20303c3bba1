// Package fiscal subscribes to the order lifecycle's outbox events and
// dispatches confirmed Click payments to the out-of-band OFD receipt
// endpoint, decoupling that outbound HTTP call from Complete's own
// provider-facing response (§4.4.3).
package fiscal

import (
	"context"

	domclick "github.com/shopmini/paycore/internal/domain/click"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	"github.com/shopmini/paycore/internal/observability"
)

// Submitter is the out-of-band OFD receipt-submission port (§4.4.3).
// Dispatch is fire-and-forget: failures are logged, never surfaced to the
// provider whose callback already committed and responded.
type Submitter interface {
	SubmitItems(ctx context.Context, clickTransID int64, o *domorder.Order) error
}

// Worker wires ClickService's ConfirmedEvent to the fiscal submitter.
type Worker struct {
	submitter Submitter
	log       observability.Logger
}

func NewWorker(submitter Submitter, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{submitter: submitter, log: tel.Logger().With(observability.F("component", "fiscal-worker"))}
}

// Register subscribes the worker's handler on sub. Call once at startup
// after the bus is constructed.
func (w *Worker) Register(sub domoutbox.Subscriber) {
	sub.Subscribe("click.confirmed", w.handleConfirmed)
}

func (w *Worker) handleConfirmed(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domclick.ConfirmedEvent)
	if !ok || evt.Order == nil {
		return nil
	}
	if err := w.submitter.SubmitItems(ctx, evt.ClickTransID, evt.Order); err != nil {
		w.log.Warn("fiscal_dispatch_failed",
			observability.F("click_trans_id", evt.ClickTransID),
			observability.F("order_id", evt.Order.ID),
			observability.F("error", err.Error()),
		)
		return err
	}
	return nil
}
