// Package notify subscribes to the order lifecycle's outbox events and
// turns them into Notifier messages, decoupling the financial transition
// (commit) from the Telegram round-trip that reports it to the user.
package notify

import (
	"context"
	"fmt"

	domorder "github.com/shopmini/paycore/internal/domain/order"
	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	"github.com/shopmini/paycore/internal/observability"
)

// Notifier is the fire-and-forget port to the Telegram bot UI.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

// Worker wires the three order events this core emits to a message in the
// user's language-of-record; today always Russian, matching the provider
// error messages (§4.3).
type Worker struct {
	notifier Notifier
	log      observability.Logger
}

func NewWorker(notifier Notifier, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{notifier: notifier, log: tel.Logger().With(observability.F("component", "notify-worker"))}
}

// Register subscribes the worker's handlers on sub for every event this
// core publishes. Call once at startup after the bus is constructed.
func (w *Worker) Register(sub domoutbox.Subscriber) {
	sub.Subscribe("order.created", w.handleCreated)
	sub.Subscribe("order.paid", w.handlePaid)
	sub.Subscribe("order.cancelled", w.handleCancelled)
}

func (w *Worker) handleCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.CreatedEvent)
	if !ok {
		return nil
	}
	return w.send(ctx, evt.UserID, fmt.Sprintf("Ваш заказ №%d оформлен и принят в обработку.", evt.OrderID))
}

func (w *Worker) handlePaid(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.PaidEvent)
	if !ok {
		return nil
	}
	return w.send(ctx, evt.UserID, fmt.Sprintf("Оплата по заказу №%d получена.", evt.OrderID))
}

func (w *Worker) handleCancelled(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.CancelledEvent)
	if !ok {
		return nil
	}
	return w.send(ctx, evt.UserID, fmt.Sprintf("Заказ №%d отменён.", evt.OrderID))
}

func (w *Worker) send(ctx context.Context, userID int64, message string) error {
	if w.notifier == nil || userID == 0 {
		return nil
	}
	if err := w.notifier.Notify(ctx, userID, message); err != nil {
		w.log.Warn("notify_send_failed", observability.F("user_id", userID), observability.F("error", err.Error()))
		return err
	}
	return nil
}
