// Package outbox implements the outbox.Bus port as a bounded worker pool fed
// by a channel, per the "Coroutine fire-and-forget for notifications"
// redesign note: Publish enqueues and returns immediately; handler failures
// are logged only and never propagate back to the publisher or its
// transaction.
package outbox

import (
	"context"
	"sync"

	domoutbox "github.com/shopmini/paycore/internal/domain/outbox"
	"github.com/shopmini/paycore/internal/observability"
)

type job struct {
	ctx context.Context
	evt domoutbox.Event
}

type Bus struct {
	log     observability.Logger
	queue   chan job
	mu      sync.RWMutex
	handlers map[string][]domoutbox.Handler
	wg      sync.WaitGroup
}

// New starts a bus with `workers` goroutines draining a queue of `buffer`
// capacity. Stop drains in-flight jobs and returns once every worker exits.
func New(workers, buffer int, log observability.Logger) *Bus {
	if log == nil {
		log = observability.NopLogger()
	}
	b := &Bus{
		log:      log,
		queue:    make(chan job, buffer),
		handlers: make(map[string][]domoutbox.Handler),
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for j := range b.queue {
		b.dispatch(j)
	}
}

func (b *Bus) dispatch(j job) {
	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.handlers[j.evt.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(j.ctx, j.evt); err != nil {
			b.log.Error("outbox_handler_failed",
				observability.F("event", j.evt.EventName()),
				observability.F("error", err.Error()),
			)
		}
	}
}

// Publish enqueues the event and returns immediately. If the queue is full
// the event is dropped and logged rather than blocking the caller's commit
// path indefinitely.
func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	select {
	case b.queue <- job{ctx: context.WithoutCancel(ctx), evt: e}:
		return nil
	default:
		b.log.Warn("outbox_queue_full", observability.F("event", e.EventName()))
		return nil
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], h)
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (b *Bus) Stop() {
	close(b.queue)
	b.wg.Wait()
}
