package payme

import "context"

// OrderCanceller is the slice of OrderService that PaymeService needs:
// compensating cancel plus expiry-driven cancel, without a full import of
// the order package's public surface.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID int64) error
	CancelExpiredOnlineOrder(ctx context.Context, orderID int64) (bool, error)
}
