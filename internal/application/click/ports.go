package click

import "context"

// OrderCanceller is the slice of OrderService ClickService needs.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID int64) error
	CancelExpiredOnlineOrder(ctx context.Context, orderID int64) (bool, error)
}
