package order_test

import (
	"testing"
	"time"

	"github.com/shopmini/paycore/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, method order.PaymentMethod) *order.Order {
	t.Helper()
	items := []order.Item{{ProductID: ptr(int64(1)), ProductName: "widget", PriceAtPurchase: 1000, Quantity: 2}}
	o, err := order.New(1, 42, items, method, order.DeliveryPickup, "+998901234567", "", "")
	require.NoError(t, err)
	return o
}

func ptr[T any](v T) *T { return &v }

func TestNew_RejectsEmptyItems(t *testing.T) {
	_, err := order.New(1, 42, nil, order.PaymentCash, order.DeliveryPickup, "+998901234567", "", "")
	assert.ErrorIs(t, err, order.ErrNoItems)
}

func TestNew_RejectsZeroQuantity(t *testing.T) {
	items := []order.Item{{ProductID: ptr(int64(1)), PriceAtPurchase: 1000, Quantity: 0}}
	_, err := order.New(1, 42, items, order.PaymentCash, order.DeliveryPickup, "+998901234567", "", "")
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)
}

func TestNew_ComputesTotalFromItems(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	assert.Equal(t, int64(2000), o.TotalAmount)
	assert.Equal(t, order.StatusNew, o.Status)
}

func TestLifecycle_HappyPath(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)

	require.NoError(t, o.Pay(order.PaymentCash))
	assert.Equal(t, order.StatusPaid, o.Status)

	require.NoError(t, o.Deliver())
	assert.Equal(t, order.StatusDelivery, o.Status)

	require.NoError(t, o.Complete())
	assert.Equal(t, order.StatusDone, o.Status)
}

func TestLifecycle_CancelAllowedFromNewNotFromDone(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	require.NoError(t, o.Cancel())
	assert.Equal(t, order.StatusCancelled, o.Status)

	o2 := newTestOrder(t, order.PaymentCash)
	require.NoError(t, o2.Pay(order.PaymentCash))
	require.NoError(t, o2.Deliver())
	require.NoError(t, o2.Complete())
	assert.ErrorIs(t, o2.Cancel(), order.ErrInvalidTransition)
}

func TestLifecycle_CancelledIsTerminalForCancelItself(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	require.NoError(t, o.Cancel())
	// cancelling an already-cancelled order is a no-op success, not an error
	require.NoError(t, o.Cancel())
}

func TestLifecycle_DoublePayRejected(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	require.NoError(t, o.Pay(order.PaymentCash))
	assert.ErrorIs(t, o.Pay(order.PaymentCash), order.ErrInvalidTransition)
}

func TestIsExpired(t *testing.T) {
	o := newTestOrder(t, order.PaymentCard)
	o.CreatedAt = o.CreatedAt.Add(-21 * time.Minute)
	assert.True(t, o.IsExpired(20*time.Minute, time.Now()))
}

func TestIsExpired_CashNeverExpires(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	o.CreatedAt = o.CreatedAt.Add(-21 * time.Minute)
	assert.False(t, o.IsExpired(20*time.Minute, time.Now()))
}

func TestClone_IsIndependentOfSource(t *testing.T) {
	o := newTestOrder(t, order.PaymentCash)
	clone := o.Clone()
	clone.Items[0].Quantity = 99
	assert.NotEqual(t, clone.Items[0].Quantity, o.Items[0].Quantity)
}
