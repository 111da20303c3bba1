package payme_test

import (
	"context"
	"testing"
	"time"

	apporder "github.com/shopmini/paycore/internal/application/order"
	apppayme "github.com/shopmini/paycore/internal/application/payme"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	dompayme "github.com/shopmini/paycore/internal/domain/payme"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	payme    *apppayme.Service
	orderSvc *apporder.Service
	orders   *memory.OrderRepo
	products *memory.ProductRepo
	carts    *memory.CartRepo
	users    *memory.UserRepo
	txs      *memory.PaymeRepo
}

const testTimeout = 20 * time.Minute

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := memory.NewOrderRepo()
	products := memory.NewProductRepo()
	carts := memory.NewCartRepo()
	users := memory.NewUserRepo()
	txs := memory.NewPaymeRepo()
	uow := memory.NewUnitOfWork()

	orderSvc := apporder.NewService(apporder.Deps{
		Orders:         orders,
		Products:       products,
		Carts:          carts,
		Users:          users,
		UnitOfWork:     uow,
		PaymentTimeout: testTimeout,
	})

	paymeSvc := apppayme.NewService(apppayme.Deps{
		Transactions:   txs,
		Orders:         orders,
		Users:          users,
		Carts:          carts,
		Products:       products,
		UnitOfWork:     uow,
		OrderLifecycle: orderSvc,
		Config: apppayme.Config{
			MerchantAccountField: "order_id",
			PaymentTimeout:       testTimeout,
			FutureSkew:           60 * time.Second,
			DefaultPackageCode:   "000000",
		},
	})

	return &fixture{payme: paymeSvc, orderSvc: orderSvc, orders: orders, products: products, carts: carts, users: users, txs: txs}
}

func (f *fixture) seedUser(t *testing.T, id int64) *domuser.User {
	t.Helper()
	u := &domuser.User{ID: id, Language: domuser.LanguageRU, Role: domuser.RoleUser}
	f.users.Seed(u)
	return u
}

func (f *fixture) createCardOrder(t *testing.T, u *domuser.User, price int64, qty int) int64 {
	t.Helper()
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: price, Stock: 10, IsActive: true})
	row := f.carts.Seed(u.ID, 10, qty)
	res, err := f.orderSvc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCard,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)
	return res.OrderID
}

func accountFor(orderID int64) map[string]string {
	return map[string]string{"order_id": itoa(orderID)}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

// S2: CreateTransaction inserts a row once, and replays identically on retry.
func TestCreateTransaction_IdempotentOnDuplicateRequest(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	now := dompayme.NowMillis()
	res1, rerr := f.payme.CreateTransaction(context.Background(), "T1", now, 1500000, accountFor(orderID))
	require.Nil(t, rerr)
	require.NotNil(t, res1)
	assert.Equal(t, int(dompayme.StateCreated), res1.State)

	res2, rerr2 := f.payme.CreateTransaction(context.Background(), "T1", now, 1500000, accountFor(orderID))
	require.Nil(t, rerr2)
	assert.Equal(t, res1.Transaction, res2.Transaction)
	assert.Equal(t, res1.CreateTime, res2.CreateTime)
}

// S3: PerformTransaction marks the order paid and drains the cart.
func TestPerformTransaction_PaysOrderAndDrainsCart(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	now := dompayme.NowMillis()
	_, rerr := f.payme.CreateTransaction(context.Background(), "T1", now, 1500000, accountFor(orderID))
	require.Nil(t, rerr)

	snap, rerr := f.payme.PerformTransaction(context.Background(), "T1")
	require.Nil(t, rerr)
	assert.Equal(t, int(dompayme.StatePerformed), snap.State)

	o, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, o.Status)
}

// S4: a performed transaction refuses CancelTransaction.
func TestCancelTransaction_RefusesAfterPerform(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	now := dompayme.NowMillis()
	_, rerr := f.payme.CreateTransaction(context.Background(), "T1", now, 1500000, accountFor(orderID))
	require.Nil(t, rerr)
	_, rerr = f.payme.PerformTransaction(context.Background(), "T1")
	require.Nil(t, rerr)

	_, rerr = f.payme.CancelTransaction(context.Background(), "T1", 5)
	require.NotNil(t, rerr)
	assert.Equal(t, dompayme.CodeCannotCancel, rerr.Code)
}

// S5: debt repayment over the user's debt is rejected and cancels the order;
// a correctly sized repayment reduces the debt by the paid amount on Perform
// (see the next test).
func TestDebtRepayment_AmountExceedsDebtRejectedAndCancels(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	u.Debt = 100000
	f.users.Seed(u)

	o, err := domorder.NewDebtRepayment(0, u.ID, 150000, "+998901234567")
	require.NoError(t, err)
	require.NoError(t, f.orders.Insert(context.Background(), o))

	_, rerr := f.payme.CreateTransaction(context.Background(), "T1", dompayme.NowMillis(), 15000000, accountFor(o.ID))
	require.NotNil(t, rerr)
	assert.Equal(t, dompayme.CodeAmount, rerr.Code)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, stored.Status)
}

func TestDebtRepayment_ValidAmountSettlesDebtOnPerform(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	u.Debt = 100000
	f.users.Seed(u)

	o, err := domorder.NewDebtRepayment(0, u.ID, 80000, "+998901234567")
	require.NoError(t, err)
	require.NoError(t, f.orders.Insert(context.Background(), o))

	_, rerr := f.payme.CreateTransaction(context.Background(), "T1", dompayme.NowMillis(), 8000000, accountFor(o.ID))
	require.Nil(t, rerr)

	_, rerr = f.payme.PerformTransaction(context.Background(), "T1")
	require.Nil(t, rerr)

	updated, err := f.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.Debt)

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusDone, stored.Status)
}

// S7: an order older than the payment timeout is expired rather than paid.
func TestCreateTransaction_ExpiredOrderRejected(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	stored, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	stored.CreatedAt = stored.CreatedAt.Add(-21 * time.Minute)
	require.NoError(t, f.orders.Update(context.Background(), stored))

	_, rerr := f.payme.CreateTransaction(context.Background(), "T1", dompayme.NowMillis(), 1500000, accountFor(orderID))
	require.NotNil(t, rerr)
	assert.Equal(t, dompayme.CodeOrderNotAvailable, rerr.Code)

	cancelled, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, cancelled.Status)

	p, err := f.products.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestCheckPerformTransaction_AmountMismatchRejected(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	_, rerr := f.payme.CheckPerformTransaction(context.Background(), 999, accountFor(orderID))
	require.NotNil(t, rerr)
	assert.Equal(t, dompayme.CodeAmount, rerr.Code)
}

func TestCheckPerformTransaction_AllowsMatchingAmount(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	res, rerr := f.payme.CheckPerformTransaction(context.Background(), 1500000, accountFor(orderID))
	require.Nil(t, rerr)
	assert.True(t, res.Allow)
}

func TestCheckTransaction_UnknownIDNotFound(t *testing.T) {
	f := newFixture(t)
	_, rerr := f.payme.CheckTransaction(context.Background(), "no-such-id")
	require.NotNil(t, rerr)
	assert.Equal(t, dompayme.CodeTransactionNotFound, rerr.Code)
}
