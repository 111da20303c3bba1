package order_test

import (
	"context"
	"testing"
	"time"

	apporder "github.com/shopmini/paycore/internal/application/order"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *apporder.Service
	orders   *memory.OrderRepo
	products *memory.ProductRepo
	carts    *memory.CartRepo
	users    *memory.UserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := memory.NewOrderRepo()
	products := memory.NewProductRepo()
	carts := memory.NewCartRepo()
	users := memory.NewUserRepo()
	uow := memory.NewUnitOfWork()

	svc := apporder.NewService(apporder.Deps{
		Orders:         orders,
		Products:       products,
		Carts:          carts,
		Users:          users,
		UnitOfWork:     uow,
		PaymentTimeout: 20 * time.Minute,
	})
	return &fixture{svc: svc, orders: orders, products: products, carts: carts, users: users}
}

func (f *fixture) seedUser(t *testing.T, id int64) *domuser.User {
	t.Helper()
	u := &domuser.User{ID: id, Language: domuser.LanguageRU, Role: domuser.RoleUser}
	f.users.Seed(u)
	return u
}

func TestCreateOrder_CashSuccessDrainsCartAndStock(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 2)

	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)

	stored, err := f.orders.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusNew, stored.Status)
	assert.Equal(t, int64(2000), stored.TotalAmount)

	p, err := f.products.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	rows, err := f.carts.ListByUserAndIDs(context.Background(), u.ID, []int64{row.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateOrder_CardReturnsRedirectAndKeepsCart(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 1)

	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCard,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "redirect", res.Status)
	assert.NotEmpty(t, res.PayURL)

	rows, err := f.carts.ListByUserAndIDs(context.Background(), u.ID, []int64{row.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCreateOrder_InsufficientStockFails(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 1, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 5)

	_, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	assert.ErrorIs(t, err, domorder.ErrInsufficientStock)
}

func TestCreateOrder_RejectsUserWithOutstandingDebt(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	u.Debt = 5000
	f.users.Seed(u)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 1)

	_, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	assert.ErrorIs(t, err, domorder.ErrHasDebt)
}

func TestCreateOrder_RejectsSecondPendingOnlineOrder(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row1 := f.carts.Seed(u.ID, 10, 1)
	_, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row1.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCard,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)

	row2 := f.carts.Seed(u.ID, 10, 1)
	_, err = f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row2.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCard,
		Phone:          "+998901234567",
	})
	assert.ErrorIs(t, err, domorder.ErrPendingOnline)
}

func TestCreateOrder_PickupAddressDefaultsWhenOmitted(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 1)

	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)
	stored, err := f.orders.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Address)
}

func TestCancelOrder_RestoresStockForProductOrder(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 2)

	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(context.Background(), res.OrderID))

	p, err := f.products.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	o, err := f.orders.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, o.Status)
}

func TestCancelOrder_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 1)
	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCash,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(context.Background(), res.OrderID))
	require.NoError(t, f.svc.CancelOrder(context.Background(), res.OrderID))

	p, err := f.products.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
}

func TestCancelExpiredOnlineOrder_NoOpWhenNotExpired(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	f.products.Seed(&domproduct.Product{ID: 10, Name: "widget", Price: 1000, Stock: 5, IsActive: true})
	row := f.carts.Seed(u.ID, 10, 1)
	res, err := f.svc.CreateOrder(context.Background(), u, apporder.CreateOrderInput{
		ItemIDs:        []int64{row.ID},
		DeliveryMethod: domorder.DeliveryPickup,
		PaymentMethod:  domorder.PaymentCard,
		Phone:          "+998901234567",
	})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelExpiredOnlineOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}
