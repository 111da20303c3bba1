package click_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	apporder "github.com/shopmini/paycore/internal/application/order"
	appclick "github.com/shopmini/paycore/internal/application/click"
	domclick "github.com/shopmini/paycore/internal/domain/click"
	domorder "github.com/shopmini/paycore/internal/domain/order"
	domproduct "github.com/shopmini/paycore/internal/domain/product"
	domuser "github.com/shopmini/paycore/internal/domain/user"
	"github.com/shopmini/paycore/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

type fixture struct {
	click    *appclick.Service
	orderSvc *apporder.Service
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
	txs := memory.NewClickRepo()
	uow := memory.NewUnitOfWork()

	orderSvc := apporder.NewService(apporder.Deps{
		Orders:         orders,
		Products:       products,
		Carts:          carts,
		Users:          users,
		UnitOfWork:     uow,
		PaymentTimeout: 20 * time.Minute,
	})

	clickSvc := appclick.NewService(appclick.Deps{
		Transactions:   txs,
		Orders:         orders,
		Users:          users,
		Carts:          carts,
		UnitOfWork:     uow,
		OrderLifecycle: orderSvc,
		Config: appclick.Config{
			ServiceID:      "1",
			SecretKey:      testSecret,
			PaymentTimeout: 20 * time.Minute,
		},
	})

	return &fixture{click: clickSvc, orderSvc: orderSvc, orders: orders, products: products, carts: carts, users: users}
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

func sign(req appclick.CallbackRequest) string {
	raw := fmt.Sprintf("%d%s%s%s%s%d%s",
		req.ClickTransID, req.ServiceID, testSecret, req.MerchantTransID, req.Amount, req.Action, req.SignTime)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func prepareRequest(clickTransID, orderID int64, amount string) appclick.CallbackRequest {
	req := appclick.CallbackRequest{
		ClickTransID:    clickTransID,
		ServiceID:       "1",
		MerchantTransID: itoa(orderID),
		Amount:          amount,
		Action:          int(domclick.ActionPrepare),
		SignTime:        "2026-07-31 10:00:00",
	}
	req.SignString = sign(req)
	return req
}

func completeRequest(clickTransID, orderID int64, amount string) appclick.CallbackRequest {
	req := appclick.CallbackRequest{
		ClickTransID:    clickTransID,
		ServiceID:       "1",
		MerchantTransID: itoa(orderID),
		Amount:          amount,
		Action:          int(domclick.ActionComplete),
		SignTime:        "2026-07-31 10:05:00",
	}
	req.SignString = sign(req)
	return req
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

// S6: valid prepare then complete confirms the order; a repeated complete
// with the same click_trans_id returns the same success envelope without
// double-applying the payment.
func TestPrepareThenComplete_ConfirmsOrderOnce(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	prep := f.click.Prepare(context.Background(), prepareRequest(501, orderID, "15000"))
	require.Equal(t, 0, prep.Error)

	comp1 := f.click.Complete(context.Background(), completeRequest(501, orderID, "15000"))
	require.Equal(t, 0, comp1.Error)

	o, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, o.Status)

	comp2 := f.click.Complete(context.Background(), completeRequest(501, orderID, "15000"))
	assert.Equal(t, 0, comp2.Error)

	stored, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, stored.Status)
}

func TestPrepare_RejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	req := prepareRequest(502, orderID, "15000")
	req.SignString = "deadbeef"
	resp := f.click.Prepare(context.Background(), req)
	assert.Equal(t, int(domclick.CodeSignFailed), resp.Error)
}

func TestPrepare_RejectsWrongAction(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	req := completeRequest(503, orderID, "15000")
	resp := f.click.Prepare(context.Background(), req)
	assert.Equal(t, int(domclick.CodeAction), resp.Error)
}

func TestPrepare_RejectsAmountMismatch(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	resp := f.click.Prepare(context.Background(), prepareRequest(504, orderID, "999"))
	assert.Equal(t, int(domclick.CodeAmount), resp.Error)
}

func TestComplete_RejectsAlreadyPaidOrder(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	require.Equal(t, 0, f.click.Prepare(context.Background(), prepareRequest(505, orderID, "15000")).Error)
	require.Equal(t, 0, f.click.Complete(context.Background(), completeRequest(505, orderID, "15000")).Error)

	// a distinct click_trans_id attempting to complete the same now-paid order is refused
	resp := f.click.Complete(context.Background(), completeRequest(506, orderID, "15000"))
	assert.Equal(t, int(domclick.CodeAlreadyPaid), resp.Error)
}

func TestComplete_NegativeErrorFieldCancelsOrder(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	req := completeRequest(507, orderID, "15000")
	req.Error = -1
	req.SignString = sign(req)

	resp := f.click.Complete(context.Background(), req)
	assert.Equal(t, 0, resp.Error)

	o, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, o.Status)

	p, err := f.products.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestComplete_RejectsOnCancelledOrder(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)
	require.NoError(t, f.orderSvc.CancelOrder(context.Background(), orderID))

	resp := f.click.Complete(context.Background(), completeRequest(508, orderID, "15000"))
	assert.Equal(t, int(domclick.CodeCancelled), resp.Error)
}

// S7 (Click variant): a card order left unpaid past the timeout is expired
// rather than confirmed, and the provider receives the cancelled code.
func TestComplete_ExpiredOrderReturnsCancelled(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, 1)
	orderID := f.createCardOrder(t, u, 15000, 1)

	stored, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	stored.CreatedAt = stored.CreatedAt.Add(-21 * time.Minute)
	require.NoError(t, f.orders.Update(context.Background(), stored))

	resp := f.click.Complete(context.Background(), completeRequest(509, orderID, "15000"))
	assert.Equal(t, int(domclick.CodeCancelled), resp.Error)

	cancelled, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, cancelled.Status)
}
