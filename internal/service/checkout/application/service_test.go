package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

type checkoutFixture struct {
	orders   *memOrderRepo
	txs      *memTxRepo
	gateway  *fakeGateway
	notifier *memNotifier
	service  *CheckoutService
}

func newCheckoutFixture(t *testing.T, promos port.PromotionEngine) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		orders:   newMemOrderRepo(),
		txs:      &memTxRepo{},
		gateway:  &fakeGateway{name: "razorpay", configured: true},
		notifier: &memNotifier{},
	}
	registry := port.NewRegistry(f.gateway, &fakeGateway{name: "stripe", configured: false})
	catalog := &stubCatalog{
		products: map[string]*port.ProductInfo{
			"track-1": {ID: "track-1", Title: "Midnight Raga", Genre: "classical", Active: true},
		},
		prices: map[string]map[domain.LicenseTier]int64{
			"track-1": {domain.TierBasic: 50000, domain.TierExclusive: 500000},
		},
	}
	f.service = NewCheckoutService(
		f.orders, f.txs, registry, catalog, promos, f.notifier, noopLocker{},
		noop.NewTracerProvider().Tracer("test"),
	)
	return f
}

func startReq() *StartCheckoutRequest {
	return &StartCheckoutRequest{
		BuyerID:    "buyer-1",
		BuyerEmail: "buyer@example.com",
		ProductID:  "track-1",
		License:    "basic",
		Gateway:    "razorpay",
	}
}

func TestStartCheckout_HappyPath(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	resp, err := f.service.StartCheckout(context.Background(), startReq())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, domain.StatusAwaitingConfirmation, resp.Status)
	assert.Equal(t, int64(50000), resp.Amount)
	require.NotNil(t, resp.Handle)
	assert.Equal(t, "razorpay", resp.Handle.Gateway)
	assert.Equal(t, "gw_"+resp.OrderID, resp.Handle.GatewayOrderID)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingConfirmation, order.Status)
	assert.Equal(t, "INR", order.Currency)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, string(domain.StatusAwaitingConfirmation), string(f.notifier.events[0].Status))
}

func TestStartCheckout_Unauthenticated(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.BuyerID = ""

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, f.orders.orders)
}

func TestStartCheckout_InvalidLicenseString(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.License = "gold"

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidLicense)
	assert.Empty(t, f.orders.orders)
}

func TestStartCheckout_TierWithoutPrice(t *testing.T) {
	// track-1 没有 premium 定价：报 ErrInvalidLicense 且不建单
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.License = "premium"

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidLicense)
	assert.Empty(t, f.orders.orders)
	assert.Zero(t, f.gateway.initiated)
}

func TestStartCheckout_UnknownGateway(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.Gateway = "paypal"

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUnsupportedGateway)
	assert.Empty(t, f.orders.orders)
}

func TestStartCheckout_StripeNotConfigured(t *testing.T) {
	// stripe 已注册但没有密钥：在任何订单落库之前就被拒绝
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.Gateway = "stripe"

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrGatewayNotConfigured)
	assert.Empty(t, f.orders.orders)
}

func TestStartCheckout_UnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	req := startReq()
	req.ProductID = "track-404"

	_, err := f.service.StartCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Empty(t, f.orders.orders)
}

func TestStartCheckout_GatewayUnavailable_OrderStaysPending(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.gateway.initErr = domain.ErrGatewayUnavailable

	_, err := f.service.StartCheckout(context.Background(), startReq())
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	// 订单已落库但绝不悬挂在 awaiting_confirmation
	require.Len(t, f.orders.orders, 1)
	for _, order := range f.orders.orders {
		assert.Equal(t, domain.StatusPending, order.Status)
	}
	assert.Empty(t, f.notifier.events)
}

func TestStartCheckout_PromotionApplied(t *testing.T) {
	f := newCheckoutFixture(t, fixedPromo{discount: 10000, name: "classical-week"})

	resp, err := f.service.StartCheckout(context.Background(), startReq())
	require.NoError(t, err)
	assert.Equal(t, int64(40000), resp.Amount)
	assert.Equal(t, "classical-week", resp.Promo)
}

func TestStartCheckout_PromotionNeverZeroesAmount(t *testing.T) {
	// 减免额不小于原价时视为规则异常，整单按原价走
	f := newCheckoutFixture(t, fixedPromo{discount: 50000, name: "free-for-all"})

	resp, err := f.service.StartCheckout(context.Background(), startReq())
	require.NoError(t, err)
	assert.Equal(t, int64(50000), resp.Amount)
	assert.Empty(t, resp.Promo)
}

func TestCancel_PendingOrder(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	f.gateway.initErr = domain.ErrGatewayUnavailable
	_, err := f.service.StartCheckout(context.Background(), startReq())
	require.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	var orderID string
	for id := range f.orders.orders {
		orderID = id
	}

	require.NoError(t, f.service.Cancel(context.Background(), orderID))
	order, err := f.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
}

func TestCancel_AwaitingConfirmation_AlreadyInFlight(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	resp, err := f.service.StartCheckout(context.Background(), startReq())
	require.NoError(t, err)

	err = f.service.Cancel(context.Background(), resp.OrderID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInFlight)

	order, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingConfirmation, order.Status)
}

func TestCancel_UnknownOrder(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	err := f.service.Cancel(context.Background(), "no-such-order")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrder_WithTransactions(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	resp, err := f.service.StartCheckout(context.Background(), startReq())
	require.NoError(t, err)

	tx := domain.NewTransaction(resp.OrderID, "pay_123", domain.VerificationVerified, nil, "")
	require.NoError(t, f.txs.Record(context.Background(), tx))

	view, err := f.service.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, view.OrderID)
	assert.Equal(t, domain.LicenseTier("basic"), view.License)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, "pay_123", view.Transactions[0].ProviderPaymentID)
	assert.Equal(t, domain.VerificationVerified, view.Transactions[0].Result)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	_, err := f.service.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
