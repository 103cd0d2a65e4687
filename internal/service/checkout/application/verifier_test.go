package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"saregare/internal/service/checkout/domain"
	"saregare/internal/service/checkout/domain/port"
)

type verifierFixture struct {
	orders   *memOrderRepo
	txs      *memTxRepo
	notifier *memNotifier
	verifier *PaymentVerifier
}

func newVerifierFixture(t *testing.T) *verifierFixture {
	t.Helper()
	f := &verifierFixture{
		orders:   newMemOrderRepo(),
		txs:      &memTxRepo{},
		notifier: &memNotifier{},
	}
	registry := port.NewRegistry(&fakeGateway{name: "razorpay", configured: true})
	f.verifier = NewPaymentVerifier(
		f.orders, f.txs, registry, f.notifier, noopLocker{},
		noop.NewTracerProvider().Tracer("test"),
	)
	return f
}

// seedAwaitingOrder 准备一个 150000 paise、等待回调的订单。
func (f *verifierFixture) seedAwaitingOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("buyer-1", "track-1", domain.TierPremium, 150000, "INR", "razorpay")
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(context.Background(), order))
	require.NoError(t, f.orders.UpdateStatus(context.Background(), order.ID, domain.StatusPending, domain.StatusAwaitingConfirmation))
	return order
}

func callbackPayload(t *testing.T, orderID, signature string, amount int64, currency string) []byte {
	t.Helper()
	raw, err := json.Marshal(&port.Callback{
		OrderID:           orderID,
		ProviderOrderID:   "order_gw123",
		ProviderPaymentID: "pay_abc",
		Signature:         signature,
		Amount:            amount,
		Currency:          currency,
	})
	require.NoError(t, err)
	return raw
}

func TestHandleCallback_Verified(t *testing.T) {
	f := newVerifierFixture(t)
	order := f.seedAwaitingOrder(t)
	raw := callbackPayload(t, order.ID, "valid-signature", 150000, "INR")

	outcome, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, outcome.Result)
	assert.Equal(t, domain.StatusCompleted, outcome.Status)

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	n, err := f.txs.CountVerified(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.StatusCompleted, f.notifier.events[0].Status)
}

func TestHandleCallback_Replay_AbsorbedAsDuplicate(t *testing.T) {
	f := newVerifierFixture(t)
	order := f.seedAwaitingOrder(t)
	raw := callbackPayload(t, order.ID, "valid-signature", 150000, "INR")

	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	require.NoError(t, err)

	// 原样重放：不报错，不改状态，记一条 duplicate
	outcome, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationDuplicate, outcome.Result)
	assert.Equal(t, domain.StatusCompleted, outcome.Status)

	n, err := f.txs.CountVerified(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	txs, err := f.txs.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.VerificationDuplicate, txs[1].Result)
}

func TestHandleCallback_BadSignature(t *testing.T) {
	f := newVerifierFixture(t)
	order := f.seedAwaitingOrder(t)
	raw := callbackPayload(t, order.ID, "forged", 150000, "INR")

	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	assert.ErrorIs(t, err, domain.ErrSignatureInvalid)

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	txs, err := f.txs.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.VerificationRejected, txs[0].Result)
	assert.Equal(t, "signature verification failed", txs[0].Reason)
}

func TestHandleCallback_AmountMismatch(t *testing.T) {
	f := newVerifierFixture(t)
	order := f.seedAwaitingOrder(t)
	// 少一个 paise 也不行
	raw := callbackPayload(t, order.ID, "valid-signature", 149999, "INR")

	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
}

func TestHandleCallback_CurrencyMismatch(t *testing.T) {
	f := newVerifierFixture(t)
	order := f.seedAwaitingOrder(t)
	raw := callbackPayload(t, order.ID, "valid-signature", 150000, "USD")

	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)
}

func TestHandleCallback_UnknownOrder(t *testing.T) {
	f := newVerifierFixture(t)
	raw := callbackPayload(t, "no-such-order", "valid-signature", 150000, "INR")

	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	assert.ErrorIs(t, err, domain.ErrUnknownOrder)
	assert.Empty(t, f.txs.txs)
}

func TestHandleCallback_UnknownGateway(t *testing.T) {
	f := newVerifierFixture(t)

	_, err := f.verifier.HandleCallback(context.Background(), "paypal", []byte("{}"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedGateway)
}

func TestHandleCallback_OrderStillPending(t *testing.T) {
	// 网关发起失败后订单停留在 pending，此时到达的回调不可生效
	f := newVerifierFixture(t)
	order, err := domain.NewOrder("buyer-1", "track-1", domain.TierPremium, 150000, "INR", "razorpay")
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(context.Background(), order))
	raw := callbackPayload(t, order.ID, "valid-signature", 150000, "INR")

	_, err = f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestHandleCallback_CancelledOrder_Duplicate(t *testing.T) {
	// 已取消订单的迟到回调同样被吸收，不会复活订单
	f := newVerifierFixture(t)
	order, err := domain.NewOrder("buyer-1", "track-1", domain.TierPremium, 150000, "INR", "razorpay")
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(context.Background(), order))
	require.NoError(t, f.orders.UpdateStatus(context.Background(), order.ID, domain.StatusPending, domain.StatusCancelled))
	raw := callbackPayload(t, order.ID, "valid-signature", 150000, "INR")

	outcome, err := f.verifier.HandleCallback(context.Background(), "razorpay", raw)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationDuplicate, outcome.Result)
	assert.Equal(t, domain.StatusCancelled, outcome.Status)
}

func TestHandleCallback_MalformedPayload(t *testing.T) {
	f := newVerifierFixture(t)
	_, err := f.verifier.HandleCallback(context.Background(), "razorpay", []byte("not json"))
	assert.Error(t, err)
}
