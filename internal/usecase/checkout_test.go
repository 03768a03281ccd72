package usecase

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
)

func testGatewayConfig() GatewayConfig {
	return GatewayConfig{
		ID:             testGateway,
		Enabled:        true,
		APIBase:        "https://easepay.xyz",
		MerchantWallet: "0x52908400098527886E0F7030069857D2E4169EE7",
		StoreName:      "Acme Outdoors",
		WebhookURL:     "https://shop.example.com/easepay/v1/webhook",
		ReturnURL:      "https://shop.example.com/thanks",
		CancelURL:      "https://shop.example.com/checkout",
	}
}

func newOrder(id int64) *domain.Order {
	return &domain.Order{
		ID:            id,
		Status:        domain.StatusNew,
		PaymentMethod: testGateway,
		Amount:        domain.Money{Cents: 10050, Currency: "USD"},
		CustomerEmail: "shopper@example.com",
	}
}

func TestValidWallet(t *testing.T) {
	assert.True(t, ValidWallet("0x52908400098527886E0F7030069857D2E4169EE7"))
	assert.True(t, ValidWallet("0xde709f2102306220921060314715629080e2fb77"))

	assert.False(t, ValidWallet(""))
	assert.False(t, ValidWallet("52908400098527886E0F7030069857D2E4169EE7"))
	assert.False(t, ValidWallet("0x5290840009852788"))
	assert.False(t, ValidWallet("0x52908400098527886E0F7030069857D2E4169EZZ"))
	assert.False(t, ValidWallet("0x52908400098527886E0F7030069857D2E4169EE70"))
}

func TestSessionBuilderUnavailableWithoutValidWallet(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.MerchantWallet = "0xnot-a-wallet"
	b := NewSessionBuilder(newFakeLedger(newOrder(1)), NewOrderLocks(), cfg)

	assert.False(t, b.Available())
	_, err := b.Execute(context.Background(), 1)
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestSessionBuilderDisabledGateway(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.Enabled = false
	b := NewSessionBuilder(newFakeLedger(newOrder(1)), NewOrderLocks(), cfg)

	_, err := b.Execute(context.Background(), 1)
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestSessionBuilderBuildsRedirect(t *testing.T) {
	ledger := newFakeLedger(newOrder(42))
	b := NewSessionBuilder(ledger, NewOrderLocks(), testGatewayConfig())

	session, err := b.Execute(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.OrderID)

	o := ledger.order(42)
	assert.Equal(t, domain.StatusAwaitingPayment, o.Status)
	assert.True(t, o.InventoryReserved)
	assert.Equal(t, 1, ledger.reservesApplied)

	u, err := url.Parse(session.RedirectURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.RedirectURL,
		"https://easepay.xyz/pay/0x52908400098527886E0F7030069857D2E4169EE7?"))

	q := u.Query()
	assert.Equal(t, "100.50", q.Get("amount"))
	assert.Equal(t, "USD", q.Get("currency"))
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", q.Get("merchant_wallet"))
	assert.Equal(t, "42", q.Get("order_id"))
	assert.Equal(t, "https://shop.example.com/thanks", q.Get("return_url"))
	assert.Equal(t, "https://shop.example.com/checkout", q.Get("cancel_url"))
	assert.Equal(t, "https://shop.example.com/easepay/v1/webhook", q.Get("webhook_url"))
	assert.Equal(t, "Acme Outdoors", q.Get("store_name"))
	assert.Equal(t, "shopper@example.com", q.Get("customer_email"))
}

func TestSessionBuilderEffectIdempotent(t *testing.T) {
	ledger := newFakeLedger(newOrder(42))
	b := NewSessionBuilder(ledger, NewOrderLocks(), testGatewayConfig())

	first, err := b.Execute(context.Background(), 42)
	require.NoError(t, err)

	// Shopper hits the redirect again: same descriptor, inventory untouched.
	second, err := b.Execute(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, first.RedirectURL, second.RedirectURL)
	assert.Equal(t, 1, ledger.reservesApplied)
	assert.Equal(t, domain.StatusAwaitingPayment, ledger.order(42).Status)
}

func TestSessionBuilderRejectsSettledOrders(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPaid, domain.StatusFailed, domain.StatusExpired, domain.StatusRefundRequested} {
		o := newOrder(1)
		o.Status = status
		b := NewSessionBuilder(newFakeLedger(o), NewOrderLocks(), testGatewayConfig())

		_, err := b.Execute(context.Background(), 1)
		require.ErrorIs(t, err, ErrSessionUnavailable, "status %s", status)
	}
}

func TestSessionBuilderWrongGateway(t *testing.T) {
	o := newOrder(1)
	o.PaymentMethod = "stripe"
	b := NewSessionBuilder(newFakeLedger(o), NewOrderLocks(), testGatewayConfig())

	_, err := b.Execute(context.Background(), 1)
	require.ErrorIs(t, err, ErrWrongGateway)
}

func TestSessionBuilderOrderNotFound(t *testing.T) {
	b := NewSessionBuilder(newFakeLedger(), NewOrderLocks(), testGatewayConfig())
	_, err := b.Execute(context.Background(), 404)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRefundRecorder(t *testing.T) {
	o := newOrder(8)
	o.Status = domain.StatusPaid
	o.TxRef = "0xabc"
	ledger := newFakeLedger(o)
	r := NewRefundRecorder(ledger, NewOrderLocks(), testGateway)

	require.NoError(t, r.Execute(context.Background(), 8, "customer returned item"))
	assert.Equal(t, domain.StatusRefundRequested, ledger.order(8).Status)

	// Already requested: second call is rejected, no double transition.
	err := r.Execute(context.Background(), 8, "again")
	require.ErrorIs(t, err, ErrNotRefundable)
}

func TestRefundRecorderRejectsUnpaid(t *testing.T) {
	o := newOrder(9)
	o.Status = domain.StatusAwaitingPayment
	r := NewRefundRecorder(newFakeLedger(o), NewOrderLocks(), testGateway)

	err := r.Execute(context.Background(), 9, "")
	require.ErrorIs(t, err, ErrNotRefundable)
}
