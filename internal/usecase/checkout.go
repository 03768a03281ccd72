package usecase

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
	"github.com/nexflow/easepay-confirm/internal/logging"
)

// walletPattern matches a hex payout address: 0x followed by exactly 40 hex
// characters, case-insensitive.
var walletPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

func ValidWallet(addr string) bool { return walletPattern.MatchString(addr) }

// GatewayConfig carries the merchant-side settings a checkout session needs.
type GatewayConfig struct {
	ID             string // gateway identifier stored on orders, e.g. "easepay"
	Enabled        bool
	APIBase        string // hosted checkout base URL
	MerchantWallet string // payout address, 0x + 40 hex chars
	StoreName      string
	WebhookURL     string
	ReturnURL      string
	CancelURL      string
}

// CheckoutSession is the redirect descriptor handed back to the storefront.
type CheckoutSession struct {
	OrderID     int64  `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

// SessionBuilder moves an order from new to awaiting_payment and produces
// the redirect that hands the shopper to the hosted checkout.
type SessionBuilder struct {
	ledger OrderLedger
	locks  *OrderLocks
	cfg    GatewayConfig
}

func NewSessionBuilder(ledger OrderLedger, locks *OrderLocks, cfg GatewayConfig) *SessionBuilder {
	return &SessionBuilder{ledger: ledger, locks: locks, cfg: cfg}
}

// Available reports whether the gateway may be offered to shoppers at all:
// enabled and a syntactically valid payout address configured.
func (b *SessionBuilder) Available() bool {
	return b.cfg.Enabled && ValidWallet(b.cfg.MerchantWallet)
}

// Execute builds the session. Effect-idempotent: re-invoking for an order
// already in awaiting_payment returns a fresh descriptor without touching
// inventory again.
func (b *SessionBuilder) Execute(ctx context.Context, orderID int64) (CheckoutSession, error) {
	if !b.Available() {
		return CheckoutSession{}, ErrGatewayUnavailable
	}

	unlock := b.locks.Lock(orderID)
	defer unlock()

	o, err := b.ledger.Get(ctx, orderID)
	if err != nil {
		return CheckoutSession{}, err
	}
	if o.PaymentMethod != b.cfg.ID {
		return CheckoutSession{}, ErrWrongGateway
	}
	if err := o.Validate(); err != nil {
		return CheckoutSession{}, err
	}

	switch o.Status {
	case domain.StatusNew:
		applied, err := b.ledger.UpdateStatusIf(ctx, o.ID, domain.StatusNew, domain.StatusAwaitingPayment, "awaiting hosted checkout payment")
		if err != nil {
			return CheckoutSession{}, fmt.Errorf("enter awaiting_payment: %w", err)
		}
		if applied {
			// Reservation is flag-guarded in the ledger, so a lost race
			// here still decrements stock at most once.
			if _, err := b.ledger.AdjustInventory(ctx, o.ID, InventoryReserve); err != nil {
				return CheckoutSession{}, fmt.Errorf("reserve inventory: %w", err)
			}
		}
	case domain.StatusAwaitingPayment:
		// Shopper retried the redirect; rebuild the descriptor only.
	default:
		return CheckoutSession{}, ErrSessionUnavailable
	}

	redirect := b.redirectURL(o)
	logging.FromCtx(ctx).Info("checkout session built", "order_id", o.ID, "redirect", redirect)

	return CheckoutSession{OrderID: o.ID, RedirectURL: redirect}, nil
}

func (b *SessionBuilder) redirectURL(o *domain.Order) string {
	q := url.Values{}
	q.Set("amount", formatAmount(o.Amount.Cents))
	q.Set("currency", o.Amount.Currency)
	q.Set("merchant_wallet", b.cfg.MerchantWallet)
	q.Set("order_id", strconv.FormatInt(o.ID, 10))
	q.Set("return_url", b.cfg.ReturnURL)
	q.Set("cancel_url", b.cfg.CancelURL)
	q.Set("webhook_url", b.cfg.WebhookURL)
	q.Set("store_name", b.cfg.StoreName)
	q.Set("customer_email", o.CustomerEmail)
	return b.cfg.APIBase + "/pay/" + b.cfg.MerchantWallet + "?" + q.Encode()
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
