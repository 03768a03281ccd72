package domain

import "errors"

type Status string

const (
	StatusNew             Status = "new"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusOnHold          Status = "on_hold"
	StatusPaid            Status = "paid"
	StatusFailed          Status = "failed"
	StatusExpired         Status = "expired"
	StatusRefundRequested Status = "refund_requested"
)

// Settled reports whether the order reached a successful terminal state.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusRefundRequested
}

// Closed reports whether the order reached an unsuccessful terminal state.
func (s Status) Closed() bool {
	return s == StatusFailed || s == StatusExpired
}

var ErrInvalidAmount = errors.New("invalid amount")

type Money struct {
	Cents    int64
	Currency string
}

// Order mirrors the ledger row for a single checkout. The ledger owns
// storage; this service only reads it and requests guarded mutations.
type Order struct {
	ID                int64
	Status            Status
	PaymentMethod     string // gateway identifier the order was placed with
	Amount            Money
	TxRef             string // settlement reference, write-once
	InventoryReserved bool
	CustomerEmail     string
}

func (o *Order) Validate() error {
	if o.Amount.Cents <= 0 || o.Amount.Currency == "" {
		return ErrInvalidAmount
	}
	return nil
}
