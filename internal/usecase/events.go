package usecase

import "time"

type ReportedStatus string

const (
	ReportedPending   ReportedStatus = "pending"
	ReportedCompleted ReportedStatus = "completed"
	ReportedConfirmed ReportedStatus = "confirmed"
	ReportedFailed    ReportedStatus = "failed"
	ReportedExpired   ReportedStatus = "expired"
)

// settled/closed classify what the provider is claiming.
func (s ReportedStatus) settled() bool {
	return s == ReportedCompleted || s == ReportedConfirmed
}

func (s ReportedStatus) closed() bool {
	return s == ReportedFailed || s == ReportedExpired
}

// PaymentEventMsg is the wire shape shared by the HTTP webhook and the
// broker-bridged deliveries.
type PaymentEventMsg struct {
	OrderID *int64 `json:"order_id"`
	Status  string `json:"status"`
	TxHash  string `json:"tx_hash,omitempty"`
}

// PaymentEvent is the normalized, typed form the engine works on.
type PaymentEvent struct {
	OrderID    int64
	Reported   ReportedStatus
	TxRef      string
	ReceivedAt time.Time
}

// NormalizeEvent validates the raw payload before anything touches the
// ledger, so malformed input cannot probe for order existence.
func NormalizeEvent(msg PaymentEventMsg, now time.Time) (PaymentEvent, error) {
	if msg.OrderID == nil || *msg.OrderID <= 0 || msg.Status == "" {
		return PaymentEvent{}, ErrMalformedPayload
	}
	switch ReportedStatus(msg.Status) {
	case ReportedPending, ReportedCompleted, ReportedConfirmed, ReportedFailed, ReportedExpired:
	default:
		return PaymentEvent{}, ErrUnknownStatus
	}
	return PaymentEvent{
		OrderID:    *msg.OrderID,
		Reported:   ReportedStatus(msg.Status),
		TxRef:      msg.TxHash,
		ReceivedAt: now,
	}, nil
}
