package usecase

import (
	"context"
	"errors"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
)

var (
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrUnknownStatus      = errors.New("unknown payment status")
	ErrOrderNotFound      = errors.New("order not found")
	ErrWrongGateway       = errors.New("order does not use this gateway")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrSessionUnavailable = errors.New("order not eligible for checkout")
	ErrNotRefundable      = errors.New("order not refundable")
)

type InventoryDirection string

const (
	InventoryReserve InventoryDirection = "reserve"
	InventoryRelease InventoryDirection = "release"
)

// OrderLedger is the port to the external order store. Every mutation is
// guarded: it only applies when the row still matches the expected
// precondition, so two concurrent deliveries cannot both win a transition
// off a stale read.
type OrderLedger interface {
	Get(ctx context.Context, orderID int64) (*domain.Order, error)

	// UpdateStatusIf moves status from->to and returns whether the row
	// actually changed.
	UpdateStatusIf(ctx context.Context, orderID int64, from, to domain.Status, note string) (bool, error)

	// MarkPaid transitions an awaiting/on-hold order to paid and records
	// txRef if no settlement reference is set yet. Returns whether the
	// transition applied.
	MarkPaid(ctx context.Context, orderID int64, txRef string) (bool, error)

	// AdjustInventory flips the reservation flag in the given direction,
	// at most once per direction per order. Returns whether it fired.
	AdjustInventory(ctx context.Context, orderID int64, dir InventoryDirection) (bool, error)
}

// DeliveryDedupe short-circuits redelivered webhook payloads. Keyed by a
// digest of the raw body; values are the recorded outcome.
type DeliveryDedupe interface {
	Recall(ctx context.Context, digest string) (string, bool, error)
	Remember(ctx context.Context, digest, outcome string) error
}

// StatusCache is a best-effort read cache for the status query endpoint.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID int64, status string) error
	GetStatus(ctx context.Context, orderID int64) (string, bool, error)
}

const (
	AnomalyLateSettlement = "late_settlement"
	AnomalyTxRefConflict  = "tx_ref_conflict"
)

// AnomalyRecord captures a delivery that must not be auto-applied and needs
// manual reconciliation.
type AnomalyRecord struct {
	ID             string         `json:"id"`
	OrderID        int64          `json:"order_id"`
	Kind           string         `json:"kind"`
	ReportedStatus ReportedStatus `json:"reported_status"`
	TxRef          string         `json:"tx_ref,omitempty"`
	Detail         string         `json:"detail,omitempty"`
}

// AnomalySink persists anomalies for the manual review queue.
type AnomalySink interface {
	Record(ctx context.Context, rec AnomalyRecord) error
}

// AlertPublisher pushes anomalies to the operations channel.
type AlertPublisher interface {
	PublishAnomaly(ctx context.Context, rec AnomalyRecord) error
}
