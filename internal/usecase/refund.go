package usecase

import (
	"context"
	"fmt"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
	"github.com/nexflow/easepay-confirm/internal/logging"
)

// RefundRecorder marks a paid order as refund_requested. Crypto refunds are
// executed manually from the merchant wallet; this service only records the
// request for the operator.
type RefundRecorder struct {
	ledger    OrderLedger
	locks     *OrderLocks
	gatewayID string
}

func NewRefundRecorder(ledger OrderLedger, locks *OrderLocks, gatewayID string) *RefundRecorder {
	return &RefundRecorder{ledger: ledger, locks: locks, gatewayID: gatewayID}
}

func (r *RefundRecorder) Execute(ctx context.Context, orderID int64, reason string) error {
	unlock := r.locks.Lock(orderID)
	defer unlock()

	o, err := r.ledger.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.PaymentMethod != r.gatewayID {
		return ErrWrongGateway
	}
	if o.Status != domain.StatusPaid {
		return ErrNotRefundable
	}

	if reason == "" {
		reason = "not given"
	}
	note := fmt.Sprintf("refund requested, reason: %s; process manually from the merchant wallet", reason)
	applied, err := r.ledger.UpdateStatusIf(ctx, o.ID, domain.StatusPaid, domain.StatusRefundRequested, note)
	if err != nil {
		return fmt.Errorf("record refund request: %w", err)
	}
	if !applied {
		return ErrNotRefundable
	}

	logging.FromCtx(ctx).Info("refund request recorded", "order_id", o.ID)
	return nil
}
