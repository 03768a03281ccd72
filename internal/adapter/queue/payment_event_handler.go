package queue

import (
	"context"
	"errors"
	"time"

	"github.com/nexflow/easepay-confirm/internal/adapter/observ"
	"github.com/nexflow/easepay-confirm/internal/logging"
	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// PaymentEventHandler feeds broker-bridged provider notifications into the
// reconciliation engine. Intended for use with JSONHandler[usecase.PaymentEventMsg];
// the same method also serves the Kafka consumer.
type PaymentEventHandler struct {
	rec *usecase.Reconciler
}

func NewPaymentEventHandler(rec *usecase.Reconciler) *PaymentEventHandler {
	return &PaymentEventHandler{rec: rec}
}

func (h *PaymentEventHandler) HandleEvent(ctx context.Context, msg usecase.PaymentEventMsg) error {
	log := logging.FromCtx(ctx)

	ev, err := usecase.NormalizeEvent(msg, time.Now())
	if err != nil {
		// Poison message: redelivery cannot fix a bad payload.
		log.Warn("dropping unprocessable payment event", "error", err, "status", msg.Status)
		return nil
	}

	outcome, err := h.rec.Execute(ctx, ev)
	switch {
	case err == nil:
		observ.ObserveOutcome(string(outcome), "broker")
		return nil
	case errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrWrongGateway):
		// Not ours to retry.
		log.Warn("payment event rejected", "order_id", ev.OrderID, "error", err)
		return nil
	default:
		// Ledger trouble: nack so the broker redelivers.
		return err
	}
}
