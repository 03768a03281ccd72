package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
	"github.com/nexflow/easepay-confirm/internal/logging"
)

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadySettled Outcome = "already_settled"
	OutcomeLateSettlement Outcome = "late_settlement_anomaly"
	OutcomeIgnored        Outcome = "ignored"
)

// Decision is the pure output of the state machine: which transition to
// request from the ledger and which side effects go with it.
type Decision struct {
	Outcome          Outcome
	NextStatus       domain.Status // zero value means no status change
	MarkPaid         bool
	TxRef            string // settlement reference to record, if any
	ReleaseInventory bool
	TxRefConflict    bool // event carried a different reference than the stored one
	Note             string
}

// Decide computes the next order state for one payment event. It is a pure
// function of (order.Status, order.InventoryReserved, order.TxRef, event):
// no clock, no I/O. Precedence is derived from the current status, not from
// delivery order, which keeps the machine idempotent under duplicated and
// out-of-order deliveries.
func Decide(o *domain.Order, ev PaymentEvent) Decision {
	switch o.Status {
	case domain.StatusPaid, domain.StatusRefundRequested:
		// Sticky success: nothing regresses a settled order.
		return Decision{
			Outcome:       OutcomeAlreadySettled,
			TxRefConflict: ev.Reported.settled() && txRefConflicts(o.TxRef, ev.TxRef),
		}

	case domain.StatusAwaitingPayment, domain.StatusOnHold:
		switch {
		case ev.Reported.settled():
			d := Decision{
				Outcome:    OutcomeApplied,
				NextStatus: domain.StatusPaid,
				MarkPaid:   true,
				Note:       "payment confirmed by provider",
			}
			if o.TxRef == "" {
				d.TxRef = ev.TxRef
			} else {
				d.TxRefConflict = txRefConflicts(o.TxRef, ev.TxRef)
			}
			return d

		case ev.Reported == ReportedPending:
			if o.Status == domain.StatusOnHold {
				return Decision{Outcome: OutcomeIgnored, Note: "already on hold"}
			}
			return Decision{
				Outcome:    OutcomeApplied,
				NextStatus: domain.StatusOnHold,
				Note:       "payment pending blockchain confirmation",
			}

		case ev.Reported.closed():
			return Decision{
				Outcome:          OutcomeApplied,
				NextStatus:       domain.StatusFailed,
				ReleaseInventory: o.InventoryReserved,
				Note:             "payment failed or expired",
			}
		}

	case domain.StatusFailed, domain.StatusExpired:
		if ev.Reported.settled() {
			// Inventory was already released; auto-accepting would risk
			// overselling. Surface instead of applying.
			return Decision{
				Outcome: OutcomeLateSettlement,
				Note:    "settlement reported after order was closed",
			}
		}
		return Decision{Outcome: OutcomeIgnored, Note: "order already closed"}

	case domain.StatusNew:
		// No checkout session was ever built for this order.
		return Decision{Outcome: OutcomeIgnored, Note: "no active checkout session"}
	}

	return Decision{Outcome: OutcomeIgnored}
}

func txRefConflicts(stored, reported string) bool {
	return stored != "" && reported != "" && stored != reported
}

// Reconciler applies payment events to the ledger under per-order
// serialization. It is the only writer of payment-lifecycle transitions.
type Reconciler struct {
	ledger    OrderLedger
	locks     *OrderLocks
	anomalies AnomalySink
	alerts    AlertPublisher // optional
	cache     StatusCache    // optional, best effort
	gatewayID string
}

func NewReconciler(ledger OrderLedger, locks *OrderLocks, anomalies AnomalySink, alerts AlertPublisher, cache StatusCache, gatewayID string) *Reconciler {
	return &Reconciler{
		ledger:    ledger,
		locks:     locks,
		anomalies: anomalies,
		alerts:    alerts,
		cache:     cache,
		gatewayID: gatewayID,
	}
}

// Execute looks up the order, runs the state machine, and requests the
// resulting mutations. Ledger failures propagate so the caller answers 5xx
// and the provider retries; the guarded updates make the retry safe.
func (r *Reconciler) Execute(ctx context.Context, ev PaymentEvent) (Outcome, error) {
	unlock := r.locks.Lock(ev.OrderID)
	defer unlock()

	o, err := r.ledger.Get(ctx, ev.OrderID)
	if err != nil {
		return "", err
	}
	if o.PaymentMethod != r.gatewayID {
		return "", ErrWrongGateway
	}

	d := Decide(o, ev)
	log := logging.FromCtx(ctx).With("order_id", o.ID, "reported", string(ev.Reported), "outcome", string(d.Outcome))

	if d.TxRefConflict {
		r.raiseAnomaly(ctx, AnomalyRecord{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			Kind:           AnomalyTxRefConflict,
			ReportedStatus: ev.Reported,
			TxRef:          ev.TxRef,
			Detail:         fmt.Sprintf("stored tx_ref %q, event carried %q", o.TxRef, ev.TxRef),
		})
	}

	switch d.Outcome {
	case OutcomeApplied:
		if err := r.apply(ctx, o, d); err != nil {
			return "", err
		}
		log.Info("payment event applied", "status", string(d.NextStatus))

	case OutcomeLateSettlement:
		r.raiseAnomaly(ctx, AnomalyRecord{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			Kind:           AnomalyLateSettlement,
			ReportedStatus: ev.Reported,
			TxRef:          ev.TxRef,
			Detail:         d.Note,
		})
		log.Warn("late settlement flagged for manual reconciliation")

	case OutcomeAlreadySettled:
		log.Info("duplicate settlement delivery ignored")

	default:
		log.Info("payment event ignored", "note", d.Note)
	}

	return d.Outcome, nil
}

func (r *Reconciler) apply(ctx context.Context, o *domain.Order, d Decision) error {
	if d.MarkPaid {
		applied, err := r.ledger.MarkPaid(ctx, o.ID, d.TxRef)
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if !applied {
			// A concurrent delivery settled the order first.
			return nil
		}
	} else {
		applied, err := r.ledger.UpdateStatusIf(ctx, o.ID, o.Status, d.NextStatus, d.Note)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !applied {
			return nil
		}
		if d.ReleaseInventory {
			if _, err := r.ledger.AdjustInventory(ctx, o.ID, InventoryRelease); err != nil {
				return fmt.Errorf("release inventory: %w", err)
			}
		}
	}

	if r.cache != nil {
		_ = r.cache.SetStatus(ctx, o.ID, string(d.NextStatus))
	}
	return nil
}

// raiseAnomaly persists first; the broker alert is best effort on top.
func (r *Reconciler) raiseAnomaly(ctx context.Context, rec AnomalyRecord) {
	log := logging.FromCtx(ctx)
	if err := r.anomalies.Record(ctx, rec); err != nil {
		log.Error("anomaly record failed", "order_id", rec.OrderID, "kind", rec.Kind, "error", err)
	}
	if r.alerts != nil {
		if err := r.alerts.PublishAnomaly(ctx, rec); err != nil {
			log.Error("anomaly alert publish failed", "order_id", rec.OrderID, "kind", rec.Kind, "error", err)
		}
	}
}
