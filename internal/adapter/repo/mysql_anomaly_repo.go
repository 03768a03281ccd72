package repo

import (
	"context"
	"database/sql"

	"github.com/nexflow/easepay-confirm/internal/adapter/observ"
	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// MySQLAnomalyRepo persists flagged deliveries for the manual review queue.
type MySQLAnomalyRepo struct{ db *sql.DB }

func NewMySQLAnomalyRepo(db *sql.DB) *MySQLAnomalyRepo { return &MySQLAnomalyRepo{db: db} }

func (r *MySQLAnomalyRepo) Record(ctx context.Context, rec usecase.AnomalyRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO anomalies (id, order_id, kind, reported_status, tx_ref, detail, resolved, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, NOW())
`, rec.ID, rec.OrderID, rec.Kind, string(rec.ReportedStatus), rec.TxRef, rec.Detail)
	if err == nil {
		observ.ObserveAnomaly(rec.Kind)
	}
	return err
}

var _ usecase.AnomalySink = (*MySQLAnomalyRepo)(nil)
