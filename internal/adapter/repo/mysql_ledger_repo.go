package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/nexflow/easepay-confirm/internal/entity"
	"github.com/nexflow/easepay-confirm/internal/usecase"
)

// MySQLLedger implements the order ledger port over the shared orders table.
// All mutations are conditional UPDATEs, so a transition only applies when
// the row still matches the state the caller decided against.
type MySQLLedger struct{ db *sql.DB }

func NewMySQLLedger(db *sql.DB) *MySQLLedger { return &MySQLLedger{db: db} }

func (r *MySQLLedger) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, payment_method, amount_cents, currency, tx_ref, inventory_reserved, customer_email
FROM orders WHERE id = ?`, orderID)

	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &status, &o.PaymentMethod, &o.Amount.Cents, &o.Amount.Currency,
		&o.TxRef, &o.InventoryReserved, &o.CustomerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	return &o, nil
}

func (r *MySQLLedger) UpdateStatusIf(ctx context.Context, orderID int64, from, to domain.Status, note string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = ?, status_note = ?, updated_at = NOW()
WHERE id = ? AND status = ?`,
		string(to), note, orderID, string(from),
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0: not found or the status moved under us
	return rows > 0, nil
}

func (r *MySQLLedger) MarkPaid(ctx context.Context, orderID int64, txRef string) (bool, error) {
	// tx_ref is write-once: only filled while still empty.
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = 'paid',
    tx_ref = IF(tx_ref = '' OR tx_ref IS NULL, ?, tx_ref),
    paid_at = NOW(),
    updated_at = NOW()
WHERE id = ? AND status IN ('awaiting_payment', 'on_hold')`,
		txRef, orderID,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLLedger) AdjustInventory(ctx context.Context, orderID int64, dir usecase.InventoryDirection) (bool, error) {
	var q string
	switch dir {
	case usecase.InventoryReserve:
		q = `UPDATE orders SET inventory_reserved = 1, updated_at = NOW() WHERE id = ? AND inventory_reserved = 0`
	case usecase.InventoryRelease:
		q = `UPDATE orders SET inventory_reserved = 0, updated_at = NOW() WHERE id = ? AND inventory_reserved = 1`
	default:
		return false, errors.New("unknown inventory direction")
	}

	res, err := r.db.ExecContext(ctx, q, orderID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

var _ usecase.OrderLedger = (*MySQLLedger)(nil)
