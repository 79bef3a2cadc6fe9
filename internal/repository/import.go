package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ImportRow is one normalized spreadsheet row ready to be upserted. Payment
// fields never appear here: imports only touch roster columns.
type ImportRow struct {
	Klass     string
	StudentNo string
	Name      string
	SeatArea  string
	Phone     string
	AmountDue float64
}

// UpsertBatch applies one spreadsheet worth of rows inside a single
// transaction, all-or-nothing. Rows with a student_no that matches an
// existing record update its roster columns and leave paid/paid_at/serial
// untouched; everything else inserts a new unpaid record. Rows without a
// student_no always insert because there is no key to de-duplicate on.
func (r *AttendeeRepo) UpsertBatch(ctx context.Context, rows []ImportRow) (inserted, updated int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selQ = `SELECT id FROM attendees WHERE student_no = ? LIMIT 1`
	const updQ = `UPDATE attendees SET klass = ?, name = ?, seat_area = ?, amount_due = ?, phone = ? WHERE id = ?`
	const insQ = `INSERT INTO attendees (klass, student_no, name, seat_area, phone, amount_due, paid, paid_at, notes, serial)
	              VALUES (?, ?, ?, ?, ?, ?, 0, NULL, '', NULL)`

	for _, row := range rows {
		if row.StudentNo != "" {
			var id int64
			scanErr := tx.QueryRowContext(ctx, selQ, row.StudentNo).Scan(&id)
			switch {
			case scanErr == nil:
				if _, err = tx.ExecContext(ctx, updQ, row.Klass, row.Name, row.SeatArea, row.AmountDue, row.Phone, id); err != nil {
					return 0, 0, fmt.Errorf("update student_no %q: %w", row.StudentNo, err)
				}
				updated++
				continue
			case errors.Is(scanErr, sql.ErrNoRows):
				// fall through to insert
			default:
				err = fmt.Errorf("lookup student_no %q: %w", row.StudentNo, scanErr)
				return 0, 0, err
			}
		}
		if _, err = tx.ExecContext(ctx, insQ, row.Klass, row.StudentNo, row.Name, row.SeatArea, row.Phone, row.AmountDue); err != nil {
			return 0, 0, fmt.Errorf("insert row (student_no=%q name=%q): %w", row.StudentNo, row.Name, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit import tx: %w", err)
	}
	return inserted, updated, nil
}
