package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const attendeeColumns = `id, klass, student_no, name, seat_area, phone, amount_due,
	paid, paid_at, notes, serial, verified, verified_at, created_at, updated_at`

// AttendeeRepo provides all SQL access to the attendees table. Every mutation
// is a single statement, so row-level atomicity comes from the storage engine
// and no application-level locking is needed.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo constructs an AttendeeRepo with the given DB handle.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo {
	return &AttendeeRepo{db: db}
}

func scanAttendee(row interface{ Scan(...any) error }) (*Attendee, error) {
	var a Attendee
	err := row.Scan(
		&a.ID, &a.Klass, &a.StudentNo, &a.Name, &a.SeatArea, &a.Phone, &a.AmountDue,
		&a.Paid, &a.PaidAt, &a.Notes, &a.Serial, &a.Verified, &a.VerifiedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new attendee. Payment state is always reset: new records
// start unpaid with no serial regardless of what the caller filled in.
// On success the attendee's ID is populated.
func (r *AttendeeRepo) Create(ctx context.Context, a *Attendee) error {
	const q = `INSERT INTO attendees (klass, student_no, name, seat_area, phone, amount_due, paid, paid_at, notes, serial)
	           VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, NULL)`
	res, err := r.db.ExecContext(ctx, q, a.Klass, a.StudentNo, a.Name, a.SeatArea, a.Phone, a.AmountDue, a.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	a.Paid = false
	a.Serial = nil
	return nil
}

// GetByID retrieves an attendee by primary key.
func (r *AttendeeRepo) GetByID(ctx context.Context, id int64) (*Attendee, error) {
	const q = `SELECT ` + attendeeColumns + ` FROM attendees WHERE id = ?`
	a, err := scanAttendee(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttendeeNotFound
	}
	return a, err
}

// GetBySerial retrieves the attendee whose serial exactly equals the given
// stub number. Serials are only present on paid rows.
func (r *AttendeeRepo) GetBySerial(ctx context.Context, serial string) (*Attendee, error) {
	const q = `SELECT ` + attendeeColumns + ` FROM attendees WHERE serial = ?`
	a, err := scanAttendee(r.db.QueryRowContext(ctx, q, serial))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttendeeNotFound
	}
	return a, err
}

// UpdateFields carries the editable columns for Update. Serial may be nil to
// leave the row without a stub number; it is only honored on paid rows.
type UpdateFields struct {
	Klass     string
	StudentNo string
	Name      string
	SeatArea  string
	Phone     string
	AmountDue float64
	Notes     string
	Serial    *string
}

// Update rewrites the editable columns of one row. The serial assignment is
// guarded inside the statement: on unpaid rows it is forced to NULL no matter
// what was supplied, which keeps the serial-implies-paid invariant even when
// the paid flag flips between the caller's read and this write. Returns the
// number of matched rows (0 when the id is unknown).
func (r *AttendeeRepo) Update(ctx context.Context, id int64, f UpdateFields) (int64, error) {
	const q = `UPDATE attendees
	           SET klass = ?, student_no = ?, name = ?, seat_area = ?, phone = ?,
	               amount_due = ?, notes = ?,
	               serial = CASE WHEN paid = 1 THEN ? ELSE NULL END
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Klass, f.StudentNo, f.Name, f.SeatArea, f.Phone,
		f.AmountDue, f.Notes, f.Serial, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Pay marks a row paid: paid flag, payment timestamp and stub serial are set
// in one statement. The serial is written unconditionally; reuse across rows
// is allowed and surfaced to operators through SerialExists.
func (r *AttendeeRepo) Pay(ctx context.Context, id int64, serial string) (int64, error) {
	const q = `UPDATE attendees SET paid = 1, paid_at = ?, serial = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, time.Now().UTC(), serial, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelPay reverts a row to the unpaid state. All payment and gate fields
// reset together in one statement: paid, paid_at, serial, verified and
// verified_at. The stub number is being recycled, so gate state cannot
// survive the reset.
func (r *AttendeeRepo) CancelPay(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE attendees
	           SET paid = 0, paid_at = NULL, serial = NULL, verified = 0, verified_at = NULL
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a row. Deleting an unknown id is not an error; the returned
// count is 0.
func (r *AttendeeRepo) Delete(ctx context.Context, id int64) (int64, error) {
	const q = `DELETE FROM attendees WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Search lists attendees. A non-empty q substring-matches klass, student_no,
// name, phone or serial. Unpaid rows sort before paid ones so operators see
// outstanding payments first, then klass and student_no ascending.
func (r *AttendeeRepo) Search(ctx context.Context, q string, page, limit int) ([]Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees`
	args := make([]any, 0, 7)
	if q != "" {
		query += ` WHERE klass LIKE ? OR student_no LIKE ? OR name LIKE ? OR phone LIKE ? OR serial LIKE ?`
		like := "%" + q + "%"
		args = append(args, like, like, like, like, like)
	}
	query += ` ORDER BY paid ASC, klass ASC, student_no ASC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Attendee{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// Stats returns the dashboard aggregate in one scan: total rows, paid rows,
// unpaid remainder and the collected amount (amount_due over paid rows).
func (r *AttendeeRepo) Stats(ctx context.Context) (Stats, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(CASE WHEN paid = 1 THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN paid = 1 THEN amount_due ELSE 0 END), 0)
	           FROM attendees`
	var s Stats
	if err := r.db.QueryRowContext(ctx, q).Scan(&s.Total, &s.Paid, &s.Sum); err != nil {
		return Stats{}, err
	}
	s.Unpaid = s.Total - s.Paid
	return s, nil
}

// SerialExists reports whether any row other than excludeID already carries
// the given serial, and if so which one. Pass excludeID 0 to check all rows.
func (r *AttendeeRepo) SerialExists(ctx context.Context, serial string, excludeID int64) (bool, int64, error) {
	const q = `SELECT id FROM attendees WHERE serial = ? AND id <> ? LIMIT 1`
	var id int64
	err := r.db.QueryRowContext(ctx, q, serial, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, id, nil
}

// SetVerified toggles the gate check-in flag for the row carrying the given
// serial. Returns the number of matched rows; 0 means the serial is unknown.
func (r *AttendeeRepo) SetVerified(ctx context.Context, serial string, verified bool) (int64, error) {
	var res sql.Result
	var err error
	if verified {
		const q = `UPDATE attendees SET verified = 1, verified_at = ? WHERE serial = ?`
		res, err = r.db.ExecContext(ctx, q, time.Now().UTC(), serial)
	} else {
		const q = `UPDATE attendees SET verified = 0, verified_at = NULL WHERE serial = ?`
		res, err = r.db.ExecContext(ctx, q, serial)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
