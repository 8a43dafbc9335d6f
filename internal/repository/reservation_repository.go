package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides CRUD operations for reservations.  All
// timestamp fields are assumed to be stored in UTC; dates and times of
// the slot itself are kept as strings ("2006-01-02" and "15:04") since
// the restaurant does not interpret them beyond equality.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, table_id, reserve_date, reserve_time, guests, category, status, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }, res *model.Reservation) error {
	var (
		tableID sql.NullInt64
		date    time.Time
	)
	if err := row.Scan(&res.ID, &res.UserID, &tableID, &date, &res.Time,
		&res.Guests, &res.Category, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return err
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		res.TableID = &id
	}
	res.Date = date.Format("2006-01-02")
	return nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and queries the row back so timestamps and defaults are
// populated.  The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, table_id, reserve_date, reserve_time, guests, category, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.UserID, res.TableID, res.Date, res.Time, res.Guests, res.Category, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID), res)
}

// GetByID fetches a reservation by id, translating a miss into
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id), &res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ReservationDetail is the row shape returned to customers: the
// reservation plus the human-facing number of its table, when one is
// still bound.
type ReservationDetail struct {
	ID          uint64  `json:"id"`
	TableID     *uint64 `json:"table_id,omitempty"`
	TableNumber *string `json:"table_number,omitempty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Guests      uint32  `json:"guests"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
}

// AdminReservationDetail extends ReservationDetail with the customer's
// identity for staff-facing listings.
type AdminReservationDetail struct {
	ReservationDetail
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

func scanDetail(rows *sql.Rows, d *ReservationDetail, extra ...interface{}) error {
	var (
		tableID  sql.NullInt64
		tableNum sql.NullString
		date     time.Time
	)
	dest := []interface{}{&d.ID, &tableID, &tableNum, &date, &d.Time, &d.Guests, &d.Category, &d.Status}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		d.TableID = &id
	}
	if tableNum.Valid {
		n := tableNum.String
		d.TableNumber = &n
	}
	d.Date = date.Format("2006-01-02")
	return nil
}

// ListByUser returns all reservations for the given user ordered by the
// slot they occupy, soonest first.  When no reservations exist an empty
// slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.table_id, t.table_number, r.reserve_date, r.reserve_time, r.guests, r.category, r.status
		 FROM reservations r
		 LEFT JOIN restaurant_tables t ON t.id = r.table_id
		 WHERE r.user_id = ?
		 ORDER BY r.reserve_date, r.reserve_time`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := scanDetail(rows, &d); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ListAll returns every reservation with customer identity attached,
// newest first, for the staff listing.  status narrows to a single
// reservation status unless empty or "all".
func (r *ReservationRepo) ListAll(ctx context.Context, status string) ([]AdminReservationDetail, error) {
	q := `SELECT r.id, r.table_id, t.table_number, r.reserve_date, r.reserve_time, r.guests, r.category, r.status,
	             r.user_id, u.name, u.email, r.created_at
	      FROM reservations r
	      JOIN users u ON u.id = r.user_id
	      LEFT JOIN restaurant_tables t ON t.id = r.table_id`
	var args []interface{}
	if status != "" && status != "all" {
		q += " WHERE r.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY r.created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]AdminReservationDetail, 0)
	for rows.Next() {
		var d AdminReservationDetail
		if err := scanDetail(rows, &d.ReservationDetail,
			&d.UserID, &d.UserName, &d.UserEmail, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// SlotTaken reports whether any non-cancelled reservation other than
// excludeID already occupies the given date and time.  Pass excludeID 0
// when creating.
func (r *ReservationRepo) SlotTaken(ctx context.Context, date, timeOfDay string, excludeID uint64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM reservations
		   WHERE reserve_date = ? AND reserve_time = ? AND status <> 'cancelled' AND id <> ?
		 )`, date, timeOfDay, excludeID).Scan(&taken)
	return taken, err
}

// UpdateFields rewrites the mutable columns of a reservation from the
// given model.  Ownership and status transitions are decided by the
// caller; this is a plain write.
func (r *ReservationRepo) UpdateFields(ctx context.Context, res *model.Reservation) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations
		 SET table_id = ?, reserve_date = ?, reserve_time = ?, guests = ?, category = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		res.TableID, res.Date, res.Time, res.Guests, res.Category, res.Status, res.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Distinguish a missing row from an update that changed nothing.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, res.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrReservationNotFound
		}
	}
	return nil
}

// CancelTx marks a reservation cancelled inside the caller's
// transaction.  The bound table, if any, is released by the caller via
// TableRepo.ReleaseTx so both flips commit together.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// AssignTableTx rebinds a reservation to the given table without
// touching either table's status.  Staff use this to move a party; the
// status bookkeeping stays whatever it was.
func (r *ReservationRepo) AssignTableTx(ctx context.Context, tx *sql.Tx, reservationID, tableID uint64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET table_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tableID, reservationID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// Delete removes a reservation row.  Callers enforce that only
// cancelled reservations are deleted.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// CountAll returns the total number of reservations ever placed.
func (r *ReservationRepo) CountAll(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&n)
	return n, err
}

// CountForDate returns the number of non-cancelled reservations whose
// slot falls on the given date, used for the dashboard's today figure.
func (r *ReservationRepo) CountForDate(ctx context.Context, date string) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE reserve_date = ? AND status <> 'cancelled'`, date).Scan(&n)
	return n, err
}

// RecentWithUser returns the most recently created reservations with
// customer identity, capped at limit.
func (r *ReservationRepo) RecentWithUser(ctx context.Context, limit int) ([]AdminReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.table_id, t.table_number, r.reserve_date, r.reserve_time, r.guests, r.category, r.status,
		        r.user_id, u.name, u.email, r.created_at
		 FROM reservations r
		 JOIN users u ON u.id = r.user_id
		 LEFT JOIN restaurant_tables t ON t.id = r.table_id
		 ORDER BY r.created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]AdminReservationDetail, 0, limit)
	for rows.Next() {
		var d AdminReservationDetail
		if err := scanDetail(rows, &d.ReservationDetail,
			&d.UserID, &d.UserName, &d.UserEmail, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
