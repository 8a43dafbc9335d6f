package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"strings"      // strings builds the dynamic listing filter

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ErrTableNotFound is returned when a table lookup fails.
var ErrTableNotFound = errors.New("table not found")

// ErrTableNumberExists is returned when creating a table whose
// human-facing number is already taken.  Uniqueness is checked
// explicitly here so the contract is visible rather than delegated to
// the storage engine, though a unique index backs it as well.
var ErrTableNumberExists = errors.New("table number already exists")

// TableRepo is the table registry: the source of truth for table
// existence, capacity, category and status.  Status flips that pair with
// reservation writes go through the Tx variants so both mutations commit
// together.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, table_number, capacity, category, status, current_reservation_id, created_at, updated_at`

func scanTable(row interface{ Scan(...interface{}) error }, t *model.Table) error {
	var resID sql.NullInt64
	if err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Category, &t.Status, &resID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	if resID.Valid {
		id := uint64(resID.Int64)
		t.CurrentReservationID = &id
	}
	return nil
}

// Create inserts a new table. It first checks the human-facing number for
// uniqueness and returns ErrTableNumberExists on a clash (the unique
// index catches the remaining race, reported as MySQL error 1062).  New
// tables always start available. On success the struct is refreshed from
// the stored row.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM restaurant_tables WHERE table_number = ?)`,
		t.Number).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrTableNumberExists
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurant_tables (table_number, capacity, category) VALUES (?, ?, ?)`,
		t.Number, t.Capacity, t.Category)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`, t.ID).
		Scan(&t.ID, &t.Number, &t.Capacity, &t.Category, &t.Status, new(sql.NullInt64), &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a table by its primary key.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	var t model.Table
	err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// BoundReservation is the slimmed-down view of the reservation currently
// holding a table, embedded in listing rows.
type BoundReservation struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"user_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Guests uint32 `json:"guests"`
	Status string `json:"status"`
}

// TableWithReservation pairs a table with the reservation bound to it,
// if any.  It is the row shape returned by List.
type TableWithReservation struct {
	ID          uint64            `json:"id"`
	Number      string            `json:"number"`
	Capacity    uint32            `json:"capacity"`
	Category    string            `json:"category"`
	Status      string            `json:"status"`
	Reservation *BoundReservation `json:"current_reservation,omitempty"`
}

// List returns all tables matching the filter together with their bound
// reservation.  search performs a free-text match against the table
// number and category; category narrows to an exact category unless
// empty or "all".  Results are ordered by id for deterministic output.
func (r *TableRepo) List(ctx context.Context, search, category string) ([]TableWithReservation, error) {
	q := `SELECT t.id, t.table_number, t.capacity, t.category, t.status,
	             r.id, r.user_id, r.reserve_date, r.reserve_time, r.guests, r.status
	      FROM restaurant_tables t
	      LEFT JOIN reservations r ON r.id = t.current_reservation_id`
	var conds []string
	var args []interface{}
	if search != "" {
		conds = append(conds, `(t.table_number LIKE ? OR t.category LIKE ?)`)
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	if category != "" && category != "all" {
		conds = append(conds, `t.category = ?`)
		args = append(args, category)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY t.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TableWithReservation, 0)
	for rows.Next() {
		var row TableWithReservation
		var (
			resID     sql.NullInt64
			resUserID sql.NullInt64
			resDate   sql.NullTime
			resTime   sql.NullString
			resGuests sql.NullInt64
			resStatus sql.NullString
		)
		if err := rows.Scan(
			&row.ID, &row.Number, &row.Capacity, &row.Category, &row.Status,
			&resID, &resUserID, &resDate, &resTime, &resGuests, &resStatus,
		); err != nil {
			return nil, err
		}
		if resID.Valid {
			row.Reservation = &BoundReservation{
				ID:     uint64(resID.Int64),
				UserID: uint64(resUserID.Int64),
				Guests: uint32(resGuests.Int64),
				Status: resStatus.String,
				Time:   resTime.String,
			}
			if resDate.Valid {
				row.Reservation.Date = resDate.Time.Format("2006-01-02")
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TableUpdate carries a partial update for a table.  Nil fields are left
// untouched.  Status is the administrator escape hatch: writing it here
// bypasses reservation-consistency checks entirely and can desynchronize
// the status from the actual bindings; it exists for manual correction.
type TableUpdate struct {
	Number   *string
	Capacity *uint32
	Category *string
	Status   *string
}

// Update applies a partial update and returns the stored row.  It
// returns ErrTableNotFound when the id is unknown and
// ErrTableNumberExists when renaming onto a taken number.
func (r *TableRepo) Update(ctx context.Context, id uint64, upd TableUpdate) (*model.Table, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Number != nil {
		t.Number = *upd.Number
	}
	if upd.Capacity != nil {
		t.Capacity = *upd.Capacity
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE restaurant_tables
		 SET table_number = ?, capacity = ?, category = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.Number, t.Capacity, t.Category, t.Status, id)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return nil, ErrTableNumberExists
		}
		return nil, err
	}
	return t, nil
}

// Delete removes a table. It refuses with ErrConflict while any
// non-cancelled reservation is bound to the table so that no active
// reservation is left pointing at a missing table.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	var bound bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE table_id = ? AND status <> 'cancelled')`,
		id).Scan(&bound); err != nil {
		return err
	}
	if bound {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// CountAvailable returns the number of tables currently available, used
// by the admin dashboard.
func (r *TableRepo) CountAvailable(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM restaurant_tables WHERE status = 'available'`).Scan(&n)
	return n, err
}

// ReserveTx flips a table from available to reserved and records the
// owning reservation, inside the caller's transaction.  The update is
// conditioned on the current status so two concurrent allocations cannot
// both claim the table: the loser sees zero affected rows and gets
// ErrConflict back.
func (r *TableRepo) ReserveTx(ctx context.Context, tx *sql.Tx, tableID, reservationID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE restaurant_tables
		 SET status = 'reserved', current_reservation_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		reservationID, tableID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// ReleaseTx returns a table to available inside the caller's
// transaction, but only while the given reservation still owns the
// binding.  Releasing an already-released table is a no-op.
func (r *TableRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, tableID, reservationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE restaurant_tables
		 SET status = 'available', current_reservation_id = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND current_reservation_id = ?`,
		tableID, reservationID)
	return err
}

// FindAvailable returns the first table of the requested category that
// is available and seats at least guests, scanning in id order.  The
// row is not locked; the conditional update in ReserveTx arbitrates
// concurrent winners.  sql.ErrNoRows propagates when nothing matches.
func (r *TableRepo) FindAvailable(ctx context.Context, category string, guests uint32) (*model.Table, error) {
	var t model.Table
	err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables
		 WHERE category = ? AND status = 'available' AND capacity >= ?
		 ORDER BY id
		 LIMIT 1`,
		category, guests), &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
