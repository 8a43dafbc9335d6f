package model

import "time"

// Reservation statuses.  Customers always create reservations directly
// as `confirmed`; `pending` is reachable only through the privileged
// admin update path.  `cancelled` is terminal; no transition returns a
// cancelled reservation to an active state.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

// ValidReservationStatus reports whether s is a known reservation status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation records a customer's request to occupy a table at a given
// date and time for a party size, as stored in the `reservations`
// table.  Once allocated, TableID holds the binding to the table; the
// binding exists only while the reservation is non-cancelled.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who owns the reservation.
//  TableID   – table currently bound (nil when unbound).
//  Date      – reservation date in YYYY-MM-DD form.
//  Time      – reservation time of day in HH:MM form.
//  Guests    – requested party size.
//  Category  – table category requested at booking time.
//  Status    – pending, confirmed or cancelled.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	TableID   *uint64   // reservations.table_id (nullable)
	Date      string    // reservations.reserve_date
	Time      string    // reservations.reserve_time
	Guests    uint32    // reservations.guests
	Category  string    // reservations.category
	Status    string    // reservations.status
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}
