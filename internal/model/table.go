package model

import "time"

// Table categories describe where in the restaurant a table is placed.
const (
	TableCategoryIndoor  = "indoor"
	TableCategoryOutdoor = "outdoor"
	TableCategoryPrivate = "private"
)

// Table statuses.  A table is `reserved` or `occupied` exactly while a
// non-cancelled reservation is bound to it and `available` otherwise;
// direct admin edits may force any value regardless of bindings.
const (
	TableStatusAvailable = "available"
	TableStatusReserved  = "reserved"
	TableStatusOccupied  = "occupied"
)

// ValidTableCategory reports whether s is one of the known categories.
func ValidTableCategory(s string) bool {
	switch s {
	case TableCategoryIndoor, TableCategoryOutdoor, TableCategoryPrivate:
		return true
	}
	return false
}

// ValidTableStatus reports whether s is one of the known table statuses.
func ValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusReserved, TableStatusOccupied:
		return true
	}
	return false
}

// Table describes a physical seating resource in the restaurant as
// stored in the `restaurant_tables` table.  Tables are uniquely
// identified by their human-facing Number in addition to the primary
// key.
//
// Fields:
//  ID                   – primary key identifier.
//  Number               – unique human-facing table number/label.
//  Capacity             – maximum party size the table seats.
//  Category             – indoor, outdoor or private.
//  Status               – available, reserved or occupied.
//  CurrentReservationID – reservation currently holding the table
//                         (nil while the table is free).
//  CreatedAt            – timestamp of creation.
//  UpdatedAt            – timestamp of last update.
type Table struct {
	ID                   uint64    // restaurant_tables.id
	Number               string    // restaurant_tables.table_number
	Capacity             uint32    // restaurant_tables.capacity
	Category             string    // restaurant_tables.category
	Status               string    // restaurant_tables.status
	CurrentReservationID *uint64   // restaurant_tables.current_reservation_id (nullable)
	CreatedAt            time.Time // restaurant_tables.created_at
	UpdatedAt            time.Time // restaurant_tables.updated_at
}
