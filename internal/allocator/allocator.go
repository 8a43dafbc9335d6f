// Package allocator implements the reservation lifecycle: picking a
// table for a party, binding it atomically, and the update, cancel and
// delete transitions that follow.  It talks to storage through the
// Store interface so the same rules run against MySQL in production and
// an in-memory store in tests.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Sentinel errors returned by the allocator.  Handlers map these onto
// HTTP status codes; everything else is treated as a storage failure.
var (
	// ErrInvalidInput covers malformed dates, times, guest counts and
	// categories.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoAvailableTable means no available table of the requested
	// category seats the party.
	ErrNoAvailableTable = errors.New("no available table")
	// ErrNotFound means the reservation does not exist.
	ErrNotFound = errors.New("reservation not found")
	// ErrForbidden means the caller does not own the reservation.
	ErrForbidden = errors.New("forbidden")
	// ErrSlotConflict means an update tried to move a reservation onto
	// a date and time another live reservation already occupies.
	ErrSlotConflict = errors.New("slot already reserved")
	// ErrNotCancelled means a delete was attempted on a reservation
	// that has not been cancelled first.
	ErrNotCancelled = errors.New("reservation not cancelled")
	// ErrTableUnavailable is returned by Store.BindReservation when the
	// selected table was claimed concurrently.  The allocator retries
	// selection; callers never see it unless retries are exhausted.
	ErrTableUnavailable = errors.New("table no longer available")
)

// Store is the storage contract the allocator runs against.
type Store interface {
	// FindAvailableTable returns the first available table of the given
	// category seating at least guests, or ErrNoAvailableTable.
	FindAvailableTable(ctx context.Context, category string, guests uint32) (*model.Table, error)
	// BindReservation persists the reservation and claims the table it
	// names, atomically.  It returns ErrTableUnavailable when the table
	// was taken between selection and claim.
	BindReservation(ctx context.Context, res *model.Reservation) error
	// GetReservation returns a reservation or ErrNotFound.
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// SlotTaken reports whether a non-cancelled reservation other than
	// excludeID occupies the date and time.
	SlotTaken(ctx context.Context, date, timeOfDay string, excludeID uint64) (bool, error)
	// UpdateReservation rewrites the reservation's mutable fields.
	UpdateReservation(ctx context.Context, res *model.Reservation) error
	// CancelReservation marks the reservation cancelled and releases
	// its table in the same unit of work.
	CancelReservation(ctx context.Context, id uint64) error
	// DeleteReservation removes the row, or returns ErrNotFound.
	DeleteReservation(ctx context.Context, id uint64) error
	// AssignTable rebinds the reservation to the given table, verifying
	// both exist.  Table statuses are left untouched.
	AssignTable(ctx context.Context, reservationID, tableID uint64) error
}

// maxBindAttempts bounds how many times Create re-selects a table after
// losing the claim race before giving up.
const maxBindAttempts = 3

// Allocator applies the reservation rules on top of a Store.
type Allocator struct {
	store Store
}

// New returns an Allocator backed by the given store.
func New(store Store) *Allocator {
	return &Allocator{store: store}
}

// CreateRequest is the input for a new reservation.
type CreateRequest struct {
	UserID   uint64
	Date     string // YYYY-MM-DD
	Time     string // HH:MM, 24h
	Guests   uint32
	Category string
}

func validateSlot(date, timeOfDay string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return fmt.Errorf("%w: bad time %q", ErrInvalidInput, timeOfDay)
	}
	return nil
}

// Create allocates a table for the request and persists a confirmed
// reservation bound to it.  Selection is first-match in table order;
// when the claim is lost to a concurrent booking the selection runs
// again, up to maxBindAttempts times, after which the request fails as
// if no table were available.  Table supply is the only limit on a
// slot: the same date and time books as many parties as there are
// fitting tables, and once none remain the failure is
// ErrNoAvailableTable.
func (a *Allocator) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := validateSlot(req.Date, req.Time); err != nil {
		return nil, err
	}
	if req.Guests == 0 {
		return nil, fmt.Errorf("%w: guests must be at least 1", ErrInvalidInput)
	}
	if !model.ValidTableCategory(req.Category) {
		return nil, fmt.Errorf("%w: bad category %q", ErrInvalidInput, req.Category)
	}
	for attempt := 0; attempt < maxBindAttempts; attempt++ {
		table, err := a.store.FindAvailableTable(ctx, req.Category, req.Guests)
		if err != nil {
			return nil, err
		}
		res := &model.Reservation{
			UserID:   req.UserID,
			TableID:  &table.ID,
			Date:     req.Date,
			Time:     req.Time,
			Guests:   req.Guests,
			Category: req.Category,
			Status:   model.ReservationStatusConfirmed,
		}
		err = a.store.BindReservation(ctx, res)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrTableUnavailable) {
			return nil, err
		}
	}
	return nil, ErrNoAvailableTable
}

// Get returns a reservation, enforcing ownership unless the caller is
// staff.
func (a *Allocator) Get(ctx context.Context, id, callerID uint64, admin bool) (*model.Reservation, error) {
	res, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && res.UserID != callerID {
		return nil, ErrForbidden
	}
	return res, nil
}

// UpdateRequest carries a partial reservation update.  Nil fields are
// left as they are.  Status is honored only for staff callers.
type UpdateRequest struct {
	Date     *string
	Time     *string
	Guests   *uint32
	Category *string
	Status   *string
}

// Update applies an update to a reservation.  Moving the slot re-checks
// the date and time against every other live reservation; changing the
// party size or seating preference keeps the table already allocated.
// Staff may additionally rewrite the status to any valid value.
func (a *Allocator) Update(ctx context.Context, id, callerID uint64, admin bool, upd UpdateRequest) (*model.Reservation, error) {
	res, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && res.UserID != callerID {
		return nil, ErrForbidden
	}
	slotMoved := false
	if upd.Date != nil && *upd.Date != res.Date {
		res.Date = *upd.Date
		slotMoved = true
	}
	if upd.Time != nil && *upd.Time != res.Time {
		res.Time = *upd.Time
		slotMoved = true
	}
	if upd.Guests != nil {
		if *upd.Guests == 0 {
			return nil, fmt.Errorf("%w: guests must be at least 1", ErrInvalidInput)
		}
		res.Guests = *upd.Guests
	}
	if upd.Category != nil {
		if !model.ValidTableCategory(*upd.Category) {
			return nil, fmt.Errorf("%w: bad category %q", ErrInvalidInput, *upd.Category)
		}
		res.Category = *upd.Category
	}
	if upd.Status != nil {
		if !admin {
			return nil, ErrForbidden
		}
		if !model.ValidReservationStatus(*upd.Status) {
			return nil, fmt.Errorf("%w: bad status %q", ErrInvalidInput, *upd.Status)
		}
		res.Status = *upd.Status
	}
	if slotMoved {
		if err := validateSlot(res.Date, res.Time); err != nil {
			return nil, err
		}
		taken, err := a.store.SlotTaken(ctx, res.Date, res.Time, res.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlotConflict
		}
	}
	if err := a.store.UpdateReservation(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel marks a reservation cancelled and releases its table.
// Cancelling an already-cancelled reservation is a no-op.
func (a *Allocator) Cancel(ctx context.Context, id, callerID uint64, admin bool) (*model.Reservation, error) {
	res, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && res.UserID != callerID {
		return nil, ErrForbidden
	}
	if res.Status == model.ReservationStatusCancelled {
		return res, nil
	}
	if err := a.store.CancelReservation(ctx, id); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatusCancelled
	return res, nil
}

// Delete removes a reservation permanently.  Only cancelled
// reservations may be deleted; live ones must be cancelled first so the
// table release bookkeeping always runs.
func (a *Allocator) Delete(ctx context.Context, id, callerID uint64, admin bool) error {
	res, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if !admin && res.UserID != callerID {
		return ErrForbidden
	}
	if res.Status != model.ReservationStatusCancelled {
		return ErrNotCancelled
	}
	return a.store.DeleteReservation(ctx, id)
}

// AssignTable rebinds a reservation to a specific table, bypassing the
// automatic selection.  Statuses of both the old and new table are left
// as they are; this is the staff override for seating a party by hand.
func (a *Allocator) AssignTable(ctx context.Context, reservationID, tableID uint64) error {
	return a.store.AssignTable(ctx, reservationID, tableID)
}
