package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-table-reservation/internal/allocator"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// AllocStore is the MySQL-backed allocator.Store.  It composes the
// table and reservation repositories and owns the transactions that
// keep a reservation row and its table's status moving together.
type AllocStore struct {
	db           *sql.DB
	tables       *TableRepo
	reservations *ReservationRepo
}

// NewAllocStore wires an AllocStore over the shared repositories.
func NewAllocStore(db *sql.DB, tables *TableRepo, reservations *ReservationRepo) *AllocStore {
	return &AllocStore{db: db, tables: tables, reservations: reservations}
}

// FindAvailableTable delegates to the table registry and translates a
// miss into the allocator's sentinel.
func (s *AllocStore) FindAvailableTable(ctx context.Context, category string, guests uint32) (*model.Table, error) {
	t, err := s.tables.FindAvailable(ctx, category, guests)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, allocator.ErrNoAvailableTable
		}
		return nil, err
	}
	return t, nil
}

// BindReservation inserts the reservation and claims its table in one
// transaction.  The claim is conditioned on the table still being
// available; losing that race rolls the insert back and reports
// ErrTableUnavailable so the allocator can pick another table.
func (s *AllocStore) BindReservation(ctx context.Context, res *model.Reservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return err
	}
	if err := s.tables.ReserveTx(ctx, tx, *res.TableID, res.ID); err != nil {
		if errors.Is(err, ErrConflict) {
			return allocator.ErrTableUnavailable
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *AllocStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, allocator.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *AllocStore) SlotTaken(ctx context.Context, date, timeOfDay string, excludeID uint64) (bool, error) {
	return s.reservations.SlotTaken(ctx, date, timeOfDay, excludeID)
}

func (s *AllocStore) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	err := s.reservations.UpdateFields(ctx, res)
	if errors.Is(err, ErrReservationNotFound) {
		return allocator.ErrNotFound
	}
	return err
}

// CancelReservation flips the reservation to cancelled and releases its
// table inside a single transaction.
func (s *AllocStore) CancelReservation(ctx context.Context, id uint64) error {
	res, err := s.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.reservations.CancelTx(ctx, tx, id); err != nil {
		return err
	}
	if res.TableID != nil {
		if err := s.tables.ReleaseTx(ctx, tx, *res.TableID, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *AllocStore) DeleteReservation(ctx context.Context, id uint64) error {
	err := s.reservations.Delete(ctx, id)
	if errors.Is(err, ErrReservationNotFound) {
		return allocator.ErrNotFound
	}
	return err
}

// AssignTable verifies both ends exist and rebinds the reservation.
// The table statuses are deliberately left untouched.
func (s *AllocStore) AssignTable(ctx context.Context, reservationID, tableID uint64) error {
	if _, err := s.tables.GetByID(ctx, tableID); err != nil {
		if errors.Is(err, ErrTableNotFound) {
			return allocator.ErrNotFound
		}
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.reservations.AssignTableTx(ctx, tx, reservationID, tableID); err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return allocator.ErrNotFound
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
