package allocator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// InMemory is a Store kept entirely in process memory.  It mirrors the
// claim semantics of the MySQL store, including the lost-claim error,
// so allocation behavior can be exercised without a database.
type InMemory struct {
	mu           sync.Mutex
	tables       map[uint64]*model.Table
	reservations map[uint64]*model.Reservation
	nextTableID  uint64
	nextResID    uint64
	// claimHook, when set, runs between table selection and the claim.
	// Tests use it to interleave a competing booking.
	claimHook func()
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		tables:       make(map[uint64]*model.Table),
		reservations: make(map[uint64]*model.Reservation),
	}
}

// AddTable registers a table and returns its assigned id.  New tables
// start available unless a status is already set.
func (s *InMemory) AddTable(t model.Table) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTableID++
	t.ID = s.nextTableID
	if t.Status == "" {
		t.Status = model.TableStatusAvailable
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tables[t.ID] = &t
	return t.ID
}

// Table returns a copy of the stored table, for assertions.
func (s *InMemory) Table(id uint64) (model.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return model.Table{}, false
	}
	return *t, true
}

// SetClaimHook installs a function run between selection and claim.
func (s *InMemory) SetClaimHook(fn func()) { s.claimHook = fn }

func (s *InMemory) FindAvailableTable(_ context.Context, category string, guests uint32) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		t := s.tables[id]
		if t.Category == category && t.Status == model.TableStatusAvailable && t.Capacity >= guests {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNoAvailableTable
}

func (s *InMemory) BindReservation(_ context.Context, res *model.Reservation) error {
	if s.claimHook != nil {
		s.claimHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[*res.TableID]
	if !ok || t.Status != model.TableStatusAvailable {
		return ErrTableUnavailable
	}
	s.nextResID++
	res.ID = s.nextResID
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	cp := *res
	s.reservations[res.ID] = &cp
	t.Status = model.TableStatusReserved
	t.CurrentReservationID = &res.ID
	return nil
}

func (s *InMemory) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *InMemory) SlotTaken(_ context.Context, date, timeOfDay string, excludeID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range s.reservations {
		if res.ID == excludeID || res.Status == model.ReservationStatusCancelled {
			continue
		}
		if res.Date == date && res.Time == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) UpdateReservation(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[res.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *res
	cp.CreatedAt = stored.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.reservations[res.ID] = &cp
	return nil
}

func (s *InMemory) CancelReservation(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.Status = model.ReservationStatusCancelled
	res.UpdatedAt = time.Now().UTC()
	if res.TableID != nil {
		if t, ok := s.tables[*res.TableID]; ok && t.CurrentReservationID != nil && *t.CurrentReservationID == id {
			t.Status = model.TableStatusAvailable
			t.CurrentReservationID = nil
		}
	}
	return nil
}

func (s *InMemory) DeleteReservation(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *InMemory) AssignTable(_ context.Context, reservationID, tableID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.tables[tableID]; !ok {
		return ErrNotFound
	}
	res.TableID = &tableID
	res.UpdatedAt = time.Now().UTC()
	return nil
}
