package allocator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func newTestStore() *InMemory {
	s := NewInMemory()
	s.AddTable(model.Table{Number: "T1", Capacity: 2, Category: model.TableCategoryIndoor})
	s.AddTable(model.Table{Number: "T2", Capacity: 6, Category: model.TableCategoryIndoor})
	s.AddTable(model.Table{Number: "G1", Capacity: 4, Category: model.TableCategoryOutdoor})
	return s
}

func TestCreatePicksFirstFittingTable(t *testing.T) {
	store := newTestStore()
	a := New(store)

	res, err := a.Create(context.Background(), CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 4, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	require.NotNil(t, res.TableID)
	// T1 seats only 2, so the 4-guest party lands on T2.
	require.Equal(t, uint64(2), *res.TableID)
	require.Equal(t, model.ReservationStatusConfirmed, res.Status)

	tbl, ok := store.Table(2)
	require.True(t, ok)
	require.Equal(t, model.TableStatusReserved, tbl.Status)
	require.NotNil(t, tbl.CurrentReservationID)
	require.Equal(t, res.ID, *tbl.CurrentReservationID)
}

func TestCreateNoAvailableTable(t *testing.T) {
	store := newTestStore()
	a := New(store)

	_, err := a.Create(context.Background(), CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 10, Category: model.TableCategoryIndoor,
	})
	require.ErrorIs(t, err, ErrNoAvailableTable)
}

func TestCreateRejectsBadInput(t *testing.T) {
	a := New(newTestStore())
	ctx := context.Background()

	cases := []CreateRequest{
		{UserID: 1, Date: "10-09-2026", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor},
		{UserID: 1, Date: "2026-09-10", Time: "7pm", Guests: 2, Category: model.TableCategoryIndoor},
		{UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 0, Category: model.TableCategoryIndoor},
		{UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: "rooftop"},
	}
	for _, req := range cases {
		_, err := a.Create(ctx, req)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCreateSameSlotBooksUntilTablesRunOut(t *testing.T) {
	store := newTestStore()
	a := New(store)
	ctx := context.Background()

	first, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), *first.TableID)

	// A second party at the same date and time takes the next table.
	second, err := a.Create(ctx, CreateRequest{
		UserID: 2, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), *second.TableID)

	// With both indoor tables taken the slot is full.
	_, err = a.Create(ctx, CreateRequest{
		UserID: 3, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.ErrorIs(t, err, ErrNoAvailableTable)

	// The outdoor table is unaffected by the indoor bookings.
	_, err = a.Create(ctx, CreateRequest{
		UserID: 3, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryOutdoor,
	})
	require.NoError(t, err)
}

func TestCreateRetriesAfterLostClaim(t *testing.T) {
	store := newTestStore()
	a := New(store)
	ctx := context.Background()

	// A rival books T1 between selection and claim; the allocator must
	// fall back to T2 instead of failing.
	store.SetClaimHook(func() {
		store.SetClaimHook(nil)
		tid := uint64(1)
		rival := &model.Reservation{
			UserID: 9, TableID: &tid, Date: "2026-09-10", Time: "20:00",
			Guests: 2, Category: model.TableCategoryIndoor, Status: model.ReservationStatusConfirmed,
		}
		require.NoError(t, store.BindReservation(ctx, rival))
	})

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), *res.TableID)
}

func TestConcurrentCreateSingleTable(t *testing.T) {
	store := NewInMemory()
	store.AddTable(model.Table{Number: "T1", Capacity: 4, Category: model.TableCategoryIndoor})
	a := New(store)

	// Two parties race for the same slot; exactly one gets the table.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := a.Create(context.Background(), CreateRequest{
				UserID: userID, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
			})
			errs <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(errs)

	var ok, noTable int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrNoAvailableTable)
			noTable++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, noTable)
}

func TestCancelReleasesTableAndIsIdempotent(t *testing.T) {
	store := newTestStore()
	a := New(store)
	ctx := context.Background()

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)

	got, err := a.Cancel(ctx, res.ID, 1, false)
	require.NoError(t, err)
	require.Equal(t, model.ReservationStatusCancelled, got.Status)

	tbl, _ := store.Table(*res.TableID)
	require.Equal(t, model.TableStatusAvailable, tbl.Status)
	require.Nil(t, tbl.CurrentReservationID)

	// Second cancel is a no-op, not an error.
	got, err = a.Cancel(ctx, res.ID, 1, false)
	require.NoError(t, err)
	require.Equal(t, model.ReservationStatusCancelled, got.Status)
}

func TestCancelForbiddenForOtherUser(t *testing.T) {
	a := New(newTestStore())
	ctx := context.Background()

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)

	_, err = a.Cancel(ctx, res.ID, 2, false)
	require.ErrorIs(t, err, ErrForbidden)

	// Staff may cancel anyone's reservation.
	_, err = a.Cancel(ctx, res.ID, 2, true)
	require.NoError(t, err)
}

func TestUpdateMovedSlotChecksConflict(t *testing.T) {
	a := New(newTestStore())
	ctx := context.Background()

	first, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	second, err := a.Create(ctx, CreateRequest{
		UserID: 2, Date: "2026-09-10", Time: "21:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)

	newTime := "19:00"
	_, err = a.Update(ctx, second.ID, 2, false, UpdateRequest{Time: &newTime})
	require.ErrorIs(t, err, ErrSlotConflict)

	// Changing the party size keeps the allocated table and never
	// re-checks the slot.
	guests := uint32(2)
	got, err := a.Update(ctx, first.ID, 1, false, UpdateRequest{Guests: &guests})
	require.NoError(t, err)
	require.Equal(t, *first.TableID, *got.TableID)
}

func TestUpdateStatusIsStaffOnly(t *testing.T) {
	a := New(newTestStore())
	ctx := context.Background()

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)

	pending := model.ReservationStatusPending
	_, err = a.Update(ctx, res.ID, 1, false, UpdateRequest{Status: &pending})
	require.ErrorIs(t, err, ErrForbidden)

	got, err := a.Update(ctx, res.ID, 99, true, UpdateRequest{Status: &pending})
	require.NoError(t, err)
	require.Equal(t, model.ReservationStatusPending, got.Status)
}

func TestDeleteRequiresCancelledFirst(t *testing.T) {
	a := New(newTestStore())
	ctx := context.Background()

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)

	err = a.Delete(ctx, res.ID, 1, false)
	require.ErrorIs(t, err, ErrNotCancelled)

	_, err = a.Cancel(ctx, res.ID, 1, false)
	require.NoError(t, err)
	require.NoError(t, a.Delete(ctx, res.ID, 1, false))

	_, err = a.Get(ctx, res.ID, 1, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssignTableRebindsOnly(t *testing.T) {
	store := newTestStore()
	a := New(store)
	ctx := context.Background()

	res, err := a.Create(ctx, CreateRequest{
		UserID: 1, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: model.TableCategoryIndoor,
	})
	require.NoError(t, err)
	oldTable := *res.TableID

	require.NoError(t, a.AssignTable(ctx, res.ID, 3))

	got, err := a.Get(ctx, res.ID, 1, false)
	require.NoError(t, err)
	require.Equal(t, uint64(3), *got.TableID)

	// Statuses are left untouched on both ends.
	old, _ := store.Table(oldTable)
	require.Equal(t, model.TableStatusReserved, old.Status)
	moved, _ := store.Table(3)
	require.Equal(t, model.TableStatusAvailable, moved.Status)

	require.ErrorIs(t, a.AssignTable(ctx, res.ID, 999), ErrNotFound)
}
