package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/allocator"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

type stubLister struct {
	items []repository.ReservationDetail
	err   error
}

func (s *stubLister) ListByUser(context.Context, uint64) ([]repository.ReservationDetail, error) {
	return s.items, s.err
}

func newReservationFixture() (*ReservationHandler, *allocator.InMemory) {
	store := allocator.NewInMemory()
	store.AddTable(model.Table{Number: "T1", Capacity: 2, Category: model.TableCategoryIndoor})
	store.AddTable(model.Table{Number: "T2", Capacity: 6, Category: model.TableCategoryIndoor})
	return NewReservationHandler(allocator.New(store), &stubLister{}), store
}

func asCustomer(c echo.Context, userID uint64) echo.Context {
	c.Set("user_id", userID)
	c.Set("role", model.RoleCustomer)
	return c
}

func TestReservationCreate(t *testing.T) {
	h, store := newReservationFixture()
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":4,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"confirmed"`)
	require.Contains(t, rec.Body.String(), `"table_id":2`)

	tbl, ok := store.Table(2)
	require.True(t, ok)
	require.Equal(t, model.TableStatusReserved, tbl.Status)
}

func TestReservationCreateSameSlot(t *testing.T) {
	h, _ := newReservationFixture()
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A second booking at the same date and time gets the next table.
	c, rec = doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 2)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"table_id":2`)

	// Once every table is taken the slot fails as fully booked.
	c, rec = doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 3)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "no available table")
}

func TestReservationCreateNoTable(t *testing.T) {
	h, _ := newReservationFixture()
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":12,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "no available table")
}

func TestReservationCreateValidation(t *testing.T) {
	h, _ := newReservationFixture()
	e := newEcho()

	// guests is required by the DTO.
	c, _ := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","category":"indoor"}`)
	asCustomer(c, 1)
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)

	// A malformed date passes the DTO but fails the allocator.
	c, rec := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"next friday","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationCancelOwnership(t *testing.T) {
	h, store := newReservationFixture()
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))

	// Another customer cannot cancel it.
	c, rec := doJSON(e, http.MethodPost, "/v1/reservations/1/cancel", "")
	asCustomer(c, 2)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The owner can, and the table is released.
	c, rec = doJSON(e, http.MethodPost, "/v1/reservations/1/cancel", "")
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Cancel(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	tbl, _ := store.Table(1)
	require.Equal(t, model.TableStatusAvailable, tbl.Status)
}

func TestReservationDeleteRequiresCancel(t *testing.T) {
	h, _ := newReservationFixture()
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))

	c, rec := doJSON(e, http.MethodDelete, "/v1/reservations/1", "")
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	c, _ = doJSON(e, http.MethodPost, "/v1/reservations/1/cancel", "")
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Cancel(c))

	c, rec = doJSON(e, http.MethodDelete, "/v1/reservations/1", "")
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestReservationUpdateMovesSlot(t *testing.T) {
	h, _ := newReservationFixture()
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/reservations",
		`{"date":"2026-09-10","time":"19:00","guests":2,"category":"indoor"}`)
	asCustomer(c, 1)
	require.NoError(t, h.Create(c))

	c, rec := doJSON(e, http.MethodPut, "/v1/reservations/1", `{"time":"21:00"}`)
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"time":"21:00"`)

	// Customers cannot rewrite the status.
	c, rec = doJSON(e, http.MethodPut, "/v1/reservations/1", `{"status":"pending"}`)
	asCustomer(c, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReservationListMine(t *testing.T) {
	num := "T1"
	lister := &stubLister{items: []repository.ReservationDetail{
		{ID: 1, TableNumber: &num, Date: "2026-09-10", Time: "19:00", Guests: 2, Category: "indoor", Status: "confirmed"},
	}}
	h := NewReservationHandler(allocator.New(allocator.NewInMemory()), lister)
	e := newEcho()

	c, rec := doJSON(e, http.MethodGet, "/v1/reservations", "")
	asCustomer(c, 1)
	require.NoError(t, h.ListMine(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"table_number":"T1"`)
}
