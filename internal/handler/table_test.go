package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// stubRegistry is a TableRegistry kept in a map, enough to drive the
// handler without a database.
type stubRegistry struct {
	tables map[uint64]*model.Table
	nextID uint64
	bound  map[uint64]bool // table id -> has active reservation
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{tables: make(map[uint64]*model.Table), bound: make(map[uint64]bool)}
}

func (s *stubRegistry) Create(_ context.Context, t *model.Table) error {
	for _, existing := range s.tables {
		if existing.Number == t.Number {
			return repository.ErrTableNumberExists
		}
	}
	s.nextID++
	t.ID = s.nextID
	t.Status = model.TableStatusAvailable
	cp := *t
	s.tables[t.ID] = &cp
	return nil
}

func (s *stubRegistry) List(_ context.Context, search, category string) ([]repository.TableWithReservation, error) {
	out := make([]repository.TableWithReservation, 0)
	for _, t := range s.tables {
		if category != "" && category != "all" && t.Category != category {
			continue
		}
		if search != "" && !strings.Contains(t.Number, search) {
			continue
		}
		out = append(out, repository.TableWithReservation{
			ID: t.ID, Number: t.Number, Capacity: t.Capacity, Category: t.Category, Status: t.Status,
		})
	}
	return out, nil
}

func (s *stubRegistry) Update(_ context.Context, id uint64, upd repository.TableUpdate) (*model.Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrTableNotFound
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
	cp := *t
	return &cp, nil
}

func (s *stubRegistry) Delete(_ context.Context, id uint64) error {
	if _, ok := s.tables[id]; !ok {
		return repository.ErrTableNotFound
	}
	if s.bound[id] {
		return repository.ErrConflict
	}
	delete(s.tables, id)
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func doJSON(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestTableCreateAndList(t *testing.T) {
	reg := newStubRegistry()
	h := NewTableHandler(reg)
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/admin/tables",
		`{"number":"T1","capacity":4,"category":"indoor"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"number":"T1"`)
	require.Contains(t, rec.Body.String(), `"status":"available"`)

	// Duplicate number is rejected.
	c, rec = doJSON(e, http.MethodPost, "/v1/admin/tables",
		`{"number":"T1","capacity":2,"category":"outdoor"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	c, rec = doJSON(e, http.MethodGet, "/v1/tables", "")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tables"`)
}

func TestTableCreateValidation(t *testing.T) {
	h := NewTableHandler(newStubRegistry())
	e := newEcho()

	// Missing capacity fails struct validation.
	c, _ := doJSON(e, http.MethodPost, "/v1/admin/tables", `{"number":"T1","category":"indoor"}`)
	err := h.Create(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)

	// Unknown category is rejected before touching storage.
	c, rec := doJSON(e, http.MethodPost, "/v1/admin/tables",
		`{"number":"T1","capacity":4,"category":"rooftop"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTableUpdateStatusOverride(t *testing.T) {
	reg := newStubRegistry()
	h := NewTableHandler(reg)
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/admin/tables",
		`{"number":"T1","capacity":4,"category":"indoor"}`)
	require.NoError(t, h.Create(c))

	c, rec := doJSON(e, http.MethodPut, "/v1/admin/tables/1", `{"status":"occupied"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"occupied"`)

	c, rec = doJSON(e, http.MethodPut, "/v1/admin/tables/1", `{"status":"broken"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTableDeleteConflict(t *testing.T) {
	reg := newStubRegistry()
	h := NewTableHandler(reg)
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/admin/tables",
		`{"number":"T1","capacity":4,"category":"indoor"}`)
	require.NoError(t, h.Create(c))
	reg.bound[1] = true

	c, rec := doJSON(e, http.MethodDelete, "/v1/admin/tables/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	reg.bound[1] = false
	c, rec = doJSON(e, http.MethodDelete, "/v1/admin/tables/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = doJSON(e, http.MethodDelete, "/v1/admin/tables/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
