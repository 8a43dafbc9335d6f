package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableRegistry is the storage surface the table endpoints need.  The
// MySQL repository implements it; tests substitute a stub.
type TableRegistry interface {
	Create(ctx context.Context, t *model.Table) error
	List(ctx context.Context, search, category string) ([]repository.TableWithReservation, error)
	Update(ctx context.Context, id uint64, upd repository.TableUpdate) (*model.Table, error)
	Delete(ctx context.Context, id uint64) error
}

// TableHandler serves the table registry endpoints: the authenticated
// listing plus the staff-only CRUD.
type TableHandler struct {
	Tables TableRegistry
}

func NewTableHandler(tables TableRegistry) *TableHandler {
	return &TableHandler{Tables: tables}
}

type createTableReq struct {
	Number   string `json:"number" validate:"required,max=32"`
	Capacity uint32 `json:"capacity" validate:"required,min=1"`
	Category string `json:"category" validate:"required"`
}

type updateTableReq struct {
	Number   *string `json:"number"`
	Capacity *uint32 `json:"capacity"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

type tableResp struct {
	ID       uint64 `json:"id"`
	Number   string `json:"number"`
	Capacity uint32 `json:"capacity"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func toTableResp(t *model.Table) tableResp {
	return tableResp{ID: t.ID, Number: t.Number, Capacity: t.Capacity, Category: t.Category, Status: t.Status}
}

func tableError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, repository.ErrTableNumberExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table has an active reservation"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "table operation failed"})
	}
}

// List returns all tables with their bound reservation.  The search and
// category query parameters narrow the result.  Responses are cached by
// the Redis middleware wrapping this route.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Tables.List(ctx, c.QueryParam("search"), c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": items})
}

// Create registers a new table, staff only.
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if !model.ValidTableCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.Table{Number: req.Number, Capacity: req.Capacity, Category: req.Category}
	if err := h.Tables.Create(ctx, t); err != nil {
		return tableError(c, err)
	}
	return c.JSON(http.StatusCreated, toTableResp(t))
}

// Update applies a partial table update, staff only.  Writing the
// status field is the manual override and skips reservation checks.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Category != nil && !model.ValidTableCategory(*req.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	if req.Status != nil && !model.ValidTableStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.Capacity != nil && *req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be at least 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tables.Update(ctx, id, repository.TableUpdate{
		Number:   req.Number,
		Capacity: req.Capacity,
		Category: req.Category,
		Status:   req.Status,
	})
	if err != nil {
		return tableError(c, err)
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// Delete removes a table that has no active reservation, staff only.
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tables.Delete(ctx, id); err != nil {
		return tableError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
