package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/allocator"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// ReservationLister provides the read side of a customer's own
// reservations.  The MySQL repository implements it; tests substitute a
// stub.
type ReservationLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.ReservationDetail, error)
}

// ReservationHandler serves the customer-facing reservation endpoints.
// All allocation decisions live in the allocator; the handler binds
// requests, maps errors and publishes events.
type ReservationHandler struct {
	Alloc  *allocator.Allocator
	Lister ReservationLister
}

func NewReservationHandler(alloc *allocator.Allocator, lister ReservationLister) *ReservationHandler {
	return &ReservationHandler{Alloc: alloc, Lister: lister}
}

type createReservationReq struct {
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Guests   uint32 `json:"guests" validate:"required,min=1"`
	Category string `json:"category" validate:"required"`
}

type updateReservationReq struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Guests   *uint32 `json:"guests"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

type reservationResp struct {
	ID       uint64  `json:"id"`
	TableID  *uint64 `json:"table_id,omitempty"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Guests   uint32  `json:"guests"`
	Category string  `json:"category"`
	Status   string  `json:"status"`
}

func toReservationResp(res *model.Reservation) reservationResp {
	return reservationResp{
		ID:       res.ID,
		TableID:  res.TableID,
		Date:     res.Date,
		Time:     res.Time,
		Guests:   res.Guests,
		Category: res.Category,
		Status:   res.Status,
	}
}

// reservationError maps allocator sentinels onto HTTP responses.
func reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, allocator.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, allocator.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, allocator.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, allocator.ErrSlotConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot already reserved"})
	case errors.Is(err, allocator.ErrNoAvailableTable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no available table"})
	case errors.Is(err, allocator.ErrNotCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancel the reservation first"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation operation failed"})
	}
}

// Create allocates a table and confirms a reservation for the caller.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Alloc.Create(ctx, allocator.CreateRequest{
		UserID:   uid,
		Date:     req.Date,
		Time:     req.Time,
		Guests:   req.Guests,
		Category: req.Category,
	})
	if err != nil {
		return reservationError(c, err)
	}

	// Best effort; a broker outage must not fail the booking.
	_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		TableID:       *res.TableID,
		Date:          res.Date,
		Time:          res.Time,
		Guests:        res.Guests,
		Category:      res.Category,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, toReservationResp(res))
}

// ListMine returns the caller's reservations ordered by slot.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Lister.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// Update moves or resizes one of the caller's reservations.
func (h *ReservationHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Alloc.Update(ctx, id, uid, isAdmin(c), allocator.UpdateRequest{
		Date:     req.Date,
		Time:     req.Time,
		Guests:   req.Guests,
		Category: req.Category,
		Status:   req.Status,
	})
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Cancel marks a reservation cancelled and releases its table.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Alloc.Cancel(ctx, id, uid, isAdmin(c))
	if err != nil {
		return reservationError(c, err)
	}

	ev := queue.ReservationCancelledEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		Date:          res.Date,
		Time:          res.Time,
		CancelledAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if res.TableID != nil {
		ev.TableID = *res.TableID
	}
	_ = queue_publisher.PublishReservationCancelled(ctx, ev)

	return c.JSON(http.StatusOK, toReservationResp(res))
}

// Delete removes a cancelled reservation permanently.
func (h *ReservationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Alloc.Delete(ctx, id, uid, isAdmin(c)); err != nil {
		return reservationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
