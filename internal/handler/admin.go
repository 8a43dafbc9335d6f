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

// AdminReservationStore is the read side of the staff reservation
// endpoints.
type AdminReservationStore interface {
	ListAll(ctx context.Context, status string) ([]repository.AdminReservationDetail, error)
	CountAll(ctx context.Context) (uint64, error)
	CountForDate(ctx context.Context, date string) (uint64, error)
	RecentWithUser(ctx context.Context, limit int) ([]repository.AdminReservationDetail, error)
}

// AdminUserStore covers the customer administration endpoints.
type AdminUserStore interface {
	ListCustomers(ctx context.Context) ([]repository.CustomerSummary, error)
	CountCustomers(ctx context.Context) (uint64, error)
	GetCustomer(ctx context.Context, id uint64) (model.User, error)
}

// AdminTableStore provides the dashboard's availability figure.
type AdminTableStore interface {
	CountAvailable(ctx context.Context) (uint64, error)
}

// AdminHandler serves the staff endpoints: the dashboard, the
// reservation overrides and customer management.
type AdminHandler struct {
	Alloc        *allocator.Allocator
	Reservations AdminReservationStore
	Users        AdminUserStore
	Tables       AdminTableStore
}

func NewAdminHandler(alloc *allocator.Allocator, res AdminReservationStore, users AdminUserStore, tables AdminTableStore) *AdminHandler {
	return &AdminHandler{Alloc: alloc, Reservations: res, Users: users, Tables: tables}
}

type dashboardResp struct {
	TotalReservations uint64                              `json:"total_reservations"`
	TodayReservations uint64                              `json:"today_reservations"`
	TotalCustomers    uint64                              `json:"total_customers"`
	AvailableTables   uint64                              `json:"available_tables"`
	Recent            []repository.AdminReservationDetail `json:"recent_reservations"`
}

// Dashboard returns the headline counts and the five most recent
// reservations.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var resp dashboardResp
	var err error
	if resp.TotalReservations, err = h.Reservations.CountAll(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	today := time.Now().UTC().Format("2006-01-02")
	if resp.TodayReservations, err = h.Reservations.CountForDate(ctx, today); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if resp.TotalCustomers, err = h.Users.CountCustomers(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if resp.AvailableTables, err = h.Tables.CountAvailable(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if resp.Recent, err = h.Reservations.RecentWithUser(ctx, 5); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// ListReservations returns every reservation with customer identity.
// The status query parameter narrows the listing.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && status != "all" && !model.ValidReservationStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reservations.ListAll(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// UpdateReservation applies a staff override to any reservation,
// including status changes.  Setting the status to cancelled routes
// through the cancel path so the bound table is released.
func (h *AdminHandler) UpdateReservation(c echo.Context) error {
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

	if req.Status != nil && *req.Status == model.ReservationStatusCancelled {
		res, err := h.Alloc.Cancel(ctx, id, uid, true)
		if err != nil {
			return reservationError(c, err)
		}
		return c.JSON(http.StatusOK, toReservationResp(res))
	}

	res, err := h.Alloc.Update(ctx, id, uid, true, allocator.UpdateRequest{
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

// CancelReservation cancels any reservation on a customer's behalf.
func (h *AdminHandler) CancelReservation(c echo.Context) error {
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

	res, err := h.Alloc.Cancel(ctx, id, uid, true)
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

// DeleteReservation removes a cancelled reservation permanently.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
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

	if err := h.Alloc.Delete(ctx, id, uid, true); err != nil {
		return reservationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignTableReq struct {
	TableID uint64 `json:"table_id" validate:"required,min=1"`
}

// AssignTable rebinds a reservation to a specific table by hand.
func (h *AdminHandler) AssignTable(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignTableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Alloc.AssignTable(ctx, id, req.TableID); err != nil {
		if errors.Is(err, allocator.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation or table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "table assigned"})
}

// ListCustomers returns every customer account with reservation counts.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Users.ListCustomers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": items})
}

type promotionReq struct {
	Message string `json:"message" validate:"required,max=500"`
}

// SendPromotion publishes a promotional message for a customer.  The
// notification service picks the event off the queue and mails it.
func (h *AdminHandler) SendPromotion(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req promotionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	_ = queue_publisher.PublishPromotion(ctx, queue.PromotionEvent{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Message: req.Message,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "promotion sent"})
}
