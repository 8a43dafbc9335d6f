package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// stubUserStore is an AdminUserStore over a map of customer accounts.
type stubUserStore struct {
	customers map[uint64]model.User
}

func (s *stubUserStore) ListCustomers(context.Context) ([]repository.CustomerSummary, error) {
	out := make([]repository.CustomerSummary, 0, len(s.customers))
	for _, u := range s.customers {
		out = append(out, repository.CustomerSummary{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (s *stubUserStore) CountCustomers(context.Context) (uint64, error) {
	return uint64(len(s.customers)), nil
}

func (s *stubUserStore) GetCustomer(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.customers[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func TestSendPromotion(t *testing.T) {
	users := &stubUserStore{customers: map[uint64]model.User{
		7: {ID: 7, Name: "Dana", Email: "dana@example.com", Role: model.RoleCustomer},
	}}
	h := NewAdminHandler(nil, nil, users, nil)
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/admin/customers/7/promotion",
		`{"message":"Two-for-one mains this weekend"}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.SendPromotion(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "promotion sent")
}

func TestSendPromotionUnknownCustomer(t *testing.T) {
	h := NewAdminHandler(nil, nil, &stubUserStore{customers: map[uint64]model.User{}}, nil)
	e := newEcho()

	c, rec := doJSON(e, http.MethodPost, "/v1/admin/customers/99/promotion",
		`{"message":"hello"}`)
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.SendPromotion(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "customer not found")
}

func TestSendPromotionRequiresMessage(t *testing.T) {
	h := NewAdminHandler(nil, nil, &stubUserStore{customers: map[uint64]model.User{}}, nil)
	e := newEcho()

	c, _ := doJSON(e, http.MethodPost, "/v1/admin/customers/7/promotion", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	err := h.SendPromotion(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
