package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Tables      *handler.TableHandler
	Reservation *handler.ReservationHandler
	Admin       *handler.AdminHandler
}

// Register mounts all routes on the provided Echo instance.
// Unauthenticated operations live under /v1/auth, customer endpoints
// under /v1 with the CUSTOMER role, and staff endpoints under /v1/admin
// with the ADMIN role.  The Redis-backed rate limiter wraps every /v1
// route; the response cache wraps only the table listing.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Session management; no JWT required.
	g := e.Group("/v1/auth", rate)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	// Rotates the refresh token.
	g.POST("/refresh", h.Auth.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", h.Auth.RefreshAccess)
	// Logout accepts a refresh token in the body or a bearer header; it
	// does not require the JWT middleware.
	g.POST("/logout", h.Auth.Logout)
	g.POST("/forgot-password", h.Auth.ForgotPassword)
	g.POST("/reset-password/:token", h.Auth.ResetPassword)

	// Any authenticated role.
	auth := e.Group("/v1", rate, middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	auth.GET("/me", h.Auth.Me)
	auth.PUT("/me", h.Auth.UpdateMe)
	auth.GET("/tables", h.Tables.List, cache)

	// Customer reservation lifecycle.
	cust := e.Group("/v1/reservations", rate, middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer))
	cust.POST("", h.Reservation.Create)
	cust.GET("", h.Reservation.ListMine)
	cust.PUT("/:id", h.Reservation.Update)
	cust.DELETE("/:id", h.Reservation.Delete)
	cust.POST("/:id/cancel", h.Reservation.Cancel)

	// Staff endpoints.
	admin := e.Group("/v1/admin", rate, middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)

	admin.GET("/tables", h.Tables.List)
	admin.POST("/tables", h.Tables.Create)
	admin.PUT("/tables/:id", h.Tables.Update)
	admin.DELETE("/tables/:id", h.Tables.Delete)

	admin.GET("/reservations", h.Admin.ListReservations)
	admin.PUT("/reservations/:id", h.Admin.UpdateReservation)
	admin.DELETE("/reservations/:id", h.Admin.DeleteReservation)
	admin.POST("/reservations/:id/cancel", h.Admin.CancelReservation)
	admin.POST("/reservations/:id/assign-table", h.Admin.AssignTable)

	admin.GET("/customers", h.Admin.ListCustomers)
	admin.POST("/customers/:id/promotion", h.Admin.SendPromotion)
}
