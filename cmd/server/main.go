package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-table-reservation/internal/allocator"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
)

func main() {
	// Missing .env is fine in production; variables come from the host.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := database.Migrate(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	alloc := allocator.New(repository.NewAllocStore(db, tables, reservations))

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, tokens),
		Tables:      handler.NewTableHandler(tables),
		Reservation: handler.NewReservationHandler(alloc, reservations),
		Admin:       handler.NewAdminHandler(alloc, reservations, users, tables),
	}

	e := echo.New()
	e.Validator = handler.NewValidator()
	router.Register(e, h, cfg.JWTSecret, rdb)

	// Background consumer appends reservation and reset events to the
	// log file; it reconnects forever on broker failures.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
