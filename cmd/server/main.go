package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/club-membership/internal/config"
	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/handler"
	"github.com/iliyamo/club-membership/internal/queue"
	"github.com/iliyamo/club-membership/internal/repository"
	"github.com/iliyamo/club-membership/internal/router"
	"github.com/iliyamo/club-membership/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, dialect, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		Path:   cfg.DBPath,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	log.Printf("connected to %s ledger store", dialect)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Printf("redis unavailable at %s; rate limiting and caching disabled", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := service.NewAMQPPublisher(cfg.BrokerURL())
	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartRSVPConsumer(ctx, cfg.BrokerURL(), cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("rsvp-consumer: stopped: %v", err)
			}
		}()
	}

	events := repository.NewEventRepo(db, dialect)
	members := repository.NewMemberRepo(db, dialect)
	rsvps := repository.NewRSVPRepo(db, dialect)
	ledger := repository.NewLedgerRepo(db)

	admission := service.NewAdmissionService(db, events, members, rsvps, ledger, cfg.TxMaxAttempts, pub)
	credits := service.NewLedgerService(db, members, ledger, cfg.TxMaxAttempts)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	eventHandler := handler.NewEventHandler(events)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterPublic(e, eventHandler, cfg.Cache, rdb)
	router.RegisterMember(e, handler.NewMemberHandler(admission, members, rsvps, ledger), cfg.JWTSecret, cfg.RateLimit, rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(rsvps, members, credits), eventHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
