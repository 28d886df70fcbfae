package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/config"
	"github.com/ecomstack/ecommerce-api/internal/database"
	"github.com/ecomstack/ecommerce-api/internal/handler"
	"github.com/ecomstack/ecommerce-api/internal/middleware"
	"github.com/ecomstack/ecommerce-api/internal/poll"
	"github.com/ecomstack/ecommerce-api/internal/queue"
	"github.com/ecomstack/ecommerce-api/internal/repository"
	"github.com/ecomstack/ecommerce-api/internal/router"
	"github.com/ecomstack/ecommerce-api/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	pollCfg := config.LoadPollConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response cache
	// become no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	payments := repository.NewPaymentRepo(db)
	addresses := repository.NewAddressRepo(db)
	notifications := repository.NewNotificationRepo(db)

	notifier := service.NewNotifier(notifications)
	engine := poll.New(notifications, pollCfg)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.AccessSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(products), config.LoadCacheConfig(), rdb, cfg.AccessSecret)
	router.RegisterOrders(e, handler.NewOrderHandler(db, orders, products, payments, addresses, notifier), cfg.AccessSecret)
	router.RegisterUpdates(e, handler.NewUpdatesHandler(engine, orders, notifications, notifier), cfg.AccessSecret)
	router.RegisterAddresses(e, handler.NewAddressHandler(addresses), cfg.AccessSecret)

	// Audit consumer runs for the lifetime of the process and reconnects
	// on broker failures.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	// Expired refresh tokens are garbage-collected in the background.
	// Revoked-but-unexpired rows are kept so replays keep failing as
	// revoked rather than unknown.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := tokens.DeleteExpired(ctx, 24*time.Hour)
			cancel()
			if err != nil {
				log.Printf("token gc: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("token gc: removed %d expired refresh tokens", n)
			}
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
