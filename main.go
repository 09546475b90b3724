package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/KhanhRomVN/saleso-order-service/internal/config"
	"github.com/KhanhRomVN/saleso-order-service/internal/consumers"
	"github.com/KhanhRomVN/saleso-order-service/internal/handlers"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
	"github.com/KhanhRomVN/saleso-order-service/pkg/mongodb"
	"github.com/KhanhRomVN/saleso-order-service/pkg/rabbitmq"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := mongodb.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.DB)
	cancel()
	if err != nil {
		log.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	// --- Message broker ---
	mqClient, err := rabbitmq.New(rabbitmq.Config{
		URL:      cfg.RabbitMQ.URL,
		PoolSize: cfg.RabbitMQ.PoolSize,
	}, log)
	if err != nil {
		log.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}

	gateway := producers.New(mqClient, cfg.RabbitMQ.RPCTimeout)

	// --- Repositories ---
	cartRepo := repositories.NewCartRepository(store)
	orderRepo := repositories.NewOrderRepository(store)
	paymentRepo := repositories.NewPaymentRepository(store)
	orderLogRepo := repositories.NewOrderLogRepository(store)
	reversalRepo := repositories.NewReversalRepository(store)
	wishlistRepo := repositories.NewWishlistRepository(store)

	// --- Services ---
	orderService := services.NewOrderService(store, orderRepo, paymentRepo, orderLogRepo, cartRepo, reversalRepo, gateway, log)
	reversalService := services.NewReversalService(store, orderRepo, reversalRepo, orderLogRepo, gateway, log)
	cartService := services.NewCartService(cartRepo, gateway, log)
	wishlistService := services.NewWishlistService(wishlistRepo, gateway, log)

	// --- RPC consumers ---
	analytics := consumers.NewAnalyticsConsumer(orderRepo, mqClient)
	if err := analytics.Start(ctx); err != nil {
		log.Error("failed to start analytics consumer", "error", err)
		os.Exit(1)
	}

	// --- HTTP ---
	auth := middleware.NewAuth(cfg.JWT.Secret)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	handlers.NewOrderHandler(orderService, auth).RegisterRoutes(apiV1)
	handlers.NewOrderLogHandler(orderService, auth).RegisterRoutes(apiV1)
	handlers.NewReversalHandler(reversalService, auth).RegisterRoutes(apiV1)
	handlers.NewCartHandler(cartService, auth).RegisterRoutes(apiV1)
	handlers.NewWishlistHandler(wishlistService, auth).RegisterRoutes(apiV1)

	go func() {
		log.Info("starting server", "port", cfg.App.Port)
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	// Finish notifications, analytics and stock returns already committed.
	orderService.Drain()
	reversalService.Drain()

	if err := mqClient.Close(); err != nil {
		log.Error("rabbitmq close failed", "error", err)
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Close(closeCtx); err != nil {
		log.Error("mongodb close failed", "error", err)
	}
	cancel()

	log.Info("shutdown complete")
}
