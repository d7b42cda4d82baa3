package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-pos-ws/internal/config"
	"go-pos-ws/internal/events"
	"go-pos-ws/internal/handler"
	"go-pos-ws/internal/logging"
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/database"
	"go-pos-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database())
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// 3. Setup WebSocket Hub and event sinks
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	publishers := events.Fanout{wsHub}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publishers = append(publishers, kafkaPub)
		log.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// 4. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userService := service.NewUserService(userRepo)
	services := handler.Services{
		Auth:      service.NewAuthService(userRepo, tokens),
		Users:     userService,
		Products:  service.NewProductService(db, productRepo, userRepo, publishers, cfg.TxTimeout),
		Invoices:  service.NewInvoiceService(db, productRepo, invoiceRepo, publishers, cfg.TxTimeout),
		Dashboard: service.NewDashboardService(statsRepo),
		Hub:       wsHub,
	}

	// 5. Seed the bootstrap admin
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, created, err := userService.EnsureAdmin(seedCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Warn("failed to seed admin user", "error", err)
	} else if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}
	cancel()

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(recover.New()) // Panic recovery
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// 7. Routes
	handler.RegisterRoutes(app, services)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	wsHub.Stop()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Warn("kafka writer close failed", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server exited")
}
