package main

import (
	"log"
	"strings"
	"time"

	"pos-backend/internal/admin"
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/bpom"
	"pos-backend/internal/catalog"
	"pos-backend/internal/commission"
	"pos-backend/internal/config"
	"pos-backend/internal/customer"
	"pos-backend/internal/database"
	"pos-backend/internal/notification"
	"pos-backend/internal/sales"
	"pos-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	lifetime := time.Duration(cfg.SessionLifeSeconds) * time.Second
	var store session.Store
	if cfg.RedisAddr != "" {
		client := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if client == nil {
			log.Fatal("[FATAL] Redis unreachable; unset REDIS_ADDR to run with in-memory sessions")
		}
		store = session.NewRedisStore(client, lifetime)
	} else {
		store = session.NewMemoryStore(lifetime)
	}
	sessions := session.NewManager(store, time.Duration(cfg.SessionIdleSeconds)*time.Second)

	auditLog := audit.NewLogger(db)
	authSvc := auth.NewService(db, auditLog, cfg.ResetSecret)
	commissions := commission.NewService(db)
	notifier := notification.NewService(db, notification.NewPublisher(cfg.AMQPURL))
	salesSvc := sales.NewService(db, commissions, notifier)

	table, err := permissionTable()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Terjadi kesalahan pada server",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-CSRF-Token",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	app.Use(sessions.Middleware())

	registerRoutes(app, &handlers{
		db:            db,
		auth:          authSvc,
		table:         table,
		products:      catalog.NewProductHandlers(db, auditLog, authSvc),
		categories:    catalog.NewCategoryHandlers(db, auditLog, authSvc),
		customers:     customer.NewHandlers(db, auditLog, authSvc),
		sales:         salesSvc,
		commissions:   commissions,
		notifications: notifier,
		bpom:          bpom.NewClient(db, cfg.BPOMBaseURL),
		users:         admin.NewUserHandlers(db, auditLog, authSvc),
	})

	log.Printf("POS backend listening on :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("[FATAL] server stopped: %v", err)
	}
}
