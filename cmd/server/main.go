package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"filadb-validator/internal/api"
	"filadb-validator/internal/auth"
	"filadb-validator/internal/config"
	"filadb-validator/internal/instrument"
	"filadb-validator/internal/job"
	"filadb-validator/internal/store"
	"filadb-validator/internal/validator"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, upstream: %s)", cfg.Server.Port, cfg.Upstream.BaseURL)

	// 2. Upstream client and caches
	client := validator.NewAPIClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout())
	schemas := validator.NewSchemaCache(client, cfg.Validation.CacheTTL(), nil)
	storeIDs := validator.NewStoreIDCache(client, cfg.Validation.CacheTTL(), nil)
	orch := validator.NewOrchestrator(schemas, storeIDs)

	// 3. Optional audit store
	var db *store.Store
	if cfg.Database.Enabled {
		db, err = store.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to audit database: %v", err)
		}
		defer db.Close()
		if err := db.Bootstrap(ctx); err != nil {
			log.Fatalf("Failed to bootstrap audit table: %v", err)
		}
		orch.SetAudit(db)
		log.Println("Audit database connected")
	}

	// 4. Instrumentation
	var inst instrument.Instrumenter = &instrument.NoopInstrumenter{}
	ring := instrument.NewSpanRing(cfg.Instrumentation.RingSize)
	if cfg.Instrumentation.Enabled {
		inst = instrument.NewInstrumenter(ring)
	}

	// 5. Job store
	jobs := job.NewStore(cfg.Validation.MaxJobs)

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
		BodyLimit:    32 << 20, // batches carry base64 images
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth middleware (no-op when jwt_secret is empty)
	authMW := auth.Middleware(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		log.Println("WARN: jwt_secret is empty, API auth disabled")
	}

	// 9. Validation routes
	handler := api.NewHandler(jobs, orch, inst)
	api.RegisterRoutes(app, handler, authMW)

	// 10. Instrumentation routes
	instrument.RegisterRoutes(app, instrument.NewSpanHandler(ring), authMW)

	// 11. Audit routes (only with a connected database)
	if db != nil {
		store.RegisterRoutes(app, store.NewAuditHandler(db), authMW)
	}

	// 12. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}
