package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geocover/internal/adapters/clip"
	"github.com/samirrijal/geocover/internal/adapters/http"
	natsadapter "github.com/samirrijal/geocover/internal/adapters/nats"
	"github.com/samirrijal/geocover/internal/adapters/valkey"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/config"
	"github.com/samirrijal/geocover/internal/pkg/logging"
	"github.com/samirrijal/geocover/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("geocover-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Geometry
	measure, err := clip.ParseAreaMeasure(cfg.Coverage.AreaMeasure)
	if err != nil {
		log.Fatalf("coverage: %v", err)
	}
	coverageSvc := usecases.NewCoverageService(clip.New(measure), cfg.Coverage.MaxWorkers,
		usecases.WithMaxCandidates(cfg.Coverage.MaxCandidates),
	)

	// Shared rate-limit storage
	var limiter *valkey.Store
	if cfg.RateLimit.ValkeyAddr != "" {
		limiter, err = valkey.New(cfg.RateLimit.ValkeyAddr, "geocover:ratelimit:")
		if err != nil {
			slog.Warn("valkey unavailable, rate limiting per instance", "error", err)
			limiter = nil
		} else {
			defer limiter.Close()
		}
	}

	// NATS, only watched by /v1/ready here
	deps := &http.Dependencies{
		Coverage:        coverageSvc,
		Limiter:         limiter,
		Version:         version,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window,
	}
	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer nc.Close()
			deps.NATS = nc
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "geocover API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "area_measure", measure, "max_workers", cfg.Coverage.MaxWorkers)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
