package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/geocover/internal/adapters/clip"
	natsadapter "github.com/samirrijal/geocover/internal/adapters/nats"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/config"
	"github.com/samirrijal/geocover/internal/pkg/logging"
	"github.com/samirrijal/geocover/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geocover-worker")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	measure, err := clip.ParseAreaMeasure(cfg.Coverage.AreaMeasure)
	if err != nil {
		log.Fatalf("coverage: %v", err)
	}
	svc := usecases.NewCoverageService(clip.New(measure), cfg.Coverage.MaxWorkers,
		usecases.WithMaxCandidates(cfg.Coverage.MaxCandidates),
	)

	nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}

	responder := natsadapter.NewResponder(nc, svc)
	if err := responder.Serve(ctx, cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
		log.Fatalf("serve: %v", err)
	}
	slog.Info("coverage worker listening",
		"subject", cfg.NATS.Subject,
		"queue", cfg.NATS.Queue,
		"area_measure", measure,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining subscription...", "signal", sig.String())
	cancel()
	responder.Close()
	slog.Info("worker stopped")
}
