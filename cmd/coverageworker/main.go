package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/aldatxeta/tourkit/internal/adapters/nats"
	"github.com/aldatxeta/tourkit/internal/adapters/postgres"
	"github.com/aldatxeta/tourkit/internal/adapters/valkey"
	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/config"
	"github.com/aldatxeta/tourkit/internal/pkg/logging"
	"github.com/aldatxeta/tourkit/internal/workflows"
)

func main() {
	cfg, err := config.Load("tourkit-coverageworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.SetupFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	planRepo := postgres.NewCoveragePlanRepo(db)

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr, "tourkit-coverageworker")
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	coverageSvc := usecases.NewCoverageService(planRepo, cache, publisher)

	// Warm the plan cache from announced plans so API reads after a
	// batch run never hit the database cold.
	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	err = subscriber.SubscribeCoveragePlans(ctx, func(ctx context.Context, plan *domain.CoveragePlan) error {
		if plan.ID == "" {
			return nil
		}
		data, err := json.Marshal(plan)
		if err != nil {
			return err
		}
		if err := cache.Set(ctx, "coverage:planid:"+plan.ID, data, 3600); err != nil {
			return err
		}
		slog.Info("plan cache warmed", "plan_id", plan.ID, "centers", len(plan.Centers))
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe coverage plans: %v", err)
	}

	// Temporal worker
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CoveragePlanWorkflow)
	w.RegisterActivity(&workflows.CoverageActivities{
		Coverage:  coverageSvc,
		Plans:     planRepo,
		Publisher: publisher,
	})

	slog.Info("coverage worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
