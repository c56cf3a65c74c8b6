// Package app is the composition root: it wires config, store, broker,
// worker pool, job orchestrator and the HTTP surface together.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"krida.io/dealdesk/internal/api/handlers"
	"krida.io/dealdesk/internal/api/middleware"
	"krida.io/dealdesk/internal/config"
	"krida.io/dealdesk/internal/events"
	"krida.io/dealdesk/internal/jobs"
	"krida.io/dealdesk/internal/pkg/logger"
	"krida.io/dealdesk/internal/pkg/metrics"
	"krida.io/dealdesk/internal/pkg/worker"
	"krida.io/dealdesk/internal/store"
)

// Application holds the composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Store   *store.Store
	Broker  *events.Broker
	Jobs    *jobs.Orchestrator
	Pool    *worker.Pool
	Metrics *metrics.Metrics
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	seed, err := store.LoadSeed(cfg.Sim.SeedPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	st := store.New(seed)
	logger.Info("Seed data loaded",
		zap.Int("deals", st.DealCount()),
		zap.String("path", cfg.Sim.SeedPath),
	)

	broker := events.NewBroker()

	pool, err := worker.NewPool(ctx, cfg.Worker.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	orchestrator := jobs.New(ctx, st, broker, pool, jobs.DefaultOptions())
	sim := middleware.NewSimulator(cfg.Sim.LatencyProfile, cfg.Sim.ErrorRate)
	counters := metrics.New()

	server := handlers.NewServer(handlers.ServerDeps{
		Store:    st,
		Broker:   broker,
		Jobs:     orchestrator,
		Sim:      sim,
		Metrics:  counters,
		SeedPath: cfg.Sim.SeedPath,
	})

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, sim, counters),
		Store:   st,
		Broker:  broker,
		Jobs:    orchestrator,
		Pool:    pool,
		Metrics: counters,
	}, nil
}

// Shutdown stops background work: jobs settle first, then the pool drains.
func (a *Application) Shutdown() {
	a.Jobs.Shutdown()
	a.Pool.Shutdown()
}
