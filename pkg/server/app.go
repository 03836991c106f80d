package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JackFeatherston/Osprey/internal/handler/ws"
	"github.com/JackFeatherston/Osprey/internal/scheduler"
	"github.com/JackFeatherston/Osprey/internal/usecase"
	pkgch "github.com/JackFeatherston/Osprey/pkg/clickhouse"
	"github.com/JackFeatherston/Osprey/pkg/config"
	xhttp "github.com/JackFeatherston/Osprey/pkg/http"
	pkgkafka "github.com/JackFeatherston/Osprey/pkg/kafka"
	applogger "github.com/JackFeatherston/Osprey/pkg/logger"
	"github.com/JackFeatherston/Osprey/pkg/postgres"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	handler   xhttp.Handler
	hub       *ws.Hub
	sched     *scheduler.Scheduler
	proposals *usecase.ProposalService

	httpServer *xhttp.Server

	// Infrastructure clients closed on shutdown. The optional ones are
	// nil when disabled in config.
	pgClient *postgres.Client
	chClient *pkgch.Client
	producer *pkgkafka.Producer
	cache    io.Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	sched *scheduler.Scheduler,
	proposals *usecase.ProposalService,
	pgClient *postgres.Client,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	cache io.Closer,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		hub:       hub,
		sched:     sched,
		proposals: proposals,
		pgClient:  pgClient,
		chClient:  chClient,
		producer:  producer,
		cache:     cache,
	}
}

// Run starts the scheduler and HTTP server, then blocks until a
// shutdown signal arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithRequestMetrics(a.log, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	// Routes the API handler does not own: event stream and health.
	e := a.httpServer.Echo()
	e.GET("/ws", a.hub.Handle)
	e.GET("/health", a.health)

	// Aggregated error logs ride the audit stream when Kafka is on.
	if a.producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.Topic + ".error-logs",
			Publisher:      logPublisher{producer: a.producer},
		})
	}

	// The scheduler refreshes the bias cache before the first poll, so
	// it must be running before signals can flow.
	if err := a.sched.Start(ctx); err != nil {
		a.log.Error("scheduler start error", applogger.Error(err))
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("engine running",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Engine.Symbols))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// Stop producing new work before tearing down the transport.
	a.sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Close()

	if a.producer != nil {
		a.log.RemoveCollector()
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		if err := a.pgClient.Close(); err != nil {
			a.log.Warn("postgres close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

// logPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.producer.Publish(ctx, topic, nil, payload)
}

// health reports liveness of the proposal store.
func (a *App) health(c echo.Context) error {
	if err := a.proposals.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
