package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleph-zero/stacklab/api"
	"github.com/aleph-zero/stacklab/service/stacks"
	"github.com/aleph-zero/stacklab/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/riandyrn/otelchi"
)

const (
	serviceName    = "stacklab"
	serviceVersion = "0.0.1"
)

/* *** Server Config *** */

type Config struct {
	Address      string
	Port         uint16
	StacksConfig *stacks.Config
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{StacksConfig: stacks.NewConfig()}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithAddress(address string) Option {
	return func(c *Config) {
		c.Address = address
	}
}

func WithPort(port uint16) Option {
	return func(c *Config) {
		c.Port = port
	}
}

func WithStacksConfig(stacksConfig *stacks.Config) Option {
	return func(c *Config) {
		c.StacksConfig = stacksConfig
	}
}

// NewRouter wires the stack and replay handlers onto a chi router.
func NewRouter(logger *httplog.Logger, svc stacks.Service, maxCapacity int) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/heartbeat"))
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Use(httplog.RequestLogger(logger))
	router.Use(middleware.Recoverer)

	{
		handler := api.NewStacksHandler(svc)
		router.Route("/stacks", func(r chi.Router) {
			r.Post("/", handler.Create)
			r.Get("/", handler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(api.StackContext)
				r.Get("/", handler.Get)
				r.Delete("/", handler.Delete)
				r.Post("/push", handler.Push)
				r.Post("/pop", handler.Pop)
				r.Post("/ops", handler.Ops)
			})
		})
	}
	{
		handler := api.NewReplayHandler(maxCapacity)
		router.Post("/replay", handler.Replay)
	}
	return router
}

func newLogger() *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         slog.LevelInfo,
		MessageFieldName: "msg",
		JSON:             true,
		Concise:          true,
		RequestHeaders:   false,
		ResponseHeaders:  false,
	})
}

func Bootstrap(config *Config) {
	ctx := context.Background()
	logger := newLogger()
	logger.InfoContext(ctx, "Bootstrapping server...", "config", config)

	/* *** Initialize Opentelemetry *** */
	shutdownTelemetry, err := telemetry.New(serviceName, serviceVersion, telemetry.CollectorURL)
	if err != nil {
		logger.ErrorContext(ctx, "Error initializing telemetry", "err", err)
		shutdownTelemetry = func() {}
	}
	defer shutdownTelemetry()

	svc := stacks.NewService(config.StacksConfig)
	defer svc.Close(ctx)

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Address, config.Port),
		Handler: NewRouter(logger, svc, config.StacksConfig.MaxCapacity),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Error starting server", "err", err)
		}
		logger.InfoContext(ctx, "Server stopped accepting connections")
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "Error shutting down server", "err", err)
	}
	logger.InfoContext(ctx, "Server shutdown complete")
}
