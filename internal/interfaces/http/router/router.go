// Package router assembles the gin engine and runs the HTTP server.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/interfaces/http/handlers"
	"github.com/turtacn/onboard/pkg/logger"
)

// Router is the HTTP surface of the gateway.
type Router struct {
	engine            *gin.Engine
	config            *config.Config
	logger            logger.Logger
	onboardingHandler *handlers.OnboardingHandler
	healthHandler     *handlers.HealthHandler
	server            *http.Server
}

// NewRouter creates the router with its handlers.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	onboardingHandler *handlers.OnboardingHandler,
	healthHandler *handlers.HealthHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	return &Router{
		engine:            engine,
		config:            cfg,
		logger:            log,
		onboardingHandler: onboardingHandler,
		healthHandler:     healthHandler,
	}
}

// SetupRoutes wires middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(handlers.RecoveryMiddleware(r.logger))
	r.engine.Use(handlers.RequestIDMiddleware())
	if r.config.Tracing.Enabled {
		r.engine.Use(handlers.TracingMiddleware())
	}
	r.engine.Use(handlers.LoggingMiddleware(r.logger))

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	r.engine.Use(cors.New(corsConfig))

	if r.config.Server.TemplateGlob != "" {
		r.engine.LoadHTMLGlob(r.config.Server.TemplateGlob)
	}
	if r.config.Server.StaticDir != "" {
		r.engine.Static("/static", r.config.Server.StaticDir)
	}

	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)
	r.engine.GET("/healthz", r.healthHandler.HealthCheck)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	r.engine.GET("/", r.onboardingHandler.ShowForm)
	r.engine.POST("/submit", r.onboardingHandler.Submit)
	r.engine.GET("/database/:edition", r.onboardingHandler.ShowDatabasePage)
	r.engine.POST("/create-db", r.onboardingHandler.CreateDBPage)
	r.engine.POST("/api/create-db", r.onboardingHandler.CreateDatabaseAPI)
	r.engine.GET("/admin/clients", r.onboardingHandler.ListClients)

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start runs the HTTP server until the listener fails or Stop is called.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    r.config.Server.ReadTimeout,
		WriteTimeout:   r.config.Server.WriteTimeout,
		IdleTimeout:    r.config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.Fields{"address": addr})

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
