// Package routes assembles the HTTP API of the cache service.
package routes

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/IWUGERMANY/elca-sub002/pkg/health"
	"github.com/IWUGERMANY/elca-sub002/pkg/middleware"
)

// Registrar mounts a group of routes under /api/v1.
type Registrar interface {
	Register(g *echo.Group)
}

type ServerConfig struct {
	ServiceName       string
	AllowOrigins      []string
	AllowMethods      []string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// NewServer builds the echo instance with middleware, health, metrics and the given route groups.
func NewServer(cfg ServerConfig, logger ectologger.Logger, checker *health.Checker, registrars ...Registrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Server.IdleTimeout = cfg.IdleTimeout
	e.Server.ReadHeaderTimeout = cfg.ReadHeaderTimeout

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.ServiceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	if checker != nil {
		checker.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	for _, registrar := range registrars {
		registrar.Register(api)
	}

	return e
}
