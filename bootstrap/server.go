// ABOUTME: This file configures the Echo HTTP server: middleware, error
// ABOUTME: handling, and the /api/v1 route table.
package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	appmiddleware "pharma-radar/middleware"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(deps *Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(deps.Logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/v1/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			deps.Logger.InfoContext(ctx, "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	api.POST("/classify", deps.ClassifyHandler.HandleClassify)
	api.GET("/events", deps.EventHandler.HandleListEvents)
	api.GET("/trends", deps.TrendHandler.HandleListTrends)
	api.GET("/scheduler/status", deps.SchedulerHandler.HandleStatus)
	api.POST("/scheduler/run", deps.SchedulerHandler.HandleRun)
	api.POST("/scheduler/pause", deps.SchedulerHandler.HandlePause)
	api.POST("/scheduler/resume", deps.SchedulerHandler.HandleResume)
	api.GET("/health", deps.HealthHandler.HandleHealth)

	return e
}

// StartHTTPServer starts the HTTP server in a goroutine.
func StartHTTPServer(e *echo.Echo, port int, log *slog.Logger) {
	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info("starting HTTP server", "port", port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()
}
