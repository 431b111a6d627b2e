package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// New builds the HTTP API on top of a wired App.
func New(app *runtime.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	logger := app.Logger.With("component", "http")
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.LogAttrs(c.Request().Context(), slog.LevelDebug, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID))
			return nil
		},
	}))
	e.HTTPErrorHandler = errorHandler(logger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if secret, err := runtime.LoadJWTSecret(app.Config); err == nil {
		api.Use(runtime.EchoAuthMiddleware(secret))
	} else {
		logger.Warn("api authentication disabled", "reason", err)
	}

	cfg := app.Config.Server
	chat := &ChatHandler{
		Sessions: app.Sessions,
		Turns:    app.Loop,
		TTL:      cfg.SessionTTL,
		Timeout:  cfg.RequestTimeout,
		Logger:   logger,
	}
	chat.Register(api.Group("/chat"))

	jobs := &JobsHandler{Jobs: app.Jobs, Options: app.Config.ListingOptions}
	jobs.Register(api.Group("/jobs"))

	tools := &ToolsHandler{Catalog: app.Catalog}
	tools.Register(api.Group("/tools"))
	return e
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *runtime.App) error {
	e := New(app)
	addr := app.Config.Server.Address

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		level := slog.LevelWarn
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(req.Context(), level, "request failed",
			"status", code, "method", req.Method, "path", req.URL.Path, "remote", c.RealIP(), "error", err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}
}
