package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/daisuketominaga/shinsei/internal/domain"
	"github.com/daisuketominaga/shinsei/internal/logging"
)

// ServerConfig holds routing and middleware configuration.
type ServerConfig struct {
	AllowOrigin    string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewServer wires up all routes and middleware on an echo instance.
func NewServer(h *Handler, cfg ServerConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := logging.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.AllowOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimitRPS),
			Burst:     cfg.RateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		},
	)))

	e.GET("/healthz", h.Healthz)

	api := e.Group("/api")
	api.POST("/search", h.Search)
	api.GET("/history", h.HistoryList)
	api.POST("/history", h.HistoryUpsert)
	api.PATCH("/history", h.HistoryUpdateChecked)
	api.DELETE("/history", h.HistoryDelete)
	api.POST("/export", h.Export)

	return e
}

// requestLogger logs method, path, status, and duration for every request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			slog.InfoContext(c.Request().Context(), "request",
				"request_id", logging.RequestID(c.Request().Context()),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

// errorHandler maps AppError and echo errors to the JSON error contract.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "request failed",
				"request_id", logging.RequestID(c.Request().Context()),
				"error", err,
			)
		}
		_ = c.JSON(appErr.StatusCode, domain.ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Category),
		})
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code := domain.ErrCatUnknown
		if httpErr.Code == http.StatusTooManyRequests {
			code = domain.ErrCatRateLimit
		}
		_ = c.JSON(httpErr.Code, domain.ErrorResponse{
			Error: fmt.Sprintf("%v", httpErr.Message),
			Code:  string(code),
		})
		return
	}

	slog.ErrorContext(c.Request().Context(), "unhandled error",
		"request_id", logging.RequestID(c.Request().Context()),
		"error", err,
	)
	_ = c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
		Error: "サーバーエラーが発生しました",
		Code:  string(domain.ErrCatUnknown),
	})
}
