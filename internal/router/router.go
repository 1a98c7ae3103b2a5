package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"web3nav/internal/auth"
	"web3nav/internal/config"
	"web3nav/internal/errors"
	"web3nav/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	sectionHandler *handler.SectionHandler,
	websiteHandler *handler.WebsiteHandler,
	publicHandler *handler.PublicHandler,
	healthHandler *handler.HealthHandler,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/healthz", healthHandler.Check)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public directory
	api.GET("/sections", publicHandler.Sections)
	api.GET("/websites", publicHandler.Websites)
	api.GET("/data", publicHandler.Data)

	admin := api.Group("/admin")

	var loginLimit []echo.MiddlewareFunc
	if cfg.LoginRateLimit > 0 {
		loginLimit = append(loginLimit, LoginRateLimiter(cfg.LoginRateLimit))
	}
	admin.POST("/login", authHandler.Login, loginLimit...)
	admin.POST("/logout", authHandler.Logout)

	// Listings are readable without a session; every write needs one.
	admin.GET("/sections", sectionHandler.List)
	admin.GET("/websites", websiteHandler.List)

	secured := admin.Group("", SessionMiddleware(jwtService))

	secured.GET("/session", authHandler.Session)
	secured.POST("/change-password", authHandler.ChangePassword)

	secured.POST("/sections", sectionHandler.Create)
	secured.PUT("/sections/order", sectionHandler.UpdateOrder)
	secured.POST("/sections/reorder", sectionHandler.Reorder)
	secured.PUT("/sections/:ref", sectionHandler.Update)
	secured.DELETE("/sections/:ref", sectionHandler.Delete)

	secured.POST("/websites", websiteHandler.Create)
	secured.PUT("/websites/order", websiteHandler.UpdateOrder)
	secured.PUT("/websites/:id", websiteHandler.Update)
	secured.DELETE("/websites/:id", websiteHandler.Delete)
}

// LoginRateLimiter allows limit requests per client IP per minute. Rejected
// requests get the same JSON error shape as every other failure.
func LoginRateLimiter(limit int) echo.MiddlewareFunc {
	return echo.WrapMiddleware(httprate.Limit(limit, time.Minute,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(errors.ErrorResponse{
				Error: "too many login attempts, try again later",
				Code:  "RATE_LIMITED",
			})
		}),
	))
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			}
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
