package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"web3nav/docs"
	"web3nav/internal/auth"
	"web3nav/internal/cache"
	"web3nav/internal/config"
	"web3nav/internal/db"
	"web3nav/internal/handler"
	"web3nav/internal/logging"
	"web3nav/internal/repository"
	"web3nav/internal/retry"
	"web3nav/internal/router"
	"web3nav/internal/service"
)

// @title Web3 Navigator API
// @version 1.0
// @description Public directory of Web3 resources and the admin API that curates it.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name admin_token
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.UsingDefaultSecret() {
		logger.Warn("JWT_SECRET is not set; sessions are signed with the built-in development secret and can be forged")
	}

	gormDB, err := db.Open(cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.DropAll(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	exec := retry.NewExecutor(
		retry.WithMaxRetries(cfg.DBMaxRetries),
		retry.WithBaseDelay(cfg.DBRetryBaseDelay),
		retry.WithLogger(logger),
	)

	// Initialize repositories
	adminRepo := repository.NewAdminUserRepository(gormDB, exec)
	sectionRepo := repository.NewSectionRepository(gormDB, exec)
	websiteRepo := repository.NewWebsiteRepository(gormDB, exec)

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Initialize services
	authService := service.NewAuthService(adminRepo, jwtService)
	sectionService := service.NewSectionService(sectionRepo, cacheClient)
	websiteService := service.NewWebsiteService(websiteRepo, sectionRepo, cacheClient)
	directoryService := service.NewDirectoryService(sectionRepo, websiteRepo, cacheClient)

	e := echo.New()
	router.Register(
		e,
		cfg,
		logger,
		jwtService,
		handler.NewAuthHandler(authService, cfg.CookieSecure),
		handler.NewSectionHandler(sectionService),
		handler.NewWebsiteHandler(websiteService),
		handler.NewPublicHandler(directoryService),
		handler.NewHealthHandler(gormDB, cacheClient),
	)

	docs.SwaggerInfo.Host = swaggerHost(cfg.SwaggerHost)
	logger.Info("swagger documentation available", "url", swaggerURL(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("listening", "addr", addr)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// swaggerHost strips any scheme so the value fits the OpenAPI host field.
func swaggerHost(host string) string {
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimPrefix(host, "https://")
}

func swaggerURL(cfg *config.Config) string {
	switch {
	case cfg.SwaggerHost == "":
		return "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	case strings.HasPrefix(cfg.SwaggerHost, "http://"), strings.HasPrefix(cfg.SwaggerHost, "https://"):
		return cfg.SwaggerHost + "/swagger/index.html"
	default:
		return "http://" + cfg.SwaggerHost + "/swagger/index.html"
	}
}
