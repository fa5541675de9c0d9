package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Skotchmaster/ecom_api/internal/httpserver"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/pkg/config"
	"github.com/Skotchmaster/ecom_api/pkg/db"
	"github.com/Skotchmaster/ecom_api/pkg/imagestore"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
	"github.com/Skotchmaster/ecom_api/pkg/metrics"
	loggingmw "github.com/Skotchmaster/ecom_api/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	cfg.MustValid()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger = logger.With("service", cfg.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(ctx, gdb); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	r := repo.New(gdb)
	authSvc := &service.AuthService{
		Repo:          r,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
	if cfg.AdminEmail != "" {
		admin, err := authSvc.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		logger.Info("admin_ready", "user_id", admin.ID)
	}

	var images imagestore.Store = imagestore.Disabled{}
	if cfg.CloudinaryURL != "" {
		cld, err := imagestore.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			log.Fatalf("image store: %v", err)
		}
		images = cld
	} else {
		logger.Warn("image_store_disabled", "reason", "CLOUDINARY_URL is empty")
	}

	m := metrics.NewServerMetrics(metricsSubsystem(cfg.ServiceName), prometheus.NewRegistry())

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewValidator()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.BodyLimit("10M"))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	e.Use(loggingmw.RequestLogger(logger), m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Images: images}},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: service.NewOrderService(r, m, cfg.CheckoutTimeout)},
		HealthHandler:  &httpserver.HealthHTTP{DB: gdb},
		JWTSecret:      cfg.JWTAccessSecret,
		LoginRateLimit: cfg.LoginRateLimit,
		Metrics:        m.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// metricsSubsystem turns "ecom-api" into a valid prometheus name part.
func metricsSubsystem(name string) string {
	out := []byte(name)
	for i, ch := range out {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}
