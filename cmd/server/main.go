package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cycleroute/internal/config"
	"cycleroute/internal/controllers"
	"cycleroute/internal/logger"
	"cycleroute/internal/middleware"
	"cycleroute/internal/repository"
	"cycleroute/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logWriter := logger.Setup(cfg)
	gin.DefaultWriter = logWriter

	deps := routes.Dependencies{
		Auth:      middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL),
		Hub:       controllers.NewTripHub(),
		LogWriter: logWriter,
	}
	defer deps.Hub.Close()

	switch cfg.Store {
	case config.StorePostgres:
		db, err := config.OpenDB(cfg.DB, logger.GormLogger())
		if err != nil {
			logrus.WithError(err).Fatal("failed to open database")
		}
		deps.Routes = repository.NewGormRouteRepository(db)
		deps.Trips = repository.NewGormTripRepository(db)
		deps.Riders = repository.NewGormRiderRepository(db)
	default:
		deps.Routes = repository.NewMemoryRouteRepository()
		deps.Trips = repository.NewMemoryTripRepository()
		deps.Riders = repository.NewMemoryRiderRepository()
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(cfg.CORSAllowedOrigins, routes.SetupRouter(deps)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithFields(logrus.Fields{"addr": srv.Addr, "store": cfg.Store}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
