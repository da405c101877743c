package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"ohhell/internal/api"
	"ohhell/internal/app"
	"ohhell/internal/config"
	"ohhell/internal/logger"
	"ohhell/internal/ports"
	"ohhell/internal/ports/gormstore"
	"ohhell/internal/ports/ws"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		fx.Provide(
			openDatabase,
			provideStore,
			provideService,
			provideHub,
			provideGateway,
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(runServer),
	).Run()
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	return gormstore.Open(cfg.DatabaseURL)
}

func provideStore(db *gorm.DB) ports.SessionStore {
	return gormstore.New(db)
}

func provideService(store ports.SessionStore, log zerolog.Logger, cfg *config.Config) *app.Service {
	return app.NewService(store, log, nil, cfg.RoundSummaryWait)
}

func provideHub(log zerolog.Logger) *ws.Hub {
	return ws.NewHub(log)
}

func provideGateway(svc *app.Service, hub *ws.Hub, log zerolog.Logger, cfg *config.Config) *ws.Gateway {
	return ws.NewGateway(svc, hub, log, cfg.CORSOrigins)
}

func provideHandlers(svc *app.Service, gw *ws.Gateway, log zerolog.Logger) *api.Handlers {
	return api.NewHandlers(svc, gw, log)
}

func provideRouter(h *api.Handlers, gw *ws.Gateway, log zerolog.Logger, cfg *config.Config) *gin.Engine {
	// Pretty logging doubles as the dev switch.
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(h, gw.Handle, log, cfg.CORSOrigins)
}

func runServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	svc *app.Service,
	hub *ws.Hub,
	gw *ws.Gateway,
	db *gorm.DB,
	cfg *config.Config,
	log zerolog.Logger,
) {
	svc.SetSink(gw)

	log.Info().
		Str("port", cfg.Port).
		Strs("cors_origins", cfg.CORSOrigins).
		Dur("round_summary_wait", cfg.RoundSummaryWait).
		Msg("configuration loaded")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}
	hubCtx, stopHub := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go hub.Run(hubCtx)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}

			svc.Close()
			stopHub()

			if sqlDB, err := db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing database connection")
				}
			}
			log.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
