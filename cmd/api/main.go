package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"niche-pacer/internal/app"
	"niche-pacer/internal/infra/config"
	httpinfra "niche-pacer/internal/infra/http"
	applog "niche-pacer/internal/infra/log"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/infra/queue"
	"niche-pacer/internal/usecase/report"
	"niche-pacer/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет хранилища")
	}
	defer closeStore()
	loc, err := schedule.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: некорректный часовой пояс")
	}

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	reports := httpinfra.NewReportHandler(store, report.NewAggregator(store, store), cfg.Account.Username, loc, logger)
	redisClient, err := app.OpenRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
	}
	srv.Router.Group(func(protected chi.Router) {
		protected.Use(httpinfra.TokenAuthMiddleware(cfg.APIToken))
		reports.Mount(protected)
		if redisClient != nil {
			httpinfra.NewRunHandler(queue.NewRedisRunQueue(redisClient, queue.DefaultRunKey), cfg.Account.Username, logger).Mount(protected)
		}
	})

	go func() {
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
