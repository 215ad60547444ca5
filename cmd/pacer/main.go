package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"niche-pacer/internal/app"
	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/cache"
	"niche-pacer/internal/infra/config"
	applog "niche-pacer/internal/infra/log"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/usecase/engage"
	"niche-pacer/internal/usecase/report"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	}

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("pacer: нет хранилища")
	}
	defer closeStore()

	var opts []engage.Option
	redisClient, err := app.OpenRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("pacer: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, engage.WithLocker(cache.NewRedis(redisClient)))
	}
	notifier, err := app.NewNotifier(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("pacer: не удалось настроить отправку сводки")
	}
	if notifier != nil {
		opts = append(opts, engage.WithNotifier(notifier))
	}

	service, err := app.NewEngage(cfg, store, logger.With().Str("component", "engage").Logger(), opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("pacer: некорректная конфигурация запуска")
	}

	res, err := service.Run(ctx)
	if err != nil {
		event := logger.Error().Err(err).Str("run_id", res.RunID).Int("global", res.GlobalCount)
		if errors.Is(err, domain.ErrQuotaMet) {
			event = logger.Warn().Err(err).Str("run_id", res.RunID)
		}
		event.Msg("pacer: запуск прерван")
		stop()
		closeStore()
		os.Exit(1)
	}
	fmt.Println(report.Format(res.Report))
}
