package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"niche-pacer/internal/app"
	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/cache"
	"niche-pacer/internal/infra/config"
	applog "niche-pacer/internal/infra/log"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/infra/queue"
	"niche-pacer/internal/usecase/engage"
	"niche-pacer/internal/usecase/schedule"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет хранилища")
	}
	defer closeStore()

	redisClient, err := app.OpenRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к Redis")
	}
	if redisClient == nil {
		logger.Fatal().Msg("scheduler: не указан адрес Redis (REDIS_ADDR)")
	}
	defer redisClient.Close()
	redisCache := cache.NewRedis(redisClient)

	opts := []engage.Option{engage.WithLocker(redisCache)}
	notifier, err := app.NewNotifier(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось настроить отправку сводки")
	}
	if notifier != nil {
		opts = append(opts, engage.WithNotifier(notifier))
	}
	service, err := app.NewEngage(cfg, store, logger.With().Str("component", "engage").Logger(), opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректная конфигурация запуска")
	}
	daily, err := schedule.NewDaily(cfg.Schedule.DailyRunTime, cfg.TZ, redisCache, "pacer:daily:"+cfg.Account.Username, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректное расписание")
	}

	d := &daemon{service: service, account: cfg.Account.Username, log: logger}
	go d.consume(ctx, queue.NewRedisRunQueue(redisClient, queue.DefaultRunKey))

	logger.Info().Str("run_time", cfg.Schedule.DailyRunTime).Str("tz", daily.Location().String()).Msg("scheduler: старт")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if _, err := daily.Tick(ctx, time.Now(), d.scheduled); err != nil {
			logger.Error().Err(err).Msg("scheduler: ежедневный запуск не удался")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановлен")
			return
		case <-ticker.C:
		}
	}
}

type daemon struct {
	service *engage.Service
	account string
	log     zerolog.Logger
}

// выбранная квота закрывает день; остальные ошибки снимают отметку дня, и запуск повторится на следующем тике
func (d *daemon) scheduled(ctx context.Context, _ string) error {
	err := d.run(ctx, domain.RunRequest{Cause: domain.RunCauseScheduled, Account: d.account, RequestedAt: time.Now().UTC()})
	if errors.Is(err, domain.ErrQuotaMet) {
		return nil
	}
	return err
}

func (d *daemon) consume(ctx context.Context, runs domain.RunQueue) {
	for {
		req, err := runs.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Msg("scheduler: ошибка чтения очереди запусков")
			time.Sleep(time.Second)
			continue
		}
		if err := d.run(ctx, req); err != nil {
			d.log.Error().Err(err).Str("request", req.ID).Msg("scheduler: внеплановый запуск не удался")
		}
	}
}

func (d *daemon) run(ctx context.Context, req domain.RunRequest) error {
	res, err := d.service.Run(ctx)
	event := d.log.Info()
	if err != nil {
		event = d.log.Warn().Err(err)
	}
	event.
		Str("cause", string(req.Cause)).
		Str("account", req.Account).
		Str("run_id", res.RunID).
		Str("stop", string(res.Stop)).
		Int("acted", res.Acted()).
		Int("global", res.GlobalCount).
		Msg("scheduler: запуск завершён")
	return err
}
