// Package app собирает зависимости запуска из конфигурации для cmd/*.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"niche-pacer/internal/adapters/feedapi"
	"niche-pacer/internal/adapters/repo"
	"niche-pacer/internal/adapters/telegram"
	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/config"
	"niche-pacer/internal/infra/db"
	"niche-pacer/internal/infra/pacing"
	"niche-pacer/internal/usecase/engage"
	"niche-pacer/internal/usecase/niches"
	"niche-pacer/internal/usecase/schedule"
)

// Store объединяет репозитории, нужные запуску.
type Store interface {
	domain.AccountRepo
	domain.NicheRepo
	domain.ActionRepo
}

// OpenStore подключает Postgres и применяет схему либо, при USE_IN_MEMORY, возвращает хранилище в памяти.
func OpenStore(ctx context.Context, cfg config.AppConfig, log zerolog.Logger) (Store, func(), error) {
	if cfg.UseInMemory {
		log.Warn().Msg("app: журнал действий хранится в памяти и не переживёт перезапуск")
		return repo.NewMemory(), func() {}, nil
	}
	if cfg.PGDSN == "" {
		return nil, nil, errors.New("не указан PG_DSN")
	}
	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("подключение к БД: %w", err)
	}
	pg := repo.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

// OpenRedis подключает Redis. Пустой адрес возвращает nil без ошибки.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к Redis: %w", err)
	}
	return client, nil
}

// NewNotifier создаёт отправителя сводок в Telegram, если задан токен и чат.
func NewNotifier(cfg config.AppConfig) (domain.ReportNotifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ReportChatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("создание бота: %w", err)
	}
	return telegram.NewNotifier(bot, cfg.Telegram.ReportChatID), nil
}

// EngageConfig переводит конфигурацию окружения в параметры запуска.
func EngageConfig(cfg config.AppConfig) (engage.Config, error) {
	tags, err := niches.ParseTags(cfg.NicheTags)
	if err != nil {
		return engage.Config{}, err
	}
	loc, err := schedule.LoadLocation(cfg.TZ)
	if err != nil {
		return engage.Config{}, err
	}
	return engage.Config{
		Credentials: domain.Credentials{
			Username:    cfg.Account.Username,
			Password:    cfg.Account.Password,
			TwoStepAuth: cfg.Account.TwoStepAuth,
		},
		Tags:                 tags,
		DailyLimit:           cfg.Limits.Daily,
		PopularityThreshold:  cfg.Limits.PopularityThreshold,
		DedupDays:            cfg.Limits.DedupWindowDays,
		AdvanceRetries:       cfg.Feed.AdvanceRetries,
		AdvanceRetryInterval: cfg.Feed.AdvanceRetryInterval,
		Location:             loc,
		RunLockTTL:           cfg.Schedule.RunLockTTL,
	}, nil
}

// NewEngage собирает сервис запуска поверх клиента ленты.
func NewEngage(cfg config.AppConfig, store Store, log zerolog.Logger, opts ...engage.Option) (*engage.Service, error) {
	runCfg, err := EngageConfig(cfg)
	if err != nil {
		return nil, err
	}
	feed, err := feedapi.New(cfg.Feed.URL, feedapi.WithTimeout(cfg.Feed.Timeout), feedapi.WithToken(cfg.Feed.Token))
	if err != nil {
		return nil, fmt.Errorf("клиент ленты: %w", err)
	}
	pacer := pacing.New(cfg.Limits.PacingInterval, cfg.Limits.PacingJitter)
	return engage.NewService(runCfg, store, store, store, feed, feed, pacer, log, opts...), nil
}
