package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Moscow"`

	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	APIToken    string `envconfig:"API_TOKEN"`

	PGDSN       string `envconfig:"PG_DSN"`
	UseInMemory bool   `envconfig:"USE_IN_MEMORY" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Account struct {
		Username    string `envconfig:"ACCOUNT_USERNAME" required:"true"`
		Password    string `envconfig:"ACCOUNT_PASSWORD"`
		TwoStepAuth bool   `envconfig:"TWO_STEP_AUTH" default:"false"`
	} `envconfig:""`

	// NicheTags — список "tag[:priority]" через запятую.
	NicheTags []string `envconfig:"NICHE_TAGS"`

	Limits struct {
		Daily               int           `envconfig:"DAILY_LIMIT" default:"300"`
		PopularityThreshold int           `envconfig:"POPULARITY_THRESHOLD" default:"100"`
		DedupWindowDays     int           `envconfig:"DEDUP_WINDOW_DAYS" default:"3"`
		PacingInterval      time.Duration `envconfig:"PACING_INTERVAL" default:"30s"`
		PacingJitter        time.Duration `envconfig:"PACING_JITTER" default:"0s"`
	} `envconfig:""`

	Feed struct {
		URL                  string        `envconfig:"FEED_API_URL" default:"http://localhost:8090"`
		Token                string        `envconfig:"FEED_API_TOKEN"`
		Timeout              time.Duration `envconfig:"FEED_TIMEOUT" default:"15s"`
		AdvanceRetries       int           `envconfig:"ADVANCE_RETRIES" default:"2"`
		AdvanceRetryInterval time.Duration `envconfig:"ADVANCE_RETRY_INTERVAL" default:"2s"`
	} `envconfig:""`

	Telegram struct {
		Token        string `envconfig:"TG_BOT_TOKEN"`
		ReportChatID int64  `envconfig:"TG_REPORT_CHAT_ID"`
	} `envconfig:""`

	Schedule struct {
		DailyRunTime string        `envconfig:"DAILY_RUN_TIME" default:"09:00"`
		RunLockTTL   time.Duration `envconfig:"RUN_LOCK_TTL" default:"12h"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения без завершения процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	if _, err := time.Parse("15:04", cfg.Schedule.DailyRunTime); err != nil {
		return AppConfig{}, fmt.Errorf("DAILY_RUN_TIME: %w", err)
	}
	return cfg, nil
}
