package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"niche-pacer/internal/adapters/repo"
	"niche-pacer/internal/infra/config"
	"niche-pacer/internal/usecase/niches"
)

func testConfig() config.AppConfig {
	var cfg config.AppConfig
	cfg.TZ = "Europe/Moscow"
	cfg.Account.Username = "pacer"
	cfg.Account.TwoStepAuth = true
	cfg.NicheTags = []string{"#Travel:2", "food"}
	cfg.Limits.Daily = 300
	cfg.Feed.URL = "http://localhost:8090"
	cfg.Feed.AdvanceRetries = 2
	cfg.Feed.AdvanceRetryInterval = time.Second
	return cfg
}

func TestEngageConfig(t *testing.T) {
	runCfg, err := EngageConfig(testConfig())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(runCfg.Tags) != 2 || runCfg.Tags[0].Tag != "travel" || runCfg.Tags[0].Priority != 2 || runCfg.Tags[1].Priority != 2 {
		t.Fatalf("неожиданные категории: %+v", runCfg.Tags)
	}
	if !runCfg.Credentials.TwoStepAuth || runCfg.Location.String() != "Europe/Moscow" {
		t.Fatalf("неожиданная конфигурация: %+v", runCfg)
	}
}

func TestEngageConfigRejectsBadTags(t *testing.T) {
	cfg := testConfig()
	cfg.NicheTags = []string{"travel", "Travel"}
	if _, err := EngageConfig(cfg); !errors.Is(err, niches.ErrTagDuplicate) {
		t.Fatalf("ожидали ErrTagDuplicate, получили %v", err)
	}
}

func TestOpenStoreInMemory(t *testing.T) {
	cfg := testConfig()
	cfg.UseInMemory = true
	store, closeFn, err := OpenStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*repo.Memory); !ok {
		t.Fatalf("ожидали хранилище в памяти, получили %T", store)
	}
}

func TestOpenStoreRequiresDSN(t *testing.T) {
	if _, _, err := OpenStore(context.Background(), testConfig(), zerolog.Nop()); err == nil {
		t.Fatalf("ожидали ошибку без PG_DSN")
	}
}

func TestNewEngage(t *testing.T) {
	if _, err := NewEngage(testConfig(), repo.NewMemory(), zerolog.Nop()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}
