package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"niche-pacer/internal/adapters/repo"
	"niche-pacer/internal/domain"
	"niche-pacer/internal/usecase/report"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *repo.Memory) {
	t.Helper()
	store := repo.NewMemory()
	handler := NewReportHandler(store, report.NewAggregator(store, store), "pacer", time.UTC, zerolog.Nop())
	handler.now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC) }

	srv := NewServer(zerolog.Nop())
	srv.Router.Group(func(r chi.Router) {
		r.Use(TokenAuthMiddleware(token))
		handler.Mount(r)
	})
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts, store
}

func seed(t *testing.T, store *repo.Memory) {
	t.Helper()
	ctx := context.Background()
	acc, _ := store.EnsureAccount(ctx, "pacer")
	travel, _ := store.CreateNiche(ctx, domain.Niche{AccountID: acc.ID, Tag: "travel", Priority: 1})
	_, _ = store.CreateNiche(ctx, domain.Niche{AccountID: acc.ID, Tag: "food", Priority: 2})
	for _, ts := range []string{"2024-05-10 09:00:00", "2024-05-10 10:00:00", "2024-05-09 10:00:00"} {
		if _, err := store.AppendAction(ctx, domain.ActionRecord{NicheID: travel.ID, TargetActor: "a", Timestamp: ts}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("запрос: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestReportToday(t *testing.T) {
	ts, store := newTestServer(t, "")
	seed(t, store)

	resp := get(t, ts.URL+"/api/v1/report/today", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}
	var body reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Day != "2024-05-10" || body.Total != 2 || body.Niches["travel"] != 2 || body.Niches["food"] != 0 {
		t.Fatalf("неожиданная сводка: %+v", body)
	}
	if len(body.Order) != 2 || body.Order[0] != "travel" {
		t.Fatalf("неожиданный порядок категорий: %v", body.Order)
	}
}

func TestReportBadDay(t *testing.T) {
	ts, _ := newTestServer(t, "")
	if resp := get(t, ts.URL+"/api/v1/report/10-05-2024", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", resp.StatusCode)
	}
}

func TestReportUnknownAccount(t *testing.T) {
	ts, _ := newTestServer(t, "")
	if resp := get(t, ts.URL+"/api/v1/report/2024-05-10?account=ghost", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", resp.StatusCode)
	}
}

func TestReportRequiresToken(t *testing.T) {
	ts, store := newTestServer(t, "secret")
	seed(t, store)
	if resp := get(t, ts.URL+"/api/v1/report/today", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("ожидали 401 без токена, получили %d", resp.StatusCode)
	}
	if resp := get(t, ts.URL+"/api/v1/report/today", "wrong"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("ожидали 401 с чужим токеном, получили %d", resp.StatusCode)
	}
	if resp := get(t, ts.URL+"/api/v1/report/today", "secret"); resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	if resp := get(t, ts.URL+"/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz не должен требовать токен, получили %d", resp.StatusCode)
	}
}
