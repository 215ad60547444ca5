package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_actions_total",
		Help: "Выполненные действия по категориям",
	}, []string{"niche"})
	ActionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_action_failures_total",
		Help: "Неудачные попытки действий по категориям",
	}, []string{"niche"})
	CandidatesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_candidates_rejected_total",
		Help: "Отклонённые посты по причинам",
	}, []string{"reason"})
	NicheRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pacer_niche_runs_total",
		Help: "Завершённые обходы категорий по итоговому состоянию",
	}, []string{"final"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pacer_run_seconds",
		Help:    "Длительность запуска",
		Buckets: []float64{1, 5, 30, 60, 300, 600, 1800, 3600, 7200, 14400},
	})
	GlobalCountToday = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pacer_global_count_today",
		Help: "Количество действий за текущий день",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ActionsTotal,
		ActionFailures,
		CandidatesRejected,
		NicheRuns,
		RunDuration,
		GlobalCountToday,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncAction учитывает выполненное действие.
func IncAction(tag string) {
	ActionsTotal.WithLabelValues(tag).Inc()
}

// IncActionFailure учитывает неудачную попытку действия.
func IncActionFailure(tag string) {
	ActionFailures.WithLabelValues(tag).Inc()
}

// IncRejected учитывает отклонённый пост.
func IncRejected(reason string) {
	CandidatesRejected.WithLabelValues(reason).Inc()
}

// IncNicheRun учитывает завершённый обход категории.
func IncNicheRun(final string) {
	NicheRuns.WithLabelValues(final).Inc()
}

// ObserveRun записывает длительность запуска и итоговый счётчик дня.
func ObserveRun(start time.Time, globalCount int) {
	RunDuration.Observe(time.Since(start).Seconds())
	GlobalCountToday.Set(float64(globalCount))
}
