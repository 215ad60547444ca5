package engage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/usecase/dedup"
	"niche-pacer/internal/usecase/eligibility"
	"niche-pacer/internal/usecase/niches"
	"niche-pacer/internal/usecase/quota"
	"niche-pacer/internal/usecase/report"
	"niche-pacer/internal/usecase/scheduler"
	"niche-pacer/internal/usecase/traversal"
)

// StopReason — причина завершения запуска.
type StopReason string

const (
	StopQuotaMet     StopReason = "quota_met"
	StopAllExhausted StopReason = "all_exhausted"
)

// Config задаёт параметры запуска.
type Config struct {
	Credentials          domain.Credentials
	Tags                 []domain.TagConfig
	DailyLimit           int
	PopularityThreshold  int
	DedupDays            int
	AdvanceRetries       int
	AdvanceRetryInterval time.Duration
	Location             *time.Location
	RunLockTTL           time.Duration
}

// RunResult — итог запуска. При фатальной ошибке содержит то, что успели сделать.
type RunResult struct {
	RunID       string
	Account     domain.Account
	Day         string
	Outcomes    []traversal.Outcome
	Stop        StopReason
	GlobalCount int
	Report      domain.Report
}

// Acted возвращает количество действий, выполненных за запуск.
func (r RunResult) Acted() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Acted
	}
	return n
}

// Service проводит один запуск: засев квот и дедупликации, вход, обход категорий по приоритету и сводку.
type Service struct {
	cfg      Config
	accounts domain.AccountRepo
	niches   domain.NicheRepo
	actions  domain.ActionRepo
	nav      domain.Navigator
	exec     domain.Executor
	pacer    traversal.Pacer
	locker   domain.RunLocker
	notifier domain.ReportNotifier
	log      zerolog.Logger
	now      func() time.Time
}

// Option настраивает необязательные зависимости сервиса.
type Option func(*Service)

// WithLocker включает блокировку запуска.
func WithLocker(locker domain.RunLocker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithNotifier включает доставку сводки.
func WithNotifier(notifier domain.ReportNotifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// WithClock подменяет часы запуска.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создаёт сервис запуска.
func NewService(cfg Config, accounts domain.AccountRepo, nicheRepo domain.NicheRepo, actions domain.ActionRepo, nav domain.Navigator, exec domain.Executor, pacer traversal.Pacer, log zerolog.Logger, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DedupDays <= 0 {
		cfg.DedupDays = dedup.DefaultDays
	}
	s := &Service{
		cfg:      cfg,
		accounts: accounts,
		niches:   nicheRepo,
		actions:  actions,
		nav:      nav,
		exec:     exec,
		pacer:    pacer,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run выполняет запуск. Ошибки уровня поста и категории не прерывают запуск;
// возвращаемая ошибка всегда фатальна.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	start := s.now()
	res := RunResult{RunID: uuid.NewString(), Day: domain.CivilDay(start, s.cfg.Location)}
	log := s.log.With().Str("run_id", res.RunID).Str("day", res.Day).Logger()

	if len(s.cfg.Tags) == 0 {
		return res, domain.ErrNoNiches
	}

	if s.locker != nil {
		key := "pacer:run:" + s.cfg.Credentials.Username
		ok, err := s.locker.Acquire(key, s.cfg.RunLockTTL)
		if err != nil {
			return res, fmt.Errorf("блокировка запуска: %w", err)
		}
		if !ok {
			return res, domain.ErrRunInProgress
		}
		defer func() {
			if err := s.locker.Release(key); err != nil {
				log.Warn().Err(err).Msg("engage: не удалось снять блокировку")
			}
		}()
	}

	account, configured, err := niches.NewService(s.accounts, s.niches).Sync(ctx, s.cfg.Credentials.Username, s.cfg.Tags)
	if err != nil {
		return res, fmt.Errorf("синхронизация категорий: %w", err)
	}
	res.Account = account

	ledger, err := quota.NewLedger(s.actions, s.cfg.DailyLimit, len(configured), res.Day)
	if err != nil {
		return res, err
	}
	if err := ledger.Seed(ctx, account.ID); err != nil {
		res.GlobalCount = ledger.GlobalCount()
		if errors.Is(err, domain.ErrQuotaMet) {
			res.Stop = StopQuotaMet
		}
		return res, err
	}
	window, err := dedup.Seed(ctx, s.actions, account.ID, res.Day, s.cfg.DedupDays)
	if err != nil {
		return res, err
	}
	log.Info().
		Int("global", ledger.GlobalCount()).
		Int("daily_limit", ledger.DailyLimit()).
		Int("per_niche_limit", ledger.PerNicheLimit()).
		Int("recent_actors", window.Len()).
		Msg("engage: квоты и окно дедупликации загружены")

	if err := s.exec.Login(ctx, s.cfg.Credentials); err != nil {
		return res, fmt.Errorf("вход в аккаунт: %w", err)
	}

	controller := traversal.NewController(
		s.nav,
		s.exec,
		eligibility.NewEvaluator(s.cfg.PopularityThreshold, window),
		ledger,
		window,
		s.actions,
		s.pacer,
		traversal.Options{
			AdvanceRetries:       s.cfg.AdvanceRetries,
			AdvanceRetryInterval: s.cfg.AdvanceRetryInterval,
			Location:             s.cfg.Location,
			Now:                  s.now,
		},
		log,
	)
	sched := scheduler.New(configured, ledger)
	order := make([]string, 0, len(configured))
	for _, niche := range sched.Order() {
		order = append(order, niche.Tag)
	}
	log.Info().Str("day", ledger.Day()).Strs("order", order).Msg("engage: порядок обхода категорий")
	for {
		niche, ok, err := sched.Next(ctx)
		if err != nil {
			res.GlobalCount = ledger.GlobalCount()
			return res, err
		}
		if !ok {
			break
		}
		outcome, err := controller.Run(ctx, niche)
		res.Outcomes = append(res.Outcomes, outcome)
		sched.Complete(niche.ID)
		if err != nil {
			res.GlobalCount = ledger.GlobalCount()
			return res, fmt.Errorf("категория %s: %w", niche.Tag, err)
		}
	}

	res.GlobalCount = ledger.GlobalCount()
	res.Stop = StopAllExhausted
	if left := sched.Remaining(); left > 0 {
		log.Debug().Int("remaining", left).Msg("engage: категории не обойдены, общая квота выбрана")
	}
	if !ledger.AdmitGlobal() {
		res.Stop = StopQuotaMet
	}
	metrics.ObserveRun(start, res.GlobalCount)

	summary, err := report.NewAggregator(s.niches, s.actions).Summarize(ctx, account.ID, res.Day)
	if err != nil {
		return res, fmt.Errorf("сводка за день: %w", err)
	}
	res.Report = summary
	if s.notifier != nil {
		if err := s.notifier.SendReport(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("engage: не удалось отправить сводку")
		}
	}
	log.Info().
		Str("stop", string(res.Stop)).
		Int("acted", res.Acted()).
		Int("global", res.GlobalCount).
		Msg("engage: запуск завершён")
	return res, nil
}
