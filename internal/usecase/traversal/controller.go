package traversal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/metrics"
	"niche-pacer/internal/usecase/eligibility"
)

// State — состояние обхода ленты категории.
type State string

const (
	StateStart             State = "start"
	StateLocatingFirstItem State = "locating_first_item"
	StateEvaluating        State = "evaluating"
	StateActing            State = "acting"
	StateAdvancing         State = "advancing"
	StateExhausted         State = "exhausted"
	StateQuotaMet          State = "quota_met"
)

// Terminal сообщает, завершает ли состояние обход категории.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateQuotaMet
}

// Нефатальные события обхода. Возвращаются в Outcome.Warnings, обход продолжается.
var (
	ErrFeedUnavailable    = errors.New("лента категории недоступна")
	ErrItemUnreadable     = errors.New("не удалось прочитать пост")
	ErrActionFailed       = errors.New("действие не выполнено")
	ErrAdvanceFailed      = errors.New("не удалось перейти к следующему посту")
	ErrUnrecognizedSignal = errors.New("нераспознанный счётчик реакций")
)

// Quota — часть учёта квот, которую меняет обход.
type Quota interface {
	Admit(nicheID int64) bool
	Record(nicheID int64)
}

// ActorWindow — окно дедупликации авторов.
type ActorWindow interface {
	Record(actor string)
}

// Evaluator решает судьбу поста.
type Evaluator interface {
	Evaluate(item domain.CandidateItem) eligibility.Decision
}

// Pacer выдерживает паузу между действиями.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Options настраивает обход.
type Options struct {
	// AdvanceRetries — сколько раз повторять переход к следующему посту после ошибки.
	AdvanceRetries int
	// AdvanceRetryInterval — пауза между повторами перехода.
	AdvanceRetryInterval time.Duration
	// Location — часовой пояс гражданского времени для меток действий.
	Location *time.Location
	// Now возвращает текущее время; по умолчанию time.Now.
	Now func() time.Time
}

// Outcome — итог обхода одной категории.
type Outcome struct {
	Niche      domain.Niche
	Final      State
	Evaluated  int
	Acted      int
	Failed     int
	Rejections map[eligibility.Reason]int
	Records    []domain.ActionRecord
	Warnings   []error
}

// Controller проходит ленту категории от первого поста до исчерпания ленты или квоты.
type Controller struct {
	nav     domain.Navigator
	exec    domain.Executor
	eval    Evaluator
	quota   Quota
	window  ActorWindow
	actions domain.ActionRepo
	pacer   Pacer
	opts    Options
	log     zerolog.Logger
}

// NewController создаёт обход.
func NewController(nav domain.Navigator, exec domain.Executor, eval Evaluator, quota Quota, window ActorWindow, actions domain.ActionRepo, pacer Pacer, opts Options, log zerolog.Logger) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.AdvanceRetries < 0 {
		opts.AdvanceRetries = 0
	}
	return &Controller{nav: nav, exec: exec, eval: eval, quota: quota, window: window, actions: actions, pacer: pacer, opts: opts, log: log}
}

// Run обходит ленту категории. Ошибка возвращается только для фатальных ситуаций:
// потеря сессии, отказ хранилища при записи действия или отмена контекста.
// Уже записанные действия остаются в силе.
func (c *Controller) Run(ctx context.Context, niche domain.Niche) (Outcome, error) {
	out := Outcome{Niche: niche, Final: StateStart, Rejections: make(map[eligibility.Reason]int)}
	log := c.log.With().Str("niche", niche.Tag).Logger()

	var (
		handle domain.ItemHandle
		item   domain.CandidateItem
	)
	state := StateStart
	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			out.Final = state
			return out, err
		}
		switch state {
		case StateStart:
			state = StateLocatingFirstItem

		case StateLocatingFirstItem:
			first, ok, err := c.nav.OpenFeed(ctx, niche.Tag)
			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					out.Final = state
					return out, ctxErr
				}
				out.warn(log, fmt.Errorf("%w: %s: %v", ErrFeedUnavailable, niche.Tag, err))
				state = StateExhausted
			case !ok:
				log.Info().Msg("traversal: в ленте нет постов")
				state = StateExhausted
			default:
				handle = first
				state = StateEvaluating
			}

		case StateEvaluating:
			current, err := c.nav.CurrentItem(ctx, handle)
			if err != nil {
				out.warn(log, fmt.Errorf("%w: %s: %v", ErrItemUnreadable, handle.ItemID, err))
				state = StateAdvancing
				continue
			}
			current.Handle = handle
			out.Evaluated++
			decision := c.eval.Evaluate(current)
			if decision.Accept {
				item = current
				state = StateActing
				continue
			}
			out.Rejections[decision.Reason]++
			metrics.IncRejected(string(decision.Reason))
			if decision.Warning() {
				out.warn(log, fmt.Errorf("%w: %q", ErrUnrecognizedSignal, current.Signal.Raw))
			} else {
				log.Debug().Str("item", current.Handle.ItemID).Str("reason", string(decision.Reason)).Msg("traversal: пост пропущен")
			}
			state = StateAdvancing

		case StateActing:
			if err := c.act(ctx, niche, item, &out, log); err != nil {
				out.Final = state
				return out, err
			}
			if err := c.pacer.Wait(ctx); err != nil {
				out.Final = state
				return out, err
			}
			state = StateAdvancing

		case StateAdvancing:
			next, ok, err := c.advance(ctx, handle, log)
			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					out.Final = state
					return out, ctxErr
				}
				out.warn(log, fmt.Errorf("%w: %v", ErrAdvanceFailed, err))
				state = StateExhausted
			case !ok:
				state = StateExhausted
			case !c.quota.Admit(niche.ID):
				handle = next
				state = StateQuotaMet
			default:
				handle = next
				state = StateEvaluating
			}
		}
	}

	out.Final = state
	metrics.IncNicheRun(string(state))
	log.Info().
		Str("final", string(state)).
		Int("evaluated", out.Evaluated).
		Int("acted", out.Acted).
		Int("failed", out.Failed).
		Msg("traversal: обход категории завершён")
	return out, nil
}

func (c *Controller) act(ctx context.Context, niche domain.Niche, item domain.CandidateItem, out *Outcome, log zerolog.Logger) error {
	ok, err := c.exec.Act(ctx, item.Handle)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, domain.ErrSessionLost) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrSessionLost, err)
	}
	if !ok {
		out.Failed++
		metrics.IncActionFailure(niche.Tag)
		out.warn(log, fmt.Errorf("%w: %s", ErrActionFailed, item.Handle.ItemID))
		return nil
	}

	c.window.Record(item.TargetActor)
	c.quota.Record(niche.ID)
	record, err := c.actions.AppendAction(ctx, domain.ActionRecord{
		NicheID:     niche.ID,
		TargetActor: item.TargetActor,
		Timestamp:   domain.FormatCivil(c.opts.Now(), c.opts.Location),
	})
	if err != nil {
		return fmt.Errorf("запись действия: %w", err)
	}
	out.Acted++
	out.Records = append(out.Records, record)
	metrics.IncAction(niche.Tag)
	log.Info().Str("item", item.Handle.ItemID).Str("actor", item.TargetActor).Msg("traversal: действие выполнено")
	return nil
}

func (c *Controller) advance(ctx context.Context, handle domain.ItemHandle, log zerolog.Logger) (domain.ItemHandle, bool, error) {
	var (
		next domain.ItemHandle
		ok   bool
	)
	operation := func() error {
		var err error
		next, ok, err = c.nav.Advance(ctx, handle)
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.AdvanceRetryInterval), uint64(c.opts.AdvanceRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("traversal: ошибка перехода, повторяем")
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return domain.ItemHandle{}, false, err
	}
	return next, ok, nil
}

func (o *Outcome) warn(log zerolog.Logger, err error) {
	o.Warnings = append(o.Warnings, err)
	log.Warn().Err(err).Msg("traversal: нефатальная ошибка")
}
