package eligibility

import (
	"strings"

	"niche-pacer/internal/domain"
)

// DefaultThreshold — максимальное видимое число лайков, при котором пост ещё подходит.
const DefaultThreshold = 100

// Reason описывает причину отказа.
type Reason string

const (
	ReasonNoActor            Reason = "no_actor"
	ReasonAlreadyActed       Reason = "already_acted"
	ReasonTooPopular         Reason = "too_popular"
	ReasonNoEngagement       Reason = "no_engagement"
	ReasonUnrecognizedSignal Reason = "unrecognized_signal"
	ReasonRecentActor        Reason = "recent_actor"
	ReasonVerified           Reason = "verified"
)

// Decision — результат оценки одного поста.
type Decision struct {
	Accept bool
	Reason Reason
}

// Warning сообщает, что отказ стоит показать как предупреждение.
func (d Decision) Warning() bool {
	return !d.Accept && d.Reason == ReasonUnrecognizedSignal
}

// RecentActors отвечает на вопрос, получал ли автор действие недавно.
type RecentActors interface {
	HasRecentAction(actor string) bool
}

// Evaluator решает, ставить ли лайк посту.
type Evaluator struct {
	threshold int
	recent    RecentActors
}

// NewEvaluator создаёт оценщик. threshold <= 0 заменяется значением по умолчанию.
func NewEvaluator(threshold int, recent RecentActors) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold, recent: recent}
}

// Evaluate проверяет пост в фиксированном порядке и останавливается на первом отказе.
// Дешёвые локальные проверки идут раньше обращения к окну дедупликации.
func (e *Evaluator) Evaluate(item domain.CandidateItem) Decision {
	if item.AlreadyActed {
		return reject(ReasonAlreadyActed)
	}
	switch item.Signal.Kind {
	case domain.SignalCount:
		if item.Signal.Count > e.threshold {
			return reject(ReasonTooPopular)
		}
	case domain.SignalNone:
		return reject(ReasonNoEngagement)
	case domain.SignalHidden, domain.SignalMedia:
	default:
		// нераспознанный сигнал считаем популярным постом неизвестного масштаба
		return reject(ReasonUnrecognizedSignal)
	}
	// без автора окно дедупликации не работает
	if strings.TrimSpace(item.TargetActor) == "" {
		return reject(ReasonNoActor)
	}
	if e.recent != nil && e.recent.HasRecentAction(item.TargetActor) {
		return reject(ReasonRecentActor)
	}
	if item.Verified {
		return reject(ReasonVerified)
	}
	return Decision{Accept: true}
}

// Threshold возвращает порог популярности.
func (e *Evaluator) Threshold() int {
	return e.threshold
}

func reject(reason Reason) Decision {
	return Decision{Reason: reason}
}
