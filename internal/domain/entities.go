package domain

// Account описывает аккаунт, от имени которого ставятся лайки.
type Account struct {
	ID       int64
	Username string
}

// Niche описывает тематическую категорию (тег) с приоритетом.
// Меньшее значение Priority означает более высокий приоритет.
type Niche struct {
	ID        int64
	AccountID int64
	Tag       string
	Priority  int
}

// TagConfig описывает тег из конфигурации. Priority равен нулю, если приоритет не задан.
type TagConfig struct {
	Tag      string
	Priority int
}

// ActionRecord фиксирует одно выполненное действие (лайк).
// Timestamp хранится в формате CivilLayout и сравнивается лексикографически.
type ActionRecord struct {
	ID          int64
	NicheID     int64
	TargetActor string
	Timestamp   string
}

// SignalKind описывает тип сигнала о количестве вовлечённости у поста.
type SignalKind string

const (
	// SignalNone — у поста ещё нет реакций.
	SignalNone SignalKind = "none"
	// SignalCount — видно точное количество реакций.
	SignalCount SignalKind = "count"
	// SignalHidden — количество скрыто («и другие»).
	SignalHidden SignalKind = "hidden"
	// SignalMedia — тип медиа не показывает количество лайков (видео, reels).
	SignalMedia SignalKind = "media"
	// SignalUnknown — текст сигнала не распознан.
	SignalUnknown SignalKind = "unknown"
)

// EngagementSignal — результат классификации текста счётчика реакций.
type EngagementSignal struct {
	Kind  SignalKind
	Count int
	Raw   string
}

// ItemHandle указывает на элемент ленты категории.
type ItemHandle struct {
	Tag    string
	ItemID string
	Cursor string
}

// CandidateItem — пост из ленты, который оценивается для действия.
type CandidateItem struct {
	Handle       ItemHandle
	TargetActor  string
	Signal       EngagementSignal
	AlreadyActed bool
	Verified     bool
}

// Credentials содержит данные для входа в аккаунт.
type Credentials struct {
	Username    string
	Password    string
	TwoStepAuth bool
}

// NicheCount — количество действий в категории за день.
type NicheCount struct {
	NicheID int64
	Tag     string
	Count   int
}

// Report — сводка действий аккаунта за календарный день.
type Report struct {
	AccountID int64
	Day       string
	Niches    []NicheCount
	Total     int
}

// ByTag возвращает количество действий по тегам.
func (r Report) ByTag() map[string]int {
	out := make(map[string]int, len(r.Niches))
	for _, n := range r.Niches {
		out[n.Tag] += n.Count
	}
	return out
}
