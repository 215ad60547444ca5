package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"niche-pacer/internal/domain"
)

var (
	// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrInvalidRunTime возвращается, если время запуска не в формате HH:MM.
	ErrInvalidRunTime = errors.New("invalid run time")
)

// ключ живёт дольше суток, чтобы перезапуск демона в тот же день не повторял запуск
const onceTTL = 36 * time.Hour

// Daily запускает работу не чаще раза в гражданский день, начиная с заданного времени.
type Daily struct {
	at    time.Duration
	loc   *time.Location
	cache domain.Cache
	key   string
	log   zerolog.Logger
}

// NewDaily создаёт ежедневный триггер. runTime — "HH:MM" в поясе timezone.
func NewDaily(runTime, timezone string, cache domain.Cache, key string, log zerolog.Logger) (*Daily, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(runTime))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunTime, runTime)
	}
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Daily{
		at:    time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute,
		loc:   loc,
		cache: cache,
		key:   key,
		log:   log,
	}, nil
}

// Location возвращает часовой пояс триггера.
func (d *Daily) Location() *time.Location { return d.loc }

// Due сообщает гражданский день и наступило ли в нём время запуска.
func (d *Daily) Due(now time.Time) (string, bool) {
	local := now.In(d.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
	return local.Format(domain.DayLayout), local.Sub(midnight) >= d.at
}

// Tick выполняет run, если время наступило и за этот день запуска ещё не было.
// Ошибка run снимает отметку дня, и следующий тик повторит попытку.
func (d *Daily) Tick(ctx context.Context, now time.Time, run func(ctx context.Context, day string) error) (bool, error) {
	day, due := d.Due(now)
	if !due {
		return false, nil
	}
	ran := false
	err := d.cache.Once(d.key+":"+day, onceTTL, func() error {
		ran = true
		d.log.Info().Str("day", day).Msg("schedule: запуск по расписанию")
		return run(ctx, day)
	})
	return ran, err
}

// LoadLocation нормализует имя часового пояса и загружает его.
func LoadLocation(raw string) (*time.Location, error) {
	normalized, err := normalizeTimezone(raw)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(normalized)
}

func normalizeTimezone(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrInvalidTimezone
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}

	parts := strings.Split(strings.ToLower(candidate), "/")
	for i, part := range parts {
		parts[i] = titleSegments(part)
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimezone, raw)
}

// titleSegments делает заглавной первую букву каждого слова в "new_york" или "port-au-prince".
func titleSegments(part string) string {
	runes := []rune(part)
	upper := true
	for i, r := range runes {
		if upper {
			runes[i] = unicode.ToUpper(r)
		}
		upper = r == '_' || r == '-'
	}
	return string(runes)
}
