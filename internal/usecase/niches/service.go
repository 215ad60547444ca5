package niches

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"niche-pacer/internal/domain"
)

var (
	ErrTagInvalid      = errors.New("некорректный тег")
	ErrPriorityInvalid = errors.New("некорректный приоритет")
	ErrTagDuplicate    = errors.New("тег указан дважды")
	ErrUsernameEmpty   = errors.New("не указан аккаунт")
)

var tagRegex = regexp.MustCompile(`(?i)^#?([\p{L}\p{N}_]+)$`)

// Service синхронизирует аккаунт и категории с конфигурацией.
type Service struct {
	accounts domain.AccountRepo
	niches   domain.NicheRepo
}

// NewService создаёт сервис категорий.
func NewService(accounts domain.AccountRepo, niches domain.NicheRepo) *Service {
	return &Service{accounts: accounts, niches: niches}
}

// ParseTag приводит тег к каноничному виду: без «#», в нижнем регистре.
func ParseTag(input string) (string, error) {
	matches := tagRegex.FindStringSubmatch(strings.TrimSpace(input))
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %q", ErrTagInvalid, input)
	}
	return strings.ToLower(matches[1]), nil
}

// ParseTags разбирает записи вида «tag» или «tag:priority».
// Тегу без приоритета назначается его порядковый номер, начиная с единицы.
func ParseTags(entries []string) ([]domain.TagConfig, error) {
	out := make([]domain.TagConfig, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		name, rawPriority, hasPriority := strings.Cut(entry, ":")
		tag, err := ParseTag(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag]; ok {
			return nil, fmt.Errorf("%w: %s", ErrTagDuplicate, tag)
		}
		seen[tag] = struct{}{}
		priority := len(out) + 1
		if hasPriority {
			priority, err = strconv.Atoi(strings.TrimSpace(rawPriority))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %q", ErrPriorityInvalid, tag, rawPriority)
			}
		}
		out = append(out, domain.TagConfig{Tag: tag, Priority: priority})
	}
	return out, nil
}

// Sync создаёт аккаунт и недостающие категории и обновляет приоритеты из конфигурации.
// Возвращает только настроенные категории в порядке конфигурации. Категории не удаляются.
func (s *Service) Sync(ctx context.Context, username string, tags []domain.TagConfig) (domain.Account, []domain.Niche, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Account{}, nil, ErrUsernameEmpty
	}
	account, err := s.accounts.EnsureAccount(ctx, username)
	if err != nil {
		return domain.Account{}, nil, fmt.Errorf("сохранение аккаунта: %w", err)
	}
	existing, err := s.niches.ListNiches(ctx, account.ID)
	if err != nil {
		return domain.Account{}, nil, fmt.Errorf("категории аккаунта: %w", err)
	}
	byTag := make(map[string]domain.Niche, len(existing))
	for _, n := range existing {
		byTag[n.Tag] = n
	}

	out := make([]domain.Niche, 0, len(tags))
	for _, tag := range tags {
		niche, ok := byTag[tag.Tag]
		switch {
		case !ok:
			niche, err = s.niches.CreateNiche(ctx, domain.Niche{AccountID: account.ID, Tag: tag.Tag, Priority: tag.Priority})
			if err != nil {
				return domain.Account{}, nil, fmt.Errorf("создание категории %s: %w", tag.Tag, err)
			}
		case niche.Priority != tag.Priority:
			if err := s.niches.UpdateNichePriority(ctx, niche.ID, tag.Priority); err != nil {
				return domain.Account{}, nil, fmt.Errorf("приоритет категории %s: %w", tag.Tag, err)
			}
			niche.Priority = tag.Priority
		}
		out = append(out, niche)
	}
	return account, out, nil
}
