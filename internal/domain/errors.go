package domain

import "errors"

var (
	// ErrNoNiches возвращается, если в конфигурации нет ни одной категории.
	ErrNoNiches = errors.New("не настроено ни одной категории")
	// ErrQuotaMet возвращается, если дневная квота уже выбрана на момент старта.
	ErrQuotaMet = errors.New("дневная квота уже выбрана")
	// ErrSessionLost возвращается исполнителем при невосстановимой потере сессии.
	ErrSessionLost = errors.New("сессия потеряна")
	// ErrRunInProgress возвращается, если другой запуск для аккаунта ещё не завершён.
	ErrRunInProgress = errors.New("запуск уже выполняется")
	// ErrAccountNotFound возвращается, если аккаунт не найден.
	ErrAccountNotFound = errors.New("аккаунт не найден")
)
