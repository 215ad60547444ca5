package domain

import (
	"context"
	"time"
)

// RunCause описывает источник запроса на запуск.
type RunCause string

const (
	// RunCauseManual — запуск запрошен через API.
	RunCauseManual RunCause = "manual"
	// RunCauseScheduled — запуск по ежедневному расписанию.
	RunCauseScheduled RunCause = "scheduled"
)

// RunRequest содержит информацию о запросе запуска.
type RunRequest struct {
	ID          string    `json:"run_id,omitempty"`
	Account     string    `json:"account"`
	RequestedAt time.Time `json:"requested_at"`
	Cause       RunCause  `json:"cause"`
}

// RunQueue передаёт запросы запусков от API демону.
type RunQueue interface {
	Enqueue(ctx context.Context, req RunRequest) error
	Pop(ctx context.Context) (RunRequest, error)
}
