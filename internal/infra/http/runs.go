package http

import (
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"niche-pacer/internal/domain"
)

// RunHandler ставит внеплановые запуски в очередь.
type RunHandler struct {
	queue   domain.RunQueue
	account string
	log     zerolog.Logger
}

// NewRunHandler создаёт обработчик запросов запуска.
func NewRunHandler(queue domain.RunQueue, account string, log zerolog.Logger) *RunHandler {
	return &RunHandler{queue: queue, account: account, log: log}
}

// Mount регистрирует POST /api/v1/runs.
func (h *RunHandler) Mount(r chi.Router) {
	r.Post("/api/v1/runs", h.enqueue)
}

func (h *RunHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	req := domain.RunRequest{
		ID:          uuid.NewString(),
		Account:     h.account,
		RequestedAt: time.Now().UTC(),
		Cause:       domain.RunCauseManual,
	}
	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(r)).Msg("http: постановка запуска")
		WriteError(w, http.StatusServiceUnavailable, "не удалось поставить запуск в очередь")
		return
	}
	WriteJSON(w, http.StatusAccepted, req)
}
