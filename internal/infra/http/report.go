package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"niche-pacer/internal/domain"
)

// Summarizer строит дневную сводку аккаунта.
type Summarizer interface {
	Summarize(ctx context.Context, accountID int64, day string) (domain.Report, error)
}

type reportResponse struct {
	Account string         `json:"account"`
	Day     string         `json:"day"`
	Niches  map[string]int `json:"niches"`
	Order   []string       `json:"order"`
	Total   int            `json:"total"`
}

// ReportHandler отдаёт сводку действий за день.
type ReportHandler struct {
	accounts   domain.AccountRepo
	summarizer Summarizer
	account    string
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

// NewReportHandler создаёт обработчик сводок для аккаунта по умолчанию.
func NewReportHandler(accounts domain.AccountRepo, summarizer Summarizer, account string, loc *time.Location, log zerolog.Logger) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{accounts: accounts, summarizer: summarizer, account: account, loc: loc, now: time.Now, log: log}
}

// Mount регистрирует маршруты /api/v1/report/{day}. day — YYYY-MM-DD или today.
func (h *ReportHandler) Mount(r chi.Router) {
	r.Get("/api/v1/report/{day}", h.report)
}

func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if day == "today" {
		day = domain.CivilDay(h.now(), h.loc)
	}
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		WriteError(w, http.StatusBadRequest, "день должен быть в формате YYYY-MM-DD")
		return
	}
	username := r.URL.Query().Get("account")
	if username == "" {
		username = h.account
	}
	acc, err := h.accounts.GetAccount(r.Context(), username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		WriteError(w, http.StatusNotFound, "аккаунт не найден")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(r)).Msg("http: аккаунт")
		WriteError(w, http.StatusInternalServerError, "не удалось получить аккаунт")
		return
	}
	report, err := h.summarizer.Summarize(r.Context(), acc.ID, day)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", RequestID(r)).Msg("http: сводка")
		WriteError(w, http.StatusInternalServerError, "не удалось построить сводку")
		return
	}
	resp := reportResponse{Account: acc.Username, Day: report.Day, Niches: report.ByTag(), Total: report.Total}
	for _, n := range report.Niches {
		resp.Order = append(resp.Order, n.Tag)
	}
	WriteJSON(w, http.StatusOK, resp)
}
