package handler

import (
	"net/http"

	"codele_backend/internal/app/service"
	"codele_backend/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/today", h.getToday)   // GET /api/v1/problem/today
	r.Get("/{date}", h.getByDate) // GET /api/v1/problem/2026-02-12
}

func (h *ProblemHandler) getToday(w http.ResponseWriter, r *http.Request) {
	resp, err := h.problemService.GetToday(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ProblemHandler) getByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	problem, err := h.problemService.GetByDate(r.Context(), date)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

type CalendarHandler struct {
	problemService *service.ProblemService
}

func NewCalendarHandler(ps *service.ProblemService) *CalendarHandler {
	return &CalendarHandler{problemService: ps}
}

func (h *CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.getMonth) // GET /api/v1/calendar?month=2026-02
}

func (h *CalendarHandler) getMonth(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		common.RespondWithError(w, http.StatusBadRequest, "month query parameter is required (YYYY-MM)")
		return
	}

	resp, err := h.problemService.Calendar(r.Context(), month)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
