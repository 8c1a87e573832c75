package handler

import (
	"encoding/json"
	"net/http"

	"codele_backend/internal/app/service"
	"codele_backend/internal/app/worker"
	"codele_backend/internal/common"
	"codele_backend/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	generationService *service.GenerationService
	generationWorker  *worker.GenerationWorker
	problemService    *service.ProblemService
	themeService      *service.ThemeService
	scheduleService   *service.ScheduleService
}

func NewAdminHandler(
	generationService *service.GenerationService,
	generationWorker *worker.GenerationWorker,
	problemService *service.ProblemService,
	themeService *service.ThemeService,
	scheduleService *service.ScheduleService,
) *AdminHandler {
	return &AdminHandler{
		generationService: generationService,
		generationWorker:  generationWorker,
		problemService:    problemService,
		themeService:      themeService,
		scheduleService:   scheduleService,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate", h.generate)            // POST /api/v1/admin/generate
	r.Post("/generate/async", h.generateAsync) // POST /api/v1/admin/generate/async
	r.Get("/jobs/{jobID}", h.getJob)           // GET  /api/v1/admin/jobs/{jobID}
	r.Get("/buffer", h.getBuffer)              // GET  /api/v1/admin/buffer

	r.Put("/problems/{date}", h.updateProblem)
	r.Post("/problems/{date}/move", h.moveProblem)
	r.Delete("/problems/{date}", h.deleteProblem)

	r.Put("/themes/{themeID}", h.renameTheme)
}

type generatePlanRequest struct {
	Batches []model.BatchSpec `json:"batches"`
}

func (h *AdminHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	plan, err := h.generationService.GeneratePlan(r.Context(), req.Batches)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, plan)
}

func (h *AdminHandler) generateAsync(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if len(req.Batches) == 0 {
		common.RespondWithError(w, http.StatusBadRequest, "No batches provided")
		return
	}

	job, err := h.generationWorker.Enqueue(r.Context(), req.Batches)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *AdminHandler) getJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.generationWorker.GetJob(r.Context(), jobID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if job == nil {
		common.RespondWithError(w, http.StatusNotFound, "Job not found or expired")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, job)
}

func (h *AdminHandler) getBuffer(w http.ResponseWriter, r *http.Request) {
	depth, err := h.scheduleService.BufferDepth(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	nextOpen, err := h.scheduleService.NextOpenDate(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"buffer_days":    depth,
		"next_open_date": nextOpen,
	})
}

func (h *AdminHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	var req service.UpdateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), date, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

type moveProblemRequest struct {
	NewDate string `json:"new_date"`
}

func (h *AdminHandler) moveProblem(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	var req moveProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	moved, err := h.problemService.MoveProblem(r.Context(), date, req.NewDate)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, moved)
}

func (h *AdminHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	if err := h.problemService.DeleteProblem(r.Context(), date); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "date": date})
}

type renameThemeRequest struct {
	Theme string `json:"theme"`
}

func (h *AdminHandler) renameTheme(w http.ResponseWriter, r *http.Request) {
	themeID := chi.URLParam(r, "themeID")

	var req renameThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	theme, err := h.themeService.Rename(r.Context(), themeID, req.Theme)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, theme)
}
