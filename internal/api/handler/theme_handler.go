package handler

import (
	"net/http"

	"codele_backend/internal/app/service"
	"codele_backend/internal/common"

	"github.com/go-chi/chi/v5"
)

type ThemeHandler struct {
	themeService *service.ThemeService
}

func NewThemeHandler(ts *service.ThemeService) *ThemeHandler {
	return &ThemeHandler{themeService: ts}
}

func (h *ThemeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listThemes) // GET /api/v1/themes?month=2026-02
}

func (h *ThemeHandler) listThemes(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month") // optional

	themes, err := h.themeService.ListPublic(r.Context(), month)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, themes)
}
