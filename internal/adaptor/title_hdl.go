package adaptor

import (
	"net/http"
	"strconv"

	"yamdb/internal/data/entity"
	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TitleHandler struct {
	service usecase.TitleService
	log     *zap.Logger
}

func NewTitleHandler(service usecase.TitleService, log *zap.Logger) *TitleHandler {
	return &TitleHandler{
		service: service,
		log:     log.With(zap.String("handler", "title")),
	}
}

// GetTitles handles GET /v1/titles?name=&year=&genre=&category=
func (h *TitleHandler) GetTitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := entity.TitleFilter{
		Name:     query.Get("name"),
		Genre:    query.Get("genre"),
		Category: query.Get("category"),
	}
	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Validation failed", map[string]string{"year": "Enter a whole number"})
			return
		}
		filter.Year = &year
	}

	titles, err := h.service.GetTitles(r.Context(), filter, request.NewPaginatedRequest(query))
	if err != nil {
		handleServiceError(w, h.log, err, "get titles")
		return
	}

	utils.ResponseSuccess(w, "Titles retrieved successfully", titles)
}

// GetTitleByID handles GET /v1/titles/{title_id}
func (h *TitleHandler) GetTitleByID(w http.ResponseWriter, r *http.Request) {
	title, err := h.service.GetTitleByID(r.Context(), chi.URLParam(r, "title_id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get title")
		return
	}

	utils.ResponseSuccess(w, "Title retrieved successfully", title)
}

// CreateTitle handles POST /v1/titles
func (h *TitleHandler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, err := h.service.CreateTitle(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create title")
		return
	}

	utils.ResponseCreated(w, "Title created successfully", title)
}

// UpdateTitle handles PATCH /v1/titles/{title_id}
func (h *TitleHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	title, err := h.service.UpdateTitle(r.Context(), chi.URLParam(r, "title_id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update title")
		return
	}

	utils.ResponseSuccess(w, "Title updated successfully", title)
}

// DeleteTitle handles DELETE /v1/titles/{title_id}
func (h *TitleHandler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTitle(r.Context(), chi.URLParam(r, "title_id")); err != nil {
		handleServiceError(w, h.log, err, "delete title")
		return
	}

	utils.ResponseNoContent(w)
}
