// Package handlers provides HTTP handlers for the blueprint REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutriplan/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutriplan/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// BlueprintHandlers handles weekly blueprint requests
type BlueprintHandlers struct {
	service inbound.BlueprintService
	logger  *zap.Logger
	now     func() time.Time
}

// NewBlueprintHandlers creates a new blueprint handlers instance
func NewBlueprintHandlers(service inbound.BlueprintService, logger *zap.Logger) *BlueprintHandlers {
	return &BlueprintHandlers{
		service: service,
		logger:  logger.Named("blueprint-handlers"),
		now:     time.Now,
	}
}

// GenerateRequest is the body of POST /api/v1/blueprints
type GenerateRequest struct {
	// WeekStart is an ISO date on a Monday; empty means the current week
	WeekStart   string `json:"week_start"`
	CalorieGoal int    `json:"calorie_goal,omitempty"`
}

// ListResponse wraps plan summaries
type ListResponse struct {
	Plans []blueprint.Summary `json:"plans"`
	Count int                 `json:"count"`
}

// Generate handles POST /api/v1/blueprints
func (h *BlueprintHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, apperrors.NewUnauthorizedError(""), 0)
		return
	}

	var req GenerateRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, r, apperrors.NewBadRequestError("Invalid request body").WithCause(err), 0)
		return
	}

	week := blueprint.WeekStart(h.now())
	if req.WeekStart != "" {
		parsed, err := blueprint.ParseWeekStart(req.WeekStart)
		if err != nil {
			middleware.WriteError(w, r, apperrors.NewValidationError(err.Error()), 0)
			return
		}
		week = parsed
	}

	plan, err := h.service.Generate(r.Context(), inbound.GenerateCommand{
		UserID:      userID,
		WeekStart:   week,
		CalorieGoal: req.CalorieGoal,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, blueprint.ToDocument(plan))
}

// GetPlan handles GET /api/v1/blueprints/{week}
func (h *BlueprintHandlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID, week, ok := h.userAndWeek(w, r)
	if !ok {
		return
	}

	plan, err := h.service.GetPlan(r.Context(), userID, week)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, blueprint.ToDocument(plan))
}

// DeletePlan handles DELETE /api/v1/blueprints/{week}
func (h *BlueprintHandlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	userID, week, ok := h.userAndWeek(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), userID, week); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPlans handles GET /api/v1/blueprints
func (h *BlueprintHandlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, apperrors.NewUnauthorizedError(""), 0)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.WriteError(w, r, apperrors.NewValidationError("limit must be a positive integer"), 0)
			return
		}
		limit = parsed
	}

	summaries, err := h.service.ListPlans(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ListResponse{Plans: summaries, Count: len(summaries)})
}

func (h *BlueprintHandlers) userAndWeek(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, apperrors.NewUnauthorizedError(""), 0)
		return "", time.Time{}, false
	}

	week, err := blueprint.ParseWeekStart(chi.URLParam(r, "week"))
	if err != nil {
		middleware.WriteError(w, r, apperrors.NewValidationError(err.Error()), 0)
		return "", time.Time{}, false
	}
	return userID, week, true
}

func (h *BlueprintHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("Unclassified service error", zap.Error(err))
	} else if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Blueprint request failed",
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	middleware.WriteError(w, r, err, 0)
}

// writeJSON writes a JSON response
func (h *BlueprintHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
