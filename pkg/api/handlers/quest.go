package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/quest"
)

// QuestHandler handles daily quest endpoints.
type QuestHandler struct {
	engine *engine.Engine
	logger handlerLogger
}

// NewQuestHandler creates a new quest handler.
func NewQuestHandler(eng *engine.Engine, log handlerLogger) *QuestHandler {
	return &QuestHandler{
		engine: eng,
		logger: log,
	}
}

type progressRequest struct {
	Delta int `json:"delta"`
}

// Today handles GET /api/v1/students/{studentID}/quests/today
func (h *QuestHandler) Today(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	today, err := h.engine.GenerateTodayQuests(ctx, studentID)
	if err != nil {
		if errors.Is(err, quest.ErrInvalidStudentID) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to generate today's quests", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to generate quests", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, today)
}

// UpdateProgress handles POST /api/v1/students/{studentID}/quests/{questID}/progress
func (h *QuestHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	questID := chi.URLParam(r, "questID")

	if studentID == "" || questID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and quest ID are required", getRequestID(ctx))
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if req.Delta <= 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Delta must be positive", getRequestID(ctx))
		return
	}

	q, err := h.engine.UpdateProgress(ctx, studentID, questID, req.Delta)
	if err != nil {
		h.logger.Error("Failed to update quest progress", "student_id", studentID, "quest_id", questID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to update progress", getRequestID(ctx))
		return
	}
	if q == nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Quest not found or not updatable", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, q)
}

// Complete handles POST /api/v1/students/{studentID}/quests/{questID}/complete
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	questID := chi.URLParam(r, "questID")

	if studentID == "" || questID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and quest ID are required", getRequestID(ctx))
		return
	}

	result, err := h.engine.CompleteQuest(ctx, studentID, questID)
	if err != nil {
		h.logger.Error("Failed to complete quest", "student_id", studentID, "quest_id", questID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to complete quest", getRequestID(ctx))
		return
	}
	if result == nil {
		// Already terminal, locked or unknown. Completion is idempotent.
		response.JSON(w, http.StatusOK, map[string]string{"status": "no_change"})
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Skip handles POST /api/v1/students/{studentID}/quests/{questID}/skip
func (h *QuestHandler) Skip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	questID := chi.URLParam(r, "questID")

	if studentID == "" || questID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and quest ID are required", getRequestID(ctx))
		return
	}

	q, err := h.engine.SkipQuest(ctx, studentID, questID)
	if err != nil {
		h.logger.Error("Failed to skip quest", "student_id", studentID, "quest_id", questID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to skip quest", getRequestID(ctx))
		return
	}
	if q == nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Quest not found or not skippable", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, q)
}

// Recent handles GET /api/v1/students/{studentID}/quests/recent
func (h *QuestHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	days := parseDays(r, 7)
	recent, err := h.engine.RecentQuestDays(ctx, studentID, days)
	if err != nil {
		h.logger.Error("Failed to list recent quest days", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list recent quest days", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, recent)
}

// Progress handles GET /api/v1/students/{studentID}/progress
func (h *QuestHandler) Progress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	progress, err := h.engine.GetProgress(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to get progress", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to get progress", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, progress)
}

// parseDays reads a positive "days" query parameter with a default.
func parseDays(r *http.Request, fallback int) int {
	if s := r.URL.Query().Get("days"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
