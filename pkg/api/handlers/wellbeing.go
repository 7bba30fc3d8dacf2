package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/engine"
)

// WellbeingHandler handles emotion and burnout endpoints.
type WellbeingHandler struct {
	engine *engine.Engine
	logger handlerLogger
}

// NewWellbeingHandler creates a new wellbeing handler.
func NewWellbeingHandler(eng *engine.Engine, log handlerLogger) *WellbeingHandler {
	return &WellbeingHandler{
		engine: eng,
		logger: log,
	}
}

type recordEmotionRequest struct {
	Emotion string `json:"emotion"`
}

// RecordEmotion handles POST /api/v1/students/{studentID}/emotions
func (h *WellbeingHandler) RecordEmotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	var req recordEmotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	emotion := strings.ToUpper(strings.TrimSpace(req.Emotion))
	if emotion == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Emotion is required", getRequestID(ctx))
		return
	}

	if err := h.engine.RecordEmotion(ctx, studentID, burnout.Emotion(emotion)); err != nil {
		h.logger.Error("Failed to record emotion", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to record emotion", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// Burnout handles GET /api/v1/students/{studentID}/burnout
func (h *WellbeingHandler) Burnout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	indicator, err := h.engine.AssessBurnout(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to assess burnout", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to assess burnout", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, indicator)
}

// Recommendation handles GET /api/v1/students/{studentID}/burnout/recommendation
func (h *WellbeingHandler) Recommendation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	rec, err := h.engine.ShouldContinueStudying(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to compute study recommendation", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to compute recommendation", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"recommendation": string(rec)})
}
