package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/srs"
)

// MasteryHandler handles spaced-repetition endpoints.
type MasteryHandler struct {
	engine  *engine.Engine
	mastery *srs.Manager
	logger  handlerLogger
}

// NewMasteryHandler creates a new mastery handler.
func NewMasteryHandler(eng *engine.Engine, mastery *srs.Manager, log handlerLogger) *MasteryHandler {
	return &MasteryHandler{
		engine:  eng,
		mastery: mastery,
		logger:  log,
	}
}

type initializeTopicRequest struct {
	Subject      string  `json:"subject"`
	InitialScore float64 `json:"initialScore,omitempty"`
}

type gradeTopicRequest struct {
	Quality int `json:"quality"`
}

// InitializeTopic handles POST /api/v1/students/{studentID}/topics/{topicID}
func (h *MasteryHandler) InitializeTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	topicID := chi.URLParam(r, "topicID")

	if studentID == "" || topicID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and topic ID are required", getRequestID(ctx))
		return
	}

	var req initializeTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	tm, err := h.mastery.Initialize(ctx, studentID, topicID, req.Subject, req.InitialScore)
	if err != nil {
		h.logger.Error("Failed to initialize topic", "student_id", studentID, "topic_id", topicID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to initialize topic", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusCreated, tm)
}

// GradeTopic handles POST /api/v1/students/{studentID}/topics/{topicID}/review
func (h *MasteryHandler) GradeTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	topicID := chi.URLParam(r, "topicID")

	if studentID == "" || topicID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and topic ID are required", getRequestID(ctx))
		return
	}

	var req gradeTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	tm, err := h.engine.UpdateMastery(ctx, studentID, topicID, req.Quality)
	if err != nil {
		if errors.Is(err, srs.ErrInvalidQuality) {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
			return
		}
		h.logger.Error("Failed to grade topic", "student_id", studentID, "topic_id", topicID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to grade topic", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, tm)
}

// ListTopics handles GET /api/v1/students/{studentID}/topics
func (h *MasteryHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	topics, err := h.mastery.GetAllTopics(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to list topics", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list topics", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, topics)
}

// DueTopics handles GET /api/v1/students/{studentID}/reviews/due
func (h *MasteryHandler) DueTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	subject := r.URL.Query().Get("subject")
	due, err := h.engine.TopicsDueForReview(ctx, studentID, subject)
	if err != nil {
		h.logger.Error("Failed to list due topics", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list due topics", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, due)
}
