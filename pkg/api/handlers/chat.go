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

// ClassificationRecorder observes intent routing decisions.
type ClassificationRecorder interface {
	RecordClassification(intent, tier string)
}

// ChatHandler handles conversation-facing endpoints: intent routing,
// context retrieval, exchange recording and memory feedback.
type ChatHandler struct {
	engine   *engine.Engine
	logger   handlerLogger
	recorder ClassificationRecorder
}

type handlerLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewChatHandler creates a new chat handler. The recorder may be nil.
func NewChatHandler(eng *engine.Engine, log handlerLogger, recorder ClassificationRecorder) *ChatHandler {
	return &ChatHandler{
		engine:   eng,
		logger:   log,
		recorder: recorder,
	}
}

// --- Request/Response types ---

type classifyRequest struct {
	Text string `json:"text"`
}

type retrieveContextRequest struct {
	Query          string `json:"query"`
	CurrentSubject string `json:"currentSubject,omitempty"`
}

type recordExchangeRequest struct {
	UserMessage string `json:"userMessage"`
	Reply       string `json:"reply"`
	Emotion     string `json:"emotion,omitempty"`
}

type feedbackRequest struct {
	Helpful bool `json:"helpful"`
}

// Classify handles POST /api/v1/classify
func (h *ChatHandler) Classify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Text is required", getRequestID(ctx))
		return
	}

	decision := h.engine.Classify(req.Text)
	if h.recorder != nil {
		h.recorder.RecordClassification(string(decision.Intent), string(decision.Model))
	}

	response.JSON(w, http.StatusOK, decision)
}

// RetrieveContext handles POST /api/v1/students/{studentID}/context
func (h *ChatHandler) RetrieveContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	var req retrieveContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Query is required", getRequestID(ctx))
		return
	}

	memCtx, err := h.engine.RetrieveContext(ctx, studentID, req.Query, req.CurrentSubject)
	if err != nil {
		h.logger.Error("Failed to retrieve context", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to retrieve context", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, memCtx)
}

// RecordExchange handles POST /api/v1/students/{studentID}/exchanges
func (h *ChatHandler) RecordExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	var req recordExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "User message is required", getRequestID(ctx))
		return
	}

	emotion := burnout.Emotion(strings.ToUpper(strings.TrimSpace(req.Emotion)))
	if emotion == "" {
		emotion = burnout.EmotionNeutral
	}

	if err := h.engine.RecordExchange(ctx, studentID, req.UserMessage, req.Reply, emotion); err != nil {
		h.logger.Error("Failed to record exchange", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to record exchange", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// MemoryFeedback handles POST /api/v1/students/{studentID}/memories/{memoryID}/feedback
func (h *ChatHandler) MemoryFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	memoryID := chi.URLParam(r, "memoryID")

	if studentID == "" || memoryID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and memory ID are required", getRequestID(ctx))
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}

	mem, err := h.engine.MemoryFeedback(ctx, studentID, memoryID, req.Helpful)
	if err != nil {
		h.logger.Error("Failed to apply memory feedback", "student_id", studentID, "memory_id", memoryID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to apply feedback", getRequestID(ctx))
		return
	}
	if mem == nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, mem)
}
