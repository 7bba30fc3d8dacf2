package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/schedule"
)

// ScheduleHandler handles delay analysis and rescheduling endpoints.
type ScheduleHandler struct {
	engine *engine.Engine
	logger handlerLogger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(eng *engine.Engine, log handlerLogger) *ScheduleHandler {
	return &ScheduleHandler{
		engine: eng,
		logger: log,
	}
}

type rescheduleOptionsRequest struct {
	AbsenceDays int    `json:"absenceDays"`
	StartDate   string `json:"startDate,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type autoRescheduleResponse struct {
	Analysis *schedule.DelayAnalysis `json:"analysis"`
	Decision schedule.Decision       `json:"decision"`
}

// Delays handles GET /api/v1/students/{studentID}/schedule/delays
func (h *ScheduleHandler) Delays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	analysis, err := h.engine.AnalyzeDelays(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to analyze delays", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to analyze delays", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, analysis)
}

// AutoReschedule handles POST /api/v1/students/{studentID}/schedule/auto
func (h *ScheduleHandler) AutoReschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	analysis, decision, err := h.engine.AutoReschedule(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to auto-reschedule", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to auto-reschedule", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, autoRescheduleResponse{
		Analysis: analysis,
		Decision: decision,
	})
}

// Options handles POST /api/v1/students/{studentID}/schedule/options
func (h *ScheduleHandler) Options(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	var req rescheduleOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(ctx))
		return
	}
	if req.AbsenceDays <= 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Absence days must be positive", getRequestID(ctx))
		return
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Start date must be YYYY-MM-DD", getRequestID(ctx))
			return
		}
		startDate = parsed
	}

	options, err := h.engine.GenerateRescheduleOptions(ctx, schedule.RescheduleRequest{
		StudentID:   studentID,
		AbsenceDays: req.AbsenceDays,
		StartDate:   startDate,
		Reason:      req.Reason,
	})
	if err != nil {
		h.logger.Error("Failed to generate reschedule options", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to generate options", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, options)
}
