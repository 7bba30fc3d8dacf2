package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/storage"
)

// StudentHandler handles student-level administrative endpoints.
type StudentHandler struct {
	engine *engine.Engine
	repo   storage.Repository
	logger handlerLogger
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(eng *engine.Engine, repo storage.Repository, log handlerLogger) *StudentHandler {
	return &StudentHandler{
		engine: eng,
		repo:   repo,
		logger: log,
	}
}

// List handles GET /api/v1/students
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	students, err := h.engine.ActiveStudents(ctx)
	if err != nil {
		h.logger.Error("Failed to list students", "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list students", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"count":    len(students),
		"students": students,
	})
}

// Erase handles DELETE /api/v1/students/{studentID}
func (h *StudentHandler) Erase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	if err := h.engine.EraseStudent(ctx, studentID, h.repo); err != nil {
		h.logger.Error("Failed to erase student data", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to erase student data", getRequestID(ctx))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
