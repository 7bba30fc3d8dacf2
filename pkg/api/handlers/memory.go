package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/api/response"
	"github.com/studyflow/studyflow/pkg/memory"
)

// MemoryHandler handles memory inspection endpoints. Feedback and
// retrieval go through the chat handler; this one exposes the raw
// per-student records.
type MemoryHandler struct {
	store  *memory.VectorStore
	logger handlerLogger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(store *memory.VectorStore, log handlerLogger) *MemoryHandler {
	return &MemoryHandler{
		store:  store,
		logger: log,
	}
}

type listMemoriesResponse struct {
	StudentID string                   `json:"studentId"`
	Count     int                      `json:"count"`
	Memories  []*memory.LearningMemory `json:"memories"`
}

// ListMemories handles GET /api/v1/students/{studentID}/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")

	if studentID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID is required", getRequestID(ctx))
		return
	}

	mems, err := h.store.GetAll(ctx, studentID)
	if err != nil {
		h.logger.Error("Failed to list memories", "student_id", studentID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to list memories", getRequestID(ctx))
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(mems) {
			mems = mems[:limit]
		}
	}

	response.JSON(w, http.StatusOK, listMemoriesResponse{
		StudentID: studentID,
		Count:     len(mems),
		Memories:  mems,
	})
}

// GetMemory handles GET /api/v1/students/{studentID}/memories/{memoryID}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	memoryID := chi.URLParam(r, "memoryID")

	if studentID == "" || memoryID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Student ID and memory ID are required", getRequestID(ctx))
		return
	}

	mem, err := h.store.Get(ctx, studentID, memoryID)
	if err != nil {
		h.logger.Error("Failed to get memory", "student_id", studentID, "memory_id", memoryID, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to get memory", getRequestID(ctx))
		return
	}
	if mem == nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Memory not found", getRequestID(ctx))
		return
	}

	response.JSON(w, http.StatusOK, mem)
}
