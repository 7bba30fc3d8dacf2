package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyflow/studyflow/pkg/logger"
)

func TestLogger(t *testing.T) {
	log := logger.New(&logger.Config{
		Level:  logger.InfoLevel,
		Format: "json",
		Output: "stdout",
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	})

	wrappedHandler := Logger(log)(handler)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()

	wrappedHandler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Logger middleware status = %v, want %v", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "created" {
		t.Errorf("Logger middleware body = %q, want %q", w.Body.String(), "created")
	}
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusAccepted)
	rw.Write([]byte("hello"))
	rw.Write([]byte(" world"))

	if rw.statusCode != http.StatusAccepted {
		t.Errorf("statusCode = %v, want %v", rw.statusCode, http.StatusAccepted)
	}
	if rw.size != len("hello world") {
		t.Errorf("size = %v, want %v", rw.size, len("hello world"))
	}
}
