package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name              string
		existingRequestID string
		wantGenerated     bool
	}{
		{
			name:              "generate new request ID",
			existingRequestID: "",
			wantGenerated:     true,
		},
		{
			name:              "use existing request ID",
			existingRequestID: "existing-123",
			wantGenerated:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedRequestID string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedRequestID = GetRequestID(r)
				w.WriteHeader(http.StatusOK)
			})

			middleware := RequestID()
			wrappedHandler := middleware(handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingRequestID != "" {
				req.Header.Set("X-Request-ID", tt.existingRequestID)
			}
			w := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(w, req)

			responseID := w.Header().Get("X-Request-ID")
			if responseID == "" {
				t.Error("X-Request-ID header not set in response")
			}
			if capturedRequestID == "" {
				t.Error("Request ID not set in context")
			}
			if responseID != capturedRequestID {
				t.Errorf("Response ID %v != Context ID %v", responseID, capturedRequestID)
			}

			if tt.wantGenerated {
				if _, err := uuid.Parse(capturedRequestID); err != nil {
					t.Errorf("Generated request ID is not a valid UUID: %v", err)
				}
			} else {
				if capturedRequestID != tt.existingRequestID {
					t.Errorf("Request ID = %v, want %v", capturedRequestID, tt.existingRequestID)
				}
			}
		})
	}
}
