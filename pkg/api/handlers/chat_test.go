package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyflow/studyflow/pkg/intent"
)

type recordedClassification struct {
	intent string
	tier   string
}

type fakeRecorder struct {
	calls []recordedClassification
}

func (r *fakeRecorder) RecordClassification(intent, tier string) {
	r.calls = append(r.calls, recordedClassification{intent: intent, tier: tier})
}

func TestChatHandler_Classify(t *testing.T) {
	recorder := &fakeRecorder{}
	h := NewChatHandler(newTestEngine(t), &nopLogger{}, recorder)

	body := bytes.NewBufferString(`{"text": "give me my quests for today"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.Classify(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Classify() status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var decision intent.RouteDecision
	if err := json.Unmarshal(w.Body.Bytes(), &decision); err != nil {
		t.Fatalf("Classify() invalid JSON: %v", err)
	}
	if decision.Intent != intent.IntentQuestRequest {
		t.Errorf("Classify() intent = %q, want %q", decision.Intent, intent.IntentQuestRequest)
	}
	if len(recorder.calls) != 1 {
		t.Fatalf("Classify() recorded %d classifications, want 1", len(recorder.calls))
	}
	if recorder.calls[0].intent != string(intent.IntentQuestRequest) {
		t.Errorf("recorded intent = %q, want %q", recorder.calls[0].intent, intent.IntentQuestRequest)
	}
}

func TestChatHandler_Classify_EmptyText(t *testing.T) {
	h := NewChatHandler(newTestEngine(t), &nopLogger{}, nil)

	body := bytes.NewBufferString(`{"text": "   "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", body)
	w := httptest.NewRecorder()

	h.Classify(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Classify() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestChatHandler_RecordExchange(t *testing.T) {
	h := NewChatHandler(newTestEngine(t), &nopLogger{}, nil)

	body := bytes.NewBufferString(`{"userMessage": "this is too hard", "reply": "let's slow down", "emotion": "frustrated"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/s1/exchanges", body)
	req.Header.Set("Content-Type", "application/json")
	req = withChiURLParam(req, "studentID", "s1")
	w := httptest.NewRecorder()

	h.RecordExchange(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("RecordExchange() status = %d, want %d, body: %s", w.Code, http.StatusAccepted, w.Body.String())
	}
}

func TestChatHandler_RetrieveContext(t *testing.T) {
	h := NewChatHandler(newTestEngine(t), &nopLogger{}, nil)

	body := bytes.NewBufferString(`{"query": "what do I struggle with", "currentSubject": "math"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/s1/context", body)
	req.Header.Set("Content-Type", "application/json")
	req = withChiURLParam(req, "studentID", "s1")
	w := httptest.NewRecorder()

	h.RetrieveContext(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("RetrieveContext() status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var memCtx struct {
		StudentID   string `json:"studentId"`
		QueryIntent string `json:"queryIntent"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &memCtx); err != nil {
		t.Fatalf("RetrieveContext() invalid JSON: %v", err)
	}
	if memCtx.StudentID != "s1" {
		t.Errorf("RetrieveContext() studentID = %q, want %q", memCtx.StudentID, "s1")
	}
	if memCtx.QueryIntent != "recall_mistakes" {
		t.Errorf("RetrieveContext() queryIntent = %q, want %q", memCtx.QueryIntent, "recall_mistakes")
	}
}

func TestChatHandler_MemoryFeedback_UnknownMemory(t *testing.T) {
	h := NewChatHandler(newTestEngine(t), &nopLogger{}, nil)

	body := bytes.NewBufferString(`{"helpful": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/s1/memories/ghost/feedback", body)
	req = withChiURLParam(req, "studentID", "s1")
	req = withChiURLParam(req, "memoryID", "ghost")
	w := httptest.NewRecorder()

	h.MemoryFeedback(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("MemoryFeedback() status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
