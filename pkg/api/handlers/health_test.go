package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/studyflow/studyflow/pkg/burnout"
	"github.com/studyflow/studyflow/pkg/engine"
	"github.com/studyflow/studyflow/pkg/intent"
	"github.com/studyflow/studyflow/pkg/memory"
	"github.com/studyflow/studyflow/pkg/plan"
	"github.com/studyflow/studyflow/pkg/quest"
	"github.com/studyflow/studyflow/pkg/schedule"
	"github.com/studyflow/studyflow/pkg/srs"
	memstore "github.com/studyflow/studyflow/pkg/storage/memory"
)

type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

// newTestEngine builds a fully wired engine on in-memory storage.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	repo := memstore.NewMemoryRepository()
	history := memstore.NewMemoryHistory()

	store := memory.NewVectorStore(repo, 64)
	retriever := memory.NewRetriever(memory.DefaultWeights(), memory.DefaultRetrieverConfig())
	mastery := srs.NewManager(repo, srs.Config{})
	emotions := burnout.NewMonitor(repo, 7, burnout.DefaultThresholds())

	return engine.New(engine.Deps{
		Classifier:  intent.NewClassifier(intent.DefaultThresholds()),
		Lane:        memory.NewLane(store, retriever, nil, mastery, emotions, nil),
		Mastery:     mastery,
		Emotions:    emotions,
		Generator:   quest.NewGenerator(quest.DefaultGeneratorConfig()),
		Tracker:     quest.NewTracker(repo),
		Plans:       plan.NewStaticSource(),
		History:     history,
		Delays:      schedule.NewDelayHandler(history, schedule.DefaultDelayConfig()),
		Rescheduler: schedule.NewAutoRescheduler(schedule.DefaultReschedulerConfig()),
		Modifier:    schedule.NewModifier(schedule.DefaultModifierConfig()),
	})
}

func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(newTestEngine(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health() status = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestHealthHandler_Health_Unhealthy(t *testing.T) {
	handler := NewHealthHandler(engine.New(engine.Deps{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Health() status = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	handler := NewHealthHandler(newTestEngine(t))

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	handler.Ready(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Ready() status = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestHealthHandler_Status(t *testing.T) {
	handler := NewHealthHandler(newTestEngine(t))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	handler.Status(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status() status = %v, want %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var status engine.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Status() invalid JSON: %v", err)
	}
	if status.State != "running" {
		t.Errorf("Status() state = %q, want %q", status.State, "running")
	}
}
