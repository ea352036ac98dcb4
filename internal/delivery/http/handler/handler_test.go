package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/delivery/http/handler"
	"github.com/user/profile-extractor/internal/delivery/http/request"
	"github.com/user/profile-extractor/internal/delivery/http/response"
	"github.com/user/profile-extractor/internal/delivery/http/router"
	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/internal/usecase"
)

type fakeAnalyzer struct {
	mu  sync.Mutex
	got []entity.AnalysisRequest
	err error
}

func (a *fakeAnalyzer) Run(ctx context.Context, req entity.AnalysisRequest, sink usecase.EventSink) (*entity.AnalysisResult, error) {
	a.mu.Lock()
	a.got = append(a.got, req)
	a.mu.Unlock()

	sink.Emit(ctx, entity.ProgressEvent{Type: entity.EventProgress, RunID: "run-1", Phase: entity.PhaseStarting})
	if a.err != nil {
		sink.Emit(ctx, entity.ProgressEvent{Type: entity.EventError, RunID: "run-1", Phase: entity.PhaseError, Error: a.err.Error()})
		return nil, &usecase.RunError{RunID: "run-1", Phase: entity.PhaseCrawling, Err: a.err}
	}

	result := &entity.AnalysisResult{
		RunID:   "run-1",
		Record:  &entity.ExtractionRecord{Name: "Studio Nord", Website: req.WebsiteURL},
		Outcome: &entity.AnalysisOutcome{Confidence: 80, DataQuality: entity.QualityHigh},
	}
	sink.Emit(ctx, entity.ProgressEvent{Type: entity.EventComplete, RunID: "run-1", Phase: entity.PhaseCompleted, Result: result})
	return result, nil
}

type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*entity.StoredProfile
	saveErr  error
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]*entity.StoredProfile)}
}

func (m *memoryProfiles) Save(_ context.Context, key string, result *entity.AnalysisResult) (*entity.StoredProfile, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if key == "" {
		key = usecase.ProfileKey(result.Record.Website)
	}
	p := &entity.StoredProfile{
		Key:         key,
		Website:     result.Record.Website,
		Record:      result.Record,
		Confidence:  result.Outcome.Confidence,
		DataQuality: result.Outcome.DataQuality,
		SavedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m.mu.Lock()
	m.profiles[key] = p
	m.mu.Unlock()
	return p, nil
}

func (m *memoryProfiles) Get(_ context.Context, key string) (*entity.StoredProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[key]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return p, nil
}

type memoryEvents struct {
	mu     sync.Mutex
	events map[string][]entity.ProgressEvent
}

func (m *memoryEvents) Publish(_ context.Context, event entity.ProgressEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]entity.ProgressEvent)
	}
	m.events[event.RunID] = append(m.events[event.RunID], event)
	return nil
}

func (m *memoryEvents) History(_ context.Context, runID string) ([]entity.ProgressEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[runID], nil
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		if block == "" {
			continue
		}
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			}
		}
		events = append(events, ev)
	}
	return events
}

func newServer(cfg handler.Config) http.Handler {
	cfg.Logger = zap.NewNop()
	return router.New(handler.NewHandler(cfg), zap.NewNop())
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze_StreamsEvents(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv := newServer(handler.Config{
		Analyzer: analyzer,
		Defaults: request.Defaults{MaxDepth: 2, UserAgent: "agent/1.0"},
	})

	rec := do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test", "includeAwards": false}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "progress", events[0].name)
	assert.Equal(t, "complete", events[1].name)

	var complete entity.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &complete))
	require.NotNil(t, complete.Result)
	assert.Equal(t, "Studio Nord", complete.Result.Record.Name)

	require.Len(t, analyzer.got, 1)
	assert.Equal(t, 2, analyzer.got[0].MaxDepth)
	assert.Equal(t, "agent/1.0", analyzer.got[0].UserAgent)
	assert.False(t, analyzer.got[0].Sections.Awards)
}

func TestHandleAnalyze_RunErrorIsStreamed(t *testing.T) {
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{err: errors.New("browser crashed")}})

	rec := do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "error", events[1].name)
	assert.Contains(t, events[1].data, "browser crashed")
}

func TestHandleAnalyze_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"websiteUrl":`},
		{"missing url", `{}`},
		{"not a url", `{"websiteUrl": "studio nord"}`},
		{"depth too large", `{"websiteUrl": "https://studionord.test", "maxDepth": 9}`},
		{"negative timeout", `{"websiteUrl": "https://studionord.test", "timeout": -1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{}
			srv := newServer(handler.Config{Analyzer: analyzer})

			rec := do(t, srv, http.MethodPost, "/api/analyze", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Empty(t, analyzer.got)
		})
	}
}

func TestHandleAnalyze_ValidationDetailsUseJSONNames(t *testing.T) {
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}})

	rec := do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test", "maxDepth": 9}`)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"maxDepth failed on max"}, resp.Details)
}

func TestHandleAnalyze_PersistAndFetchProfile(t *testing.T) {
	profiles := newMemoryProfiles()
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}, Profiles: profiles})

	rec := do(t, srv, http.MethodPost, "/api/analyze",
		`{"websiteUrl": "https://studionord.test", "persist": true, "profileKey": "studio-nord"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "saved", events[2].name)
	assert.JSONEq(t, `{"runId": "run-1", "key": "studio-nord"}`, events[2].data)

	rec = do(t, srv, http.MethodGet, "/api/profiles/studio-nord", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile response.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "studio-nord", profile.Key)
	assert.Equal(t, 80, profile.Confidence)
	assert.Equal(t, "high", profile.DataQuality)
	assert.Equal(t, "Studio Nord", profile.Record.Name)
}

func TestHandleAnalyze_SaveFailureIsProgressEvent(t *testing.T) {
	profiles := newMemoryProfiles()
	profiles.saveErr = errors.New("connection reset")
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}, Profiles: profiles})

	rec := do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test", "persist": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "error", events[2].name)

	var ev entity.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[2].data), &ev))
	assert.Equal(t, entity.EventError, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Contains(t, ev.Error, "connection reset")
	assert.False(t, ev.Timestamp.IsZero())
}

func TestHandleAnalyze_PersistWithoutStorage(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	srv := newServer(handler.Config{Analyzer: analyzer})

	rec := do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test", "persist": true}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, analyzer.got)
}

func TestHandleGetProfile(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}, Profiles: newMemoryProfiles()})
		rec := do(t, srv, http.MethodGet, "/api/profiles/unknown", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage not configured", func(t *testing.T) {
		srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}})
		rec := do(t, srv, http.MethodGet, "/api/profiles/any", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleRunEvents(t *testing.T) {
	events := &memoryEvents{}
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}, Events: events})

	rec := do(t, srv, http.MethodGet, "/api/runs/run-1/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/analyze", `{"websiteUrl": "https://studionord.test"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/runs/run-1/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response.RunEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, entity.EventProgress, resp.Events[0].Type)
	assert.Equal(t, entity.EventComplete, resp.Events[1].Type)
}

func TestHandleHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newServer(handler.Config{
			Analyzer:     &fakeAnalyzer{},
			HealthChecks: map[string]handler.HealthCheck{"postgres": func(context.Context) error { return nil }},
		})
		rec := do(t, srv, http.MethodGet, "/api/health", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ok", "components": {"postgres": "ok"}}`, rec.Body.String())
	})

	t.Run("degraded", func(t *testing.T) {
		srv := newServer(handler.Config{
			Analyzer: &fakeAnalyzer{},
			HealthChecks: map[string]handler.HealthCheck{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
		})
		rec := do(t, srv, http.MethodGet, "/api/health", "")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status": "degraded", "components": {"postgres": "ok", "redis": "unavailable"}}`, rec.Body.String())
	})

	t.Run("no dependencies", func(t *testing.T) {
		srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}})
		rec := do(t, srv, http.MethodGet, "/api/health", "")
		assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(handler.Config{Analyzer: &fakeAnalyzer{}})
	_ = do(t, srv, http.MethodGet, "/api/health", "")

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/health"`)
}
