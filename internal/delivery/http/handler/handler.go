package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/delivery/http/request"
	"github.com/user/profile-extractor/internal/delivery/http/response"
	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/internal/usecase"
)

const (
	maxRequestBytes    = 1 << 20
	healthCheckTimeout = 2 * time.Second
	eventSaved         = "saved"
)

// Analyzer runs one analysis, reporting progress to sink.
type Analyzer interface {
	Run(ctx context.Context, req entity.AnalysisRequest, sink usecase.EventSink) (*entity.AnalysisResult, error)
}

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds the handler's collaborators. Profiles and Events are
// optional; the routes that need them answer 503 when they are nil.
type Config struct {
	Analyzer     Analyzer
	Profiles     usecase.ProfileManager
	Events       repository.EventPublisher
	Defaults     request.Defaults
	HealthChecks map[string]HealthCheck
	Logger       *zap.Logger
}

type Handler struct {
	analyzer     Analyzer
	profiles     usecase.ProfileManager
	events       repository.EventPublisher
	defaults     request.Defaults
	healthChecks map[string]HealthCheck
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer:     cfg.Analyzer,
		profiles:     cfg.Profiles,
		events:       cfg.Events,
		defaults:     cfg.Defaults,
		healthChecks: cfg.HealthChecks,
		validate:     newValidator(),
		logger:       logger,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandleAnalyze runs an analysis and streams its progress events. Request
// errors are answered with plain JSON; once the stream is open, failures
// arrive as an error event and the response still ends with 200.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body request.AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		h.writeValidationError(w, err)
		return
	}
	if body.Persist && h.profiles == nil {
		h.writeJSONError(w, http.StatusServiceUnavailable, "Profile storage is not configured")
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		h.logger.Error("Cannot stream analysis", zap.Error(err))
		h.writeJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	ctx := r.Context()
	var sink usecase.EventSink = usecase.SinkFunc(func(_ context.Context, event entity.ProgressEvent) {
		if err := stream.Send(string(event.Type), event); err != nil {
			h.logger.Debug("Dropping progress event", zap.String("run_id", event.RunID), zap.Error(err))
		}
	})
	if h.events != nil {
		sink = usecase.MultiSink{sink, usecase.NewPublishingSink(h.events, h.logger)}
	}

	result, err := h.analyzer.Run(ctx, body.ToEntity(h.defaults), sink)
	if err != nil {
		// The error event has already been streamed.
		return
	}
	if !body.Persist {
		return
	}

	saved, err := h.profiles.Save(ctx, body.ProfileKey, result)
	if err != nil {
		h.logger.Error("Failed to save profile", zap.String("run_id", result.RunID), zap.Error(err))
		_ = stream.Send(string(entity.EventError), entity.ProgressEvent{
			Type:         entity.EventError,
			RunID:        result.RunID,
			Phase:        entity.PhaseCompleted,
			PagesCrawled: result.Metadata.PagesAnalyzed,
			Message:      "Failed to save profile",
			Error:        err.Error(),
			Timestamp:    time.Now().UTC(),
		})
		return
	}
	_ = stream.Send(eventSaved, response.SavedEvent{RunID: result.RunID, Key: saved.Key})
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil {
		h.writeJSONError(w, http.StatusServiceUnavailable, "Profile storage is not configured")
		return
	}

	key := chi.URLParam(r, "key")
	profile, err := h.profiles.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			h.writeJSONError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error("Failed to load profile", zap.String("key", key), zap.Error(err))
		h.writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewProfileResponse(profile))
}

// HandleRunEvents replays the recorded event stream of a run.
func (h *Handler) HandleRunEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.writeJSONError(w, http.StatusServiceUnavailable, "Event history is not configured")
		return
	}

	runID := chi.URLParam(r, "runID")
	events, err := h.events.History(r.Context(), runID)
	if err != nil {
		h.logger.Error("Failed to load run events", zap.String("run_id", runID), zap.Error(err))
		h.writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(events) == 0 {
		h.writeJSONError(w, http.StatusNotFound, "Run not found")
		return
	}

	h.writeJSON(w, http.StatusOK, response.RunEventsResponse{RunID: runID, Events: events})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := response.HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.healthChecks) > 0 {
		resp.Components = make(map[string]string, len(h.healthChecks))
	}
	for name, check := range h.healthChecks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			resp.Components[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "ok"
	}

	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fe.Field()+" failed on "+fe.Tag())
	}
	h.writeJSON(w, http.StatusBadRequest, response.ErrorResponse{Error: "Invalid request", Details: details})
}
