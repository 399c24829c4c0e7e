package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/domain"
	"github.com/kailas-cloud/featurekit/internal/domain/schema"
	featuresuc "github.com/kailas-cloud/featurekit/internal/usecase/features"
	healthuc "github.com/kailas-cloud/featurekit/internal/usecase/health"
	importanceuc "github.com/kailas-cloud/featurekit/internal/usecase/importance"
	snapshotuc "github.com/kailas-cloud/featurekit/internal/usecase/snapshot"
	"github.com/kailas-cloud/featurekit/internal/version"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the feature schema HTTP API.
type Server struct {
	features      *featuresuc.Service
	importances   *importanceuc.Service
	snapshots     *snapshotuc.Service
	health        *healthuc.Service
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	features *featuresuc.Service,
	importances *importanceuc.Service,
	snapshots *snapshotuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		features:    features,
		importances: importances,
		snapshots:   snapshots,
		health:      health,
		metrics:     promhttp.Handler(),
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		invalidRequestHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrPayloadInvalid, http.StatusUnprocessableEntity, ErrorCodeValidationFailed),
	}
	return s
}

// WithMetricsHandler replaces the /metrics handler.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/schema", s.GetSchema)
	r.Get("/schema/features", s.ListFeatureNames)
	r.Post("/normalize", s.Normalize)
	r.Post("/validate", s.Validate)

	r.Route("/importances", func(r chi.Router) {
		r.Get("/", s.ListImportances)
		r.Post("/{model}", s.SubmitImportances)
		r.Get("/{model}", s.GetImportances)
		r.Delete("/{model}", s.DeleteImportances)
	})

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.ListSnapshots)
		r.Post("/", s.PublishSnapshot)
		r.Get("/latest", s.GetLatestSnapshot)
		r.Get("/{fingerprint}", s.GetSnapshot)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Features: report.Features,
		Version:  version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

// GetSchema handles GET /schema.
func (s *Server) GetSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SchemaResponse{
		Features: s.features.Describe(),
		Target:   s.features.TargetSection(),
	})
}

// ListFeatureNames handles GET /schema/features?type=.
func (s *Server) ListFeatureNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.features.Names(r.URL.Query().Get("type"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NamesResponse{Names: nonNil(names)})
}

// Normalize handles POST /normalize.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Features: s.features.Order(r.Context(), payload)})
}

// Validate handles POST /validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	valid, errs := s.features.Validate(r.Context(), payload)
	status := http.StatusOK
	if !valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ValidateResponse{Valid: valid, Errors: nonNil(errs)})
}

// SubmitImportances handles POST /importances/{model}.
func (s *Server) SubmitImportances(w http.ResponseWriter, r *http.Request) {
	var req ImportanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}
	if req.Names == nil || req.Importances == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "request body must contain 'names' and 'importances'")
		return
	}

	rep, err := s.importances.Submit(r.Context(), chi.URLParam(r, "model"), *req.Names, *req.Importances)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportToDTO(rep))
}

// GetImportances handles GET /importances/{model}.
func (s *Server) GetImportances(w http.ResponseWriter, r *http.Request) {
	rep, err := s.importances.Get(r.Context(), chi.URLParam(r, "model"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToDTO(rep))
}

// DeleteImportances handles DELETE /importances/{model}.
func (s *Server) DeleteImportances(w http.ResponseWriter, r *http.Request) {
	if err := s.importances.Delete(r.Context(), chi.URLParam(r, "model")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListImportances handles GET /importances.
func (s *Server) ListImportances(w http.ResponseWriter, r *http.Request) {
	models, err := s.importances.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: nonNil(models)})
}

// PublishSnapshot handles POST /snapshots.
func (s *Server) PublishSnapshot(w http.ResponseWriter, r *http.Request) {
	fp, err := s.snapshots.Publish(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SnapshotResponse{Fingerprint: fp})
}

// ListSnapshots handles GET /snapshots.
func (s *Server) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	fps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotsResponse{Fingerprints: nonNil(fps)})
}

// GetSnapshot handles GET /snapshots/{fingerprint}.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	data, err := s.snapshots.Get(r.Context(), fp)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("X-Schema-Fingerprint", fp)
	writeJSON(w, http.StatusOK, snapshotBody(data))
}

// GetLatestSnapshot handles GET /snapshots/latest.
func (s *Server) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	fp, data, err := s.snapshots.Latest(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("X-Schema-Fingerprint", fp)
	writeJSON(w, http.StatusOK, snapshotBody(data))
}

func (s *Server) decodePayload(w http.ResponseWriter, r *http.Request) (schema.Payload, bool) {
	var req PayloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return nil, false
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "request body must contain a 'data' object")
		return nil, false
	}
	return schema.PayloadFromMap(req.Data), true
}

// decodeJSON reads one JSON document, keeping numbers as json.Number.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode body: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrPayloadInvalid,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidRequestHandler reports ErrInvalidRequest with its full message.
func invalidRequestHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
