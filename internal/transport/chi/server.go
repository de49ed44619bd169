package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/domain/profile"
	"github.com/kailas-cloud/evidex/internal/logger"
	healthuc "github.com/kailas-cloud/evidex/internal/usecase/health"
	"github.com/kailas-cloud/evidex/internal/usecase/pipeline"
)

const (
	maxBodyBytes = 1 << 20
	maxQueryLen  = 2000
)

// Pipeline runs retrieval and question answering.
type Pipeline interface {
	Run(ctx context.Context, query string, p profile.Profile) (*pipeline.Report, error)
	Ask(ctx context.Context, query string) (*pipeline.AskReport, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg, stage string) bool

// Server serves the evidex HTTP API.
type Server struct {
	pipeline      Pipeline
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(p Pipeline, health HealthChecker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{pipeline: p, health: health, logger: log}
	// Order matters: a provider error caused by a timeout is reported as a timeout.
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidProfile, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrEmptyKeywordSet, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotConfigured, http.StatusNotImplemented, ErrorCodeNotConfigured),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrRerankProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrLanguageModelError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrCorpusUnavailable, http.StatusServiceUnavailable, ErrorCodeUnavailable),
	}
	return s
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := validateQuery(req.Query); msg != "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
		return
	}

	p, err := profileFromDTO(req.Profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	report, err := s.pipeline.Run(r.Context(), req.Query, p)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportToDTO(report))
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := validateQuery(req.Query); msg != "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
		return
	}

	out, err := s.pipeline.Ask(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Profile: profileToDTO(&out.Profile),
		Report:  reportToDTO(out.Report),
		Answer:  out.Answer,
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
		Status:    string(report.Status),
		Checks:    checks,
		Documents: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func validateQuery(q string) string {
	switch n := utf8.RuneCountInString(q); {
	case n == 0:
		return "query is required"
	case n > maxQueryLen:
		return fmt.Sprintf("query must be at most %d characters", maxQueryLen)
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		context.DeadlineExceeded,
		domain.ErrInvalidQuery,
		domain.ErrInvalidProfile,
		domain.ErrEmptyKeywordSet,
		domain.ErrNotConfigured,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrRerankProviderError,
		domain.ErrLanguageModelError,
		domain.ErrCorpusUnavailable,
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
	return func(w http.ResponseWriter, err error, msg, stage string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, ErrorResponse{Code: code, Message: msg, Stage: stage})
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))

	var stage string
	var se *domain.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg, stage) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Code: ErrorCodeInternalError, Message: "internal error", Stage: stage,
	})
}
