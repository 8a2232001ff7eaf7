// Package chi exposes the detection pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chimux "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/metrics"
	anchoruc "github.com/veritex-io/veritex/internal/usecase/anchor"
	corpusuc "github.com/veritex-io/veritex/internal/usecase/corpus"
	detectuc "github.com/veritex-io/veritex/internal/usecase/detect"
	healthuc "github.com/veritex-io/veritex/internal/usecase/health"
	reportuc "github.com/veritex-io/veritex/internal/usecase/report"
)

const maxBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the detection API.
type Server struct {
	corpus        *corpusuc.Service
	detector      *detectuc.Service
	reports       *reportuc.Service
	anchors       *anchoruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	corpus *corpusuc.Service,
	detector *detectuc.Service,
	reports *reportuc.Service,
	anchors *anchoruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		corpus:   corpus,
		detector: detector,
		reports:  reports,
		anchors:  anchors,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMalformedInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrReportNotFound, http.StatusNotFound, codeReportNotFound),
		sentinelHandler(domain.ErrAnchorNotFound, http.StatusNotFound, codeAnchorNotFound),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeModelUnavailable),
	}
	return s
}

// Router builds the chi router with the given middlewares applied.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) *chimux.Mux {
	r := chimux.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chimux.Router) {
		r.Post("/documents", s.IngestDocument)
		r.Post("/documents/batch", s.IngestBatch)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Get("/corpus/stats", s.CorpusStats)

		r.Post("/detections", s.RunDetection)
		r.Get("/reports/{id}", s.GetReport)
		r.Post("/reports/{id}/verify", s.VerifyReport)
		r.Get("/reports/{id}/anchor", s.GetAnchor)
	})

	return r
}

// IngestDocument handles POST /api/v1/documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.corpus.Add(r.Context(), documentFromRequest(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentToResponse(doc))
}

// IngestBatch handles POST /api/v1/documents/batch.
func (s *Server) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"documents count must be between 1 and 100")
		return
	}

	inputs := make([]corpusuc.Input, len(req.Documents))
	for i, d := range req.Documents {
		inputs[i] = documentFromRequest(d)
	}

	docs, err := s.corpus.AddBatch(r.Context(), inputs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, batchDocumentsResponse{Ingested: len(docs)})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.corpus.Get(r.Context(), chimux.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.corpus.Remove(r.Context(), chimux.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CorpusStats handles GET /api/v1/corpus/stats.
func (s *Server) CorpusStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.corpus.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, corpusStatsResponse{Documents: count})
}

// RunDetection handles POST /api/v1/detections. One call runs the full
// pipeline: detect, persist the report, anchor it to the ledger.
func (s *Server) RunDetection(w http.ResponseWriter, r *http.Request) {
	var req detectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	start := time.Now()
	report, err := s.detector.Detect(r.Context(), req.Text)
	if err != nil {
		metrics.DetectionRunsTotal.WithLabelValues("error").Inc()
		s.handleDomainError(w, err)
		return
	}
	metrics.DetectionDuration.Observe(time.Since(start).Seconds())
	if report.Degraded {
		metrics.DetectionRunsTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.DetectionRunsTotal.WithLabelValues("ok").Inc()
	}

	if err := s.reports.Save(r.Context(), report); err != nil {
		s.handleDomainError(w, err)
		return
	}

	rec, err := s.anchors.Anchor(r.Context(), report)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	metrics.ReportsAnchoredTotal.Inc()

	writeJSON(w, http.StatusCreated, detectionResponse{Report: report, Anchor: &rec})
}

// GetReport handles GET /api/v1/reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Get(r.Context(), chimux.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// VerifyReport handles POST /api/v1/reports/{id}/verify, where {id} is a
// report id or an anchored content digest. The outcome is data, not an
// error: a tampered report verifies false with 200.
func (s *Server) VerifyReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Lookup(r.Context(), chimux.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	id := report.ReportID

	rec, err := s.anchors.Verify(r.Context(), report)
	if err != nil {
		if errors.Is(err, domain.ErrDigestMismatch) {
			anchoredAt := rec.AnchoredAt
			writeJSON(w, http.StatusOK, verifyResponse{
				ReportID:   id,
				Verified:   false,
				Digest:     rec.Digest,
				CID:        rec.CID,
				AnchoredAt: &anchoredAt,
				Reason:     "stored report does not match its anchored digest",
			})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	anchoredAt := rec.AnchoredAt
	writeJSON(w, http.StatusOK, verifyResponse{
		ReportID:   id,
		Verified:   true,
		Digest:     rec.Digest,
		CID:        rec.CID,
		AnchoredAt: &anchoredAt,
	})
}

// GetAnchor handles GET /api/v1/reports/{id}/anchor.
func (s *Server) GetAnchor(w http.ResponseWriter, r *http.Request) {
	rec, err := s.anchors.Get(r.Context(), chimux.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedInput,
		domain.ErrDocumentNotFound,
		domain.ErrReportNotFound,
		domain.ErrAnchorNotFound,
		domain.ErrIndexUnavailable,
		domain.ErrModelUnavailable,
		domain.ErrDigestMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
