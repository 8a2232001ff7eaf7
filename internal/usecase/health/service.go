// Package health aggregates component availability checks. The embedding
// backend failing leaves the service degraded rather than down, matching
// the lexical-only detection path.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	embedding EmbeddingChecker
}

// New creates a Service. index and embedding can be nil.
func New(db DBPinger, index IndexChecker, embedding EmbeddingChecker) *Service {
	return &Service{db: db, index: index, embedding: embedding}
}

// Check runs health checks against all components. The database or index
// failing makes the service unhealthy since Stage 1 cannot run without
// them; a failing embedding backend only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = CheckOK
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	}

	if s.index != nil {
		checks["index"] = CheckOK
		if _, err := s.index.Size(ctx); err != nil {
			checks["index"] = CheckError
		}
	}

	if s.embedding != nil {
		checks["embedding"] = CheckOK
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		}
	}

	status := Healthy
	if checks["embedding"] == CheckError {
		status = Degraded
	}
	if checks["database"] == CheckError || checks["index"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
