package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled marks a component that failed at startup and is not retried.
	CheckDisabled CheckResult = "unavailable"
)

// Component names in Report.Checks.
const (
	ComponentIndex     = "index"
	ComponentEmbedding = "embedding"
	ComponentEntities  = "entities"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index     IndexChecker
	embedding EmbeddingChecker
	snaps     SnapshotSource
}

// New creates a Service. A nil index or embedding checker reports that
// component as unavailable; snaps can be nil.
func New(index IndexChecker, embedding EmbeddingChecker, snaps SnapshotSource) *Service {
	return &Service{index: index, embedding: embedding, snaps: snaps}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentIndex] = probe(s.index != nil, func() error { return s.index.Ready(ctx) })
	checks[ComponentEmbedding] = probe(s.embedding != nil, func() error { return s.embedding.HealthCheck(ctx) })

	if s.snaps != nil {
		if s.snaps.Current().IsDegraded() {
			checks[ComponentEntities] = CheckError
		} else {
			checks[ComponentEntities] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
		}
	}
	if checks[ComponentIndex] == CheckDisabled || checks[ComponentEmbedding] == CheckDisabled {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func probe(configured bool, check func() error) CheckResult {
	if !configured {
		return CheckDisabled
	}
	if err := check(); err != nil {
		return CheckError
	}
	return CheckOK
}
