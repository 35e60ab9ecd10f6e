package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckFallback indicates an optional component running in its
	// degraded mode. It does not lower the aggregate status.
	CheckFallback CheckResult = "fallback"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index IndexPinger
	store StorePinger
	model ModelChecker
}

// New creates a Service. store and model can be nil.
func New(index IndexPinger, store StorePinger, model ModelChecker) *Service {
	return &Service{index: index, store: store, model: model}
}

// Check runs health checks against all components. The ranking model is
// optional: without it the service still answers searches in lexical
// order, so a missing model never degrades the aggregate status.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.index.Ping(ctx); err != nil {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
	}

	if s.store != nil {
		if err := s.store.PingContext(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.model != nil {
		if s.model.Ready() {
			checks["model"] = CheckOK
		} else {
			checks["model"] = CheckFallback
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
