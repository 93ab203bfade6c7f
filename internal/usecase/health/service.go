package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search works but image uploads do not.
	Degraded Status = "degraded"
	// Unhealthy indicates the building store is unreachable.
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

// Component names used as Report.Checks keys.
const (
	ComponentDatabase     = "database"
	ComponentImageStorage = "image_storage"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	storage StorageChecker
}

// New creates a Service. storage can be nil when image uploads are disabled.
func New(db DBPinger, storage StorageChecker) *Service {
	return &Service{db: db, storage: storage}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentDatabase: result(s.db.Ping(ctx))}
	if s.storage != nil {
		checks[ComponentImageStorage] = result(s.storage.HealthCheck(ctx))
	}

	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentImageStorage] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
