// Package system reports the health of the services the bot depends on.
package system

import (
	"context"
	"sort"

	"ragbot/src/log"
)

// ComponentStatus represents the status of a single dependency.
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

// CheckFunc probes one dependency. A nil error means the dependency is up.
type CheckFunc func(ctx context.Context) error

type Service struct {
	checks map[string]CheckFunc
}

func NewService() *Service {
	return &Service{
		checks: make(map[string]CheckFunc),
	}
}

// Register adds a named dependency check. Registering the same name again
// replaces the previous check.
func (s *Service) Register(name string, check CheckFunc) {
	s.checks[name] = check
}

// Names returns the registered component names in stable order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth probes every registered dependency. The overall status is
// healthy only when every component is up.
func (s *Service) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Components: make(map[string]ComponentStatus, len(s.checks)),
	}

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			log.Debug("health check failed", "component", name, "error", err)
			status.Components[name] = StatusDown
			status.Status = "unhealthy"
			continue
		}
		status.Components[name] = StatusUp
	}

	return status
}
