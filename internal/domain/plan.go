package domain

import (
	"errors"
	"fmt"
)

// Resource names a capacity-limited list on the Trainer aggregate.
type Resource string

const (
	ResourceClients   Resource = "clients"
	ResourceRoutines  Resource = "routines"
	ResourceExercises Resource = "exercises"
)

// PlanLimits is the capacity a trainer gets from their subscription tier.
type PlanLimits struct {
	MaxClients   int `json:"maxClients"`
	MaxRoutines  int `json:"maxRoutines"`
	MaxExercises int `json:"maxExercises"`
}

// Max returns the limit that applies to resource.
func (l PlanLimits) Max(resource Resource) int {
	switch resource {
	case ResourceClients:
		return l.MaxClients
	case ResourceRoutines:
		return l.MaxRoutines
	case ResourceExercises:
		return l.MaxExercises
	default:
		return 0
	}
}

// ErrCapacityExceeded is matched by every CapacityError via errors.Is.
var ErrCapacityExceeded = errors.New("plan capacity exceeded")

// CapacityError reports which limit was hit so callers can offer an upgrade.
type CapacityError struct {
	Resource Resource
	Current  int
	Max      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("plan capacity exceeded for %s: %d of %d used", e.Resource, e.Current, e.Max)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// ValidateLimit fails when current has already reached max.
func ValidateLimit(resource Resource, current, max int) error {
	if current >= max {
		return &CapacityError{Resource: resource, Current: current, Max: max}
	}
	return nil
}
