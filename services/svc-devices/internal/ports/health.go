package ports

import "context"

// DependencyStatus represents the health status of a dependency.
type DependencyStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DatabaseHealthChecker defines the interface for storage health checks.
type DatabaseHealthChecker interface {
	// Ping checks if the storage backend is reachable.
	Ping(ctx context.Context) error
}
