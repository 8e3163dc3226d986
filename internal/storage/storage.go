// Package storage defines the telemetry sample recorded every tick and the
// interface every recording backend implements.
package storage

import "errors"

// ErrUnknownType is returned for a storage type with no backend.
var ErrUnknownType = errors.New("unknown storage type")

// Sample is the state of one vehicle at one simulation time.
type Sample struct {
	SimulationID string  `json:"simulation_id"`
	VehicleID    string  `json:"vehicle_id"`
	Time         float64 `json:"time"` // simulation seconds
	Domain       string  `json:"domain"`
	Variant      string  `json:"variant"`
	Authority    string  `json:"authority"`
	AIState      string  `json:"ai_state,omitempty"`
	Gear         string  `json:"gear,omitempty"`

	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Heading float64 `json:"heading"` // degrees
	Speed   float64 `json:"speed"`   // m/s along the body forward axis
	RPM     float64 `json:"rpm"`

	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Steer    float64 `json:"steer"`
}

// Backend records samples.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Lifecycle
	Init() error
	Close() error

	RecordSample(s *Sample) error
}

// Flusher is implemented by backends that buffer writes.
type Flusher interface {
	Flush() error
}
