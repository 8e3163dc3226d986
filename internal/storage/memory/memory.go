// Package memory keeps recorded samples in memory, grouped by vehicle, and
// can export them as JSON.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/cxd309/vehicle-engine/internal/storage"
)

// Backend stores samples in memory.
type Backend struct {
	mu       sync.RWMutex
	samples  map[string][]storage.Sample // keyed by vehicle ID
	limit    int
	recorded int
}

var _ storage.Backend = (*Backend)(nil)

// New creates a memory backend keeping at most limit samples per vehicle;
// limit 0 keeps everything.
func New(limit int) *Backend {
	return &Backend{samples: make(map[string][]storage.Sample), limit: limit}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Init() error { return nil }

func (b *Backend) Close() error { return nil }

// RecordSample appends a copy of s.
func (b *Backend) RecordSample(s *storage.Sample) error {
	if s == nil {
		return errors.New("nil sample")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := append(b.samples[s.VehicleID], *s)
	if b.limit > 0 && len(rows) > b.limit {
		rows = rows[len(rows)-b.limit:]
	}
	b.samples[s.VehicleID] = rows
	b.recorded++
	return nil
}

// Samples returns a copy of the samples of one vehicle in recording order.
func (b *Backend) Samples(vehicleID string) []storage.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.samples[vehicleID])
}

// Vehicles returns the IDs of every recorded vehicle, sorted.
func (b *Backend) Vehicles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.samples))
	for id := range b.samples {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Recorded returns the number of samples ever recorded, including any
// dropped by the limit.
func (b *Backend) Recorded() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.recorded
}

// Export writes every vehicle's samples as one JSON object keyed by vehicle.
func (b *Backend) Export(w io.Writer) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b.samples); err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}
	return nil
}
