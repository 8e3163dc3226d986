package vehicle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cxd309/vehicle-engine/internal/body"
	"github.com/cxd309/vehicle-engine/internal/input"
	"github.com/go-gl/mathgl/mgl64"
)

// Seat roles.
const (
	RoleDriver    = "driver"
	RolePassenger = "passenger"
)

var (
	ErrNoSeat     = errors.New("no such seat")
	ErrSeatTaken  = errors.New("seat occupied")
	ErrSeatVacant = errors.New("seat not occupied")
	ErrNoFreeSeat = errors.New("no free seat for role")
)

// Seats is the occupancy contract. Physics and AI never read it directly;
// it only gates the human input source.
type Seats interface {
	Enter(role string) (string, error)
	EnterByID(id string) error
	Exit(id string) error
	Occupied(role string) bool
	WorldPose(id string) (mgl64.Vec3, mgl64.Quat, bool)
}

// Seat is one seat of a vehicle.
type Seat struct {
	ID    string     `json:"id"`
	Role  string     `json:"role"`
	Local mgl64.Vec3 `json:"local"`
}

// DefaultSeats is a driver on the left and one passenger.
func DefaultSeats() []Seat {
	return []Seat{
		{ID: "driver", Role: RoleDriver, Local: mgl64.Vec3{-0.4, 0.6, 0.2}},
		{ID: "passenger", Role: RolePassenger, Local: mgl64.Vec3{0.4, 0.6, 0.2}},
	}
}

// MemorySeats keeps occupancy in memory.
type MemorySeats struct {
	mu       sync.Mutex
	rb       *body.RigidBody
	seats    []Seat
	occupied map[string]bool
}

var _ Seats = (*MemorySeats)(nil)

// NewMemorySeats creates the seats of the vehicle whose body is rb.
func NewMemorySeats(rb *body.RigidBody, seats []Seat) *MemorySeats {
	return &MemorySeats{rb: rb, seats: append([]Seat(nil), seats...), occupied: make(map[string]bool)}
}

// Enter occupies the first free seat with the given role.
func (m *MemorySeats) Enter(role string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.seats {
		if s.Role == role && !m.occupied[s.ID] {
			m.occupied[s.ID] = true
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoFreeSeat, role)
}

// EnterByID occupies a specific seat.
func (m *MemorySeats) EnterByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNoSeat, id)
	}
	if m.occupied[id] {
		return fmt.Errorf("%w: %s", ErrSeatTaken, id)
	}
	m.occupied[id] = true
	return nil
}

// Exit frees a seat.
func (m *MemorySeats) Exit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNoSeat, id)
	}
	if !m.occupied[id] {
		return fmt.Errorf("%w: %s", ErrSeatVacant, id)
	}
	delete(m.occupied, id)
	return nil
}

// Occupied reports whether any seat with the role is taken.
func (m *MemorySeats) Occupied(role string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.seats {
		if s.Role == role && m.occupied[s.ID] {
			return true
		}
	}
	return false
}

// WorldPose returns the world position and rotation of a seat.
func (m *MemorySeats) WorldPose(id string) (mgl64.Vec3, mgl64.Quat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.find(id)
	if !ok {
		return mgl64.Vec3{}, mgl64.QuatIdent(), false
	}
	return m.rb.TransformPoint(s.Local), m.rb.Rotation, true
}

func (m *MemorySeats) find(id string) (Seat, bool) {
	for _, s := range m.seats {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

// seated gates a human source on the driver seat being occupied.
type seated struct {
	src   input.Source
	seats Seats
}

func (s seated) Active() bool {
	return s.seats.Occupied(RoleDriver) && s.src.Active()
}

func (s seated) Read() input.Snapshot { return s.src.Read() }

func (s seated) Advance(dt float64) {
	if a, ok := s.src.(input.Advancer); ok {
		a.Advance(dt)
	}
}
