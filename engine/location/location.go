// Package location holds the observer's geographic position, local frame and
// time, and the sun direction derived from them. Components that depend on it
// receive a Context explicitly and subscribe to its changes.
package location

import (
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// SunDirectionUniform is the uniform ApplyTo publishes the sun direction under.
const SunDirectionUniform = "sunDirection"

// Snapshot is the state of a Context at one point in time.
type Snapshot struct {
	Latitude  float64
	Longitude float64
	East      mgl.Vec3
	Up        mgl.Vec3
	Time      time.Time
	// SunDirection points from the scene towards the sun in world space.
	SunDirection mgl.Vec3
}

// SunElevation returns the sine of the sun's elevation above the local horizon.
func (s Snapshot) SunElevation() float32 {
	return s.SunDirection.Dot(s.Up)
}

// Observer is notified with the new state after every change.
type Observer func(Snapshot)

// Context is the location, time and sun direction shared by sky and shadow components.
type Context interface {
	// SetLocation sets latitude and longitude in degrees.
	SetLocation(latDeg, lonDeg float64)

	// SetBasis sets the world-space east and up directions of the local frame.
	// Both are normalized and east is made orthogonal to up.
	SetBasis(east, up mgl.Vec3)

	// SetTime sets the current date and time.
	SetTime(t time.Time)

	// Snapshot returns the current state.
	Snapshot() Snapshot

	// SunDirection returns the world-space direction towards the sun.
	SunDirection() mgl.Vec3

	// ApplyTo publishes the sun direction on ss as SunDirectionUniform.
	ApplyTo(ss state_set.StateSet)

	// Subscribe registers an observer.
	//
	// Returns:
	//   - func(): removes the observer; safe to call more than once
	Subscribe(fn Observer) func()
}

type observerEntry struct {
	id int
	fn Observer
}

type contextImpl struct {
	mu        *sync.Mutex
	state     Snapshot
	ephemeris Ephemeris
	observers []observerEntry
	nextID    int
}

var _ Context = &contextImpl{}

// NewContext creates a Context at latitude/longitude 0 with a Y-up, X-east
// frame at the current time.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Context: the context
func NewContext(options ...ContextBuilderOption) Context {
	c := &contextImpl{
		mu: &sync.Mutex{},
		state: Snapshot{
			East: mgl.Vec3{1, 0, 0},
			Up:   mgl.Vec3{0, 1, 0},
			Time: time.Now().UTC(),
		},
		ephemeris: SimpleEphemeris,
	}
	for _, opt := range options {
		opt(c)
	}
	c.state.East, c.state.Up = orthonormal(c.state.East, c.state.Up)
	c.state.SunDirection = c.sunLocked()
	return c
}

func (c *contextImpl) SetLocation(latDeg, lonDeg float64) {
	c.update(func(s *Snapshot) {
		s.Latitude, s.Longitude = latDeg, lonDeg
	})
}

func (c *contextImpl) SetBasis(east, up mgl.Vec3) {
	c.update(func(s *Snapshot) {
		s.East, s.Up = orthonormal(east, up)
	})
}

func (c *contextImpl) SetTime(t time.Time) {
	c.update(func(s *Snapshot) {
		s.Time = t
	})
}

func (c *contextImpl) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *contextImpl) SunDirection() mgl.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SunDirection
}

func (c *contextImpl) ApplyTo(ss state_set.StateSet) {
	ss.SetUniform(SunDirectionUniform, c.SunDirection())
}

func (c *contextImpl) Subscribe(fn Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.observers = slices.DeleteFunc(c.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// update applies fn, recomputes the sun and notifies observers outside the lock.
func (c *contextImpl) update(fn func(s *Snapshot)) {
	c.mu.Lock()
	fn(&c.state)
	c.state.SunDirection = c.sunLocked()
	snap := c.state
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	common.Logger().Debug("location changed",
		"lat", snap.Latitude,
		"lon", snap.Longitude,
		"time", snap.Time,
		"sun", snap.SunDirection,
	)
	for _, o := range observers {
		o.fn(snap)
	}
}

func (c *contextImpl) sunLocked() mgl.Vec3 {
	local := c.ephemeris(c.state.Latitude, c.state.Longitude, c.state.Time)
	east, up := c.state.East, c.state.Up
	north := up.Cross(east)
	world := east.Mul(local.X()).Add(north.Mul(local.Y())).Add(up.Mul(local.Z()))
	if world.Len() == 0 {
		return up
	}
	return world.Normalize()
}

// orthonormal normalizes up and removes its component from east. A degenerate
// east falls back to any direction perpendicular to up.
func orthonormal(east, up mgl.Vec3) (mgl.Vec3, mgl.Vec3) {
	if up.Len() == 0 {
		up = mgl.Vec3{0, 1, 0}
	}
	up = up.Normalize()
	east = east.Sub(up.Mul(east.Dot(up)))
	if east.Len() < 1e-6 {
		east = up.Cross(mgl.Vec3{0, 0, 1})
		if east.Len() < 1e-6 {
			east = up.Cross(mgl.Vec3{1, 0, 0})
		}
	}
	return east.Normalize(), up
}
