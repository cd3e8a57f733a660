package gpu

import (
	"fmt"
	"sync"
)

// sharedEntry is one reference-counted resource owned by the shared cache.
type sharedEntry struct {
	resource Resource
	refs     int
}

type sharedKey struct {
	device Device
	name   string
}

// SharedResources is a process-wide cache of immutable resources (full-screen
// quads and default programs) reference-counted per device. The last Release
// for a device frees the resource on that device.
type SharedResources struct {
	mu      *sync.Mutex
	entries map[sharedKey]*sharedEntry
}

const quadKey = "fullscreen-quad"

var shared = NewSharedResources()

// Shared returns the process-wide shared resource cache.
func Shared() *SharedResources {
	return shared
}

// NewSharedResources creates an empty cache. Most callers use Shared.
//
// Returns:
//   - *SharedResources: the new cache
func NewSharedResources() *SharedResources {
	return &SharedResources{
		mu:      &sync.Mutex{},
		entries: make(map[sharedKey]*sharedEntry),
	}
}

// AcquireQuad returns the device's full-screen quad, creating it on first use.
// Each successful call must be paired with ReleaseQuad.
//
// Parameters:
//   - dev: the device that owns the quad
//
// Returns:
//   - Geometry: the shared quad
//   - error: an error if the quad could not be created
func (s *SharedResources) AcquireQuad(dev Device) (Geometry, error) {
	r, err := s.acquire(dev, quadKey, func() (Resource, error) {
		return dev.CreateFullscreenQuad()
	})
	if err != nil {
		return nil, err
	}
	return r.(Geometry), nil
}

// ReleaseQuad drops one reference to the device's quad.
func (s *SharedResources) ReleaseQuad(dev Device) {
	s.release(dev, quadKey)
}

// AcquireProgram returns a shared program built from src, creating it on first use.
//
// Parameters:
//   - dev: the device that owns the program
//   - src: the program source; src.Name is the cache key
//
// Returns:
//   - Program: the shared program
//   - error: an error if the program could not be built
func (s *SharedResources) AcquireProgram(dev Device, src ProgramSource) (Program, error) {
	r, err := s.acquire(dev, "program/"+src.Name, func() (Resource, error) {
		return dev.CreateProgram(src)
	})
	if err != nil {
		return nil, err
	}
	return r.(Program), nil
}

// ReleaseProgram drops one reference to a shared program.
func (s *SharedResources) ReleaseProgram(dev Device, name string) {
	s.release(dev, "program/"+name)
}

// Refs returns the current reference count of a shared resource.
func (s *SharedResources) Refs(dev Device, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sharedKey{dev, name}]; ok {
		return e.refs
	}
	return 0
}

// QuadRefs returns the reference count of the device's quad.
func (s *SharedResources) QuadRefs(dev Device) int {
	return s.Refs(dev, quadKey)
}

func (s *SharedResources) acquire(dev Device, name string, create func() (Resource, error)) (Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sharedKey{dev, name}
	if e, ok := s.entries[key]; ok {
		e.refs++
		return e.resource, nil
	}
	r, err := create()
	if err != nil {
		return nil, fmt.Errorf("failed to create shared %s: %w", name, err)
	}
	s.entries[key] = &sharedEntry{resource: r, refs: 1}
	return r, nil
}

func (s *SharedResources) release(dev Device, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sharedKey{dev, name}
	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(s.entries, key)
	dev.Release(e.resource)
}
