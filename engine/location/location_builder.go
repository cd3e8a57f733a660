package location

import (
	"time"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// ContextBuilderOption configures a Context created by NewContext.
type ContextBuilderOption func(*contextImpl)

// WithLocation sets latitude and longitude in degrees.
func WithLocation(latDeg, lonDeg float64) ContextBuilderOption {
	return func(c *contextImpl) {
		c.state.Latitude, c.state.Longitude = latDeg, lonDeg
	}
}

// WithBasis sets the world-space east and up directions.
func WithBasis(east, up mgl.Vec3) ContextBuilderOption {
	return func(c *contextImpl) {
		c.state.East, c.state.Up = east, up
	}
}

// WithTime sets the initial date and time.
func WithTime(t time.Time) ContextBuilderOption {
	return func(c *contextImpl) {
		c.state.Time = t
	}
}

// WithEphemeris replaces the solar model.
//
// Parameters:
//   - e: maps location and time to a local east/north/up sun direction
//
// Returns:
//   - ContextBuilderOption: the option
func WithEphemeris(e Ephemeris) ContextBuilderOption {
	return func(c *contextImpl) {
		if e != nil {
			c.ephemeris = e
		}
	}
}
