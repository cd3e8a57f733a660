// Package light describes light sources and the light-space matrices their
// shadow passes render with.
package light

import (
	"sync"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Point lights do not cast shadows in this package.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Its shadow pass uses a perspective projection covering the outer cone.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu           *sync.RWMutex
	name         string
	lightType    LightType
	position     mgl.Vec3
	direction    mgl.Vec3
	color        mgl.Vec3
	intensity    float32
	lightRange   float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	enabled      bool
	castsShadows bool
}

// Light defines the interface for a light source.
//
// Lights are read by shadow passes during the draw phase while the application
// or a location observer may move them, so every accessor is synchronized.
type Light interface {
	// Name returns the light's name, used in resource labels and logs.
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl.Vec3: the position
	Position() mgl.Vec3

	// Direction returns the normalized direction the light points, from the
	// light towards the scene. For spot lights this is the cone axis.
	//
	// Returns:
	//   - mgl.Vec3: the normalized direction
	Direction() mgl.Vec3

	// Color returns the RGB color of the light.
	Color() mgl.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	// Spot shadow passes use it as their far plane.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	// Fragments outside this angle receive zero intensity from the spot cone falloff.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	Enabled() bool

	// CastsShadows returns whether this light is eligible for a shadow pass.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetPosition sets the world-space position of the light.
	SetPosition(p mgl.Vec3)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - d: direction (will be normalized)
	SetDirection(d mgl.Vec3)

	// SetColor sets the RGB color of the light.
	SetColor(c mgl.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the attenuation distance.
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles in degrees.
	//
	// Parameters:
	//   - innerDeg: full-intensity half-angle
	//   - outerDeg: cutoff half-angle
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light is eligible for a shadow pass.
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type with sensible defaults.
// Additional configuration can be applied via LightBuilderOption functions.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:           &sync.RWMutex{},
		name:         lightType.String(),
		lightType:    lightType,
		direction:    mgl.Vec3{0, -1, 0},
		color:        mgl.Vec3{1, 1, 1},
		intensity:    1.0,
		lightRange:   10.0,
		innerCone:    0.9063, // cos(25°)
		outerCone:    0.8192, // cos(35°)
		enabled:      true,
		castsShadows: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Name() string {
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *lightImpl) Direction() mgl.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

func (l *lightImpl) Color() mgl.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.castsShadows
}

func (l *lightImpl) SetPosition(p mgl.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = p
}

func (l *lightImpl) SetDirection(d mgl.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize(d)
}

func (l *lightImpl) SetColor(c mgl.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.castsShadows = castsShadows
}
