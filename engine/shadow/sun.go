package shadow

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/light"
	"github.com/Carmen-Shannon/oxy-fx/engine/location"
)

// FollowSun points a directional light away from the sun of loc and enables
// it only while the sun is above the horizon. The light is updated at once and
// again on every change to loc.
//
// Parameters:
//   - loc: the location context
//   - l: the light to drive
//
// Returns:
//   - func(): stops following
func FollowSun(loc location.Context, l light.Light) func() {
	apply := func(snap location.Snapshot) {
		l.SetDirection(snap.SunDirection.Mul(-1))
		l.SetEnabled(snap.SunElevation() > 0)
	}
	apply(loc.Snapshot())
	return loc.Subscribe(apply)
}

// NewSunLight creates a directional light named "sun" that follows the sun of loc.
//
// Parameters:
//   - loc: the location context
//   - options: light options, applied after the defaults
//
// Returns:
//   - light.Light: the light
//   - func(): stops following
func NewSunLight(loc location.Context, options ...light.LightBuilderOption) (light.Light, func()) {
	opts := append([]light.LightBuilderOption{light.WithName("sun")}, options...)
	l := light.NewLight(light.LightTypeDirectional, opts...)
	return l, FollowSun(loc, l)
}
