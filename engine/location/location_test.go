package location

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	"github.com/chewxy/math32"
	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var equinoxNoon = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func TestSimpleEphemeris_EquatorNoonIsOverhead(t *testing.T) {
	sun := SimpleEphemeris(0, 0, equinoxNoon)
	assert.InDelta(t, 1, sun.Z(), 0.01)
}

func TestSimpleEphemeris_EveningSunIsWestAndMidnightBelowHorizon(t *testing.T) {
	evening := SimpleEphemeris(0, 0, equinoxNoon.Add(5*time.Hour))
	assert.Less(t, evening.X(), float32(-0.9))
	assert.Greater(t, evening.Z(), float32(0))

	midnight := SimpleEphemeris(45, 0, equinoxNoon.Add(12*time.Hour))
	assert.Less(t, midnight.Z(), float32(0))
}

func TestSimpleEphemeris_NorthernNoonSunIsSouth(t *testing.T) {
	sun := SimpleEphemeris(50, 0, equinoxNoon)
	assert.Less(t, sun.Y(), float32(0))
	assert.InDelta(t, 40, mgl.RadToDeg(math32.Asin(sun.Z())), 1.5)
}

func TestContext_SunDirectionUsesBasis(t *testing.T) {
	local := func(float64, float64, time.Time) mgl.Vec3 { return mgl.Vec3{0, 1, 0} }
	c := NewContext(WithEphemeris(local))
	// north of a Y-up, X-east frame is -Z
	sun := c.SunDirection()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, sun[:], 1e-6)

	c.SetBasis(mgl.Vec3{0, 0, 1}, mgl.Vec3{0, 1, 0})
	sun = c.SunDirection()
	assert.InDeltaSlice(t, []float32{1, 0, 0}, sun[:], 1e-6)
}

func TestContext_SetBasisOrthonormalizes(t *testing.T) {
	c := NewContext()
	c.SetBasis(mgl.Vec3{2, 1, 0}, mgl.Vec3{0, 3, 0})
	s := c.Snapshot()
	assert.InDeltaSlice(t, []float32{1, 0, 0}, s.East[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, s.Up[:], 1e-6)

	c.SetBasis(mgl.Vec3{0, 1, 0}, mgl.Vec3{0, 1, 0})
	s = c.Snapshot()
	assert.InDelta(t, 0, s.East.Dot(s.Up), 1e-6)
	assert.InDelta(t, 1, s.East.Len(), 1e-6)
}

func TestContext_ObserversNotifiedUntilCancelled(t *testing.T) {
	c := NewContext(WithTime(equinoxNoon))
	var got []Snapshot
	cancel := c.Subscribe(func(s Snapshot) { got = append(got, s) })
	var other int
	c.Subscribe(func(Snapshot) { other++ })

	c.SetLocation(10, 20)
	c.SetTime(equinoxNoon.Add(time.Hour))
	require.Len(t, got, 2)
	assert.Equal(t, 10.0, got[0].Latitude)
	assert.Equal(t, equinoxNoon.Add(time.Hour), got[1].Time)
	assert.Equal(t, c.SunDirection(), got[1].SunDirection)

	cancel()
	cancel()
	c.SetLocation(0, 0)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, other)
}

func TestContext_ObserverMaySubscribe(t *testing.T) {
	c := NewContext()
	c.Subscribe(func(Snapshot) {
		c.Subscribe(func(Snapshot) {})
	})
	assert.NotPanics(t, func() { c.SetTime(equinoxNoon) })
}

func TestContext_ApplyTo(t *testing.T) {
	c := NewContext(WithLocation(0, 0), WithTime(equinoxNoon))
	ss := state_set.NewStateSet()
	c.ApplyTo(ss)
	v, ok := ss.Uniform(SunDirectionUniform)
	require.True(t, ok)
	assert.Equal(t, c.SunDirection(), v)
	assert.Greater(t, c.Snapshot().SunElevation(), float32(0.99))
}
