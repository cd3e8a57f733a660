package location

import (
	"math"
	"time"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Ephemeris maps an observer location and a time to the direction of the sun
// in the observer's local east/north/up frame (X east, Y north, Z up).
type Ephemeris func(latDeg, lonDeg float64, t time.Time) mgl.Vec3

// SimpleEphemeris is a low-precision solar model: declination from the day of
// the year and hour angle from mean solar time. It ignores the equation of
// time and refraction, which keeps it within a couple of degrees.
func SimpleEphemeris(latDeg, lonDeg float64, t time.Time) mgl.Vec3 {
	t = t.UTC()
	day := float64(t.YearDay())
	hours := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	decl := -23.44 * math.Pi / 180 * math.Cos(2*math.Pi/365*(day+10))
	solar := hours + lonDeg/15
	h := (solar - 12) * 15 * math.Pi / 180
	lat := latDeg * math.Pi / 180

	east := -math.Cos(decl) * math.Sin(h)
	north := math.Cos(lat)*math.Sin(decl) - math.Sin(lat)*math.Cos(decl)*math.Cos(h)
	up := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(h)
	return mgl.Vec3{float32(east), float32(north), float32(up)}.Normalize()
}
