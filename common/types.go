// Package common contains plain value types and helpers shared by every engine package.
package common

import "fmt"

// Viewport is a pixel rectangle inside a render target.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", v.Width, v.Height, v.X, v.Y)
}

// Color is a linear RGBA color.
type Color [4]float32

var (
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
)

// R returns the red component.
func (c Color) R() float32 { return c[0] }

// G returns the green component.
func (c Color) G() float32 { return c[1] }

// B returns the blue component.
func (c Color) B() float32 { return c[2] }

// A returns the alpha component.
func (c Color) A() float32 { return c[3] }

// Over composites c over dst using straight alpha.
//
// Parameters:
//   - dst: the destination color
//
// Returns:
//   - Color: the blended result
func (c Color) Over(dst Color) Color {
	a := c[3]
	return Color{
		c[0]*a + dst[0]*(1-a),
		c[1]*a + dst[1]*(1-a),
		c[2]*a + dst[2]*(1-a),
		a + dst[3]*(1-a),
	}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float32) Color {
	return Color{c[0] * s, c[1] * s, c[2] * s, c[3] * s}
}

// Add sums two colors channel-wise.
func (c Color) Add(o Color) Color {
	return Color{c[0] + o[0], c[1] + o[1], c[2] + o[2], c[3] + o[3]}
}
