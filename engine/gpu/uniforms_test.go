package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func floatAt(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
}

func TestPackUniforms_Layout(t *testing.T) {
	decl := []Uniform{
		{Name: "exposure"},
		{Name: "mvp", Type: UniformMat4},
		{Name: "tint"},
		{Name: "missing"},
	}
	buf := PackUniforms(decl, map[string]any{
		"exposure": float32(2.5),
		"mvp":      mgl.Translate3D(1, 2, 3),
		"tint":     mgl.Vec3{0.1, 0.2, 0.3},
	})

	assert.Len(t, buf, 16+64+16+16)
	assert.Equal(t, float32(2.5), floatAt(buf, 0))
	assert.Equal(t, float32(0), floatAt(buf, 1))
	// Translation lives in the fourth column.
	assert.Equal(t, float32(1), floatAt(buf, 4+12))
	assert.Equal(t, float32(3), floatAt(buf, 4+14))
	assert.Equal(t, float32(0.2), floatAt(buf, 20+1))
	assert.Equal(t, float32(0), floatAt(buf, 24))
}

func TestPackUniforms_Bool(t *testing.T) {
	buf := PackUniforms([]Uniform{{Name: "on"}}, map[string]any{"on": true})
	assert.Equal(t, float32(1), floatAt(buf, 0))
}
