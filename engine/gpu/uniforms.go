package gpu

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-fx/common"
	mgl "github.com/go-gl/mathgl/mgl32"
)

const (
	vec4Size = 16
	mat4Size = 64
)

// UniformBlockSize returns the byte size of a uniform block with the given members.
func UniformBlockSize(uniforms []Uniform) int {
	size := 0
	for _, u := range uniforms {
		if u.Type == UniformMat4 {
			size += mat4Size
		} else {
			size += vec4Size
		}
	}
	return size
}

// PackUniforms serializes values into a uniform block laid out as declared.
// Missing values are zero. Values of an unsupported type are zero.
//
// Parameters:
//   - uniforms: the block members in declaration order
//   - values: current uniform values by name
//
// Returns:
//   - []byte: the block contents, little endian
func PackUniforms(uniforms []Uniform, values map[string]any) []byte {
	buf := make([]byte, UniformBlockSize(uniforms))
	off := 0
	for _, u := range uniforms {
		n := vec4Size
		if u.Type == UniformMat4 {
			n = mat4Size
		}
		putFloats(buf[off:off+n], uniformFloats(values[u.Name]))
		off += n
	}
	return buf
}

func uniformFloats(v any) []float32 {
	switch t := v.(type) {
	case float32:
		return []float32{t}
	case float64:
		return []float32{float32(t)}
	case int:
		return []float32{float32(t)}
	case CompareFunc:
		return []float32{float32(t)}
	case bool:
		if t {
			return []float32{1}
		}
		return []float32{0}
	case mgl.Vec2:
		return t[:]
	case mgl.Vec3:
		return t[:]
	case mgl.Vec4:
		return t[:]
	case common.Color:
		return t[:]
	case mgl.Mat4:
		return t[:]
	case []float32:
		return t
	}
	return nil
}

func putFloats(dst []byte, src []float32) {
	for i, f := range src {
		if (i+1)*4 > len(dst) {
			return
		}
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
