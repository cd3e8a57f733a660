// Package gpu is the binding surface between the render stages and a GPU API.
// Stages only issue the calls on Device. The host renderer or one of the
// implementations in this package fulfils them.
package gpu

import (
	"errors"
	"image"

	"github.com/Carmen-Shannon/oxy-fx/common"
)

var (
	// ErrAllocation is returned when the device cannot allocate a resource.
	ErrAllocation = errors.New("gpu: resource allocation failed")
	// ErrReleased is reported by CheckError when a released resource was used.
	ErrReleased = errors.New("gpu: use of released resource")
	// ErrUnsupported is returned for operations the device cannot perform.
	ErrUnsupported = errors.New("gpu: operation not supported by device")
	// ErrProgramUnknown is returned when a program cannot be built from its source.
	ErrProgramUnknown = errors.New("gpu: unknown program")
)

// TextureFormat identifies the texel layout of a texture.
type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatRGBA16Float
	TextureFormatDepth32Float
)

// IsDepth reports whether the format stores depth values.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth32Float
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "rgba8"
	case TextureFormatRGBA16Float:
		return "rgba16f"
	case TextureFormatDepth32Float:
		return "depth32f"
	}
	return "unknown"
}

// TextureDescriptor describes a 2D texture to allocate.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
}

// Resource is any object owned by a Device.
type Resource interface {
	Label() string
}

// Texture is a 2D image on the device.
type Texture interface {
	Resource
	Width() int
	Height() int
	Format() TextureFormat
}

// Framebuffer is a render target made of an optional color texture and an optional depth texture.
type Framebuffer interface {
	Resource
	Color() Texture
	Depth() Texture
	Width() int
	Height() int
}

// Program is a linked vertex + fragment shader program.
type Program interface {
	Resource
}

// Geometry is drawable vertex data. The engine only creates full-screen quads.
type Geometry interface {
	Resource
}

// UniformType selects how a uniform value is packed.
type UniformType int

const (
	// UniformVec4 packs floats, ints, bools and vectors into one vec4<f32> slot.
	UniformVec4 UniformType = iota
	// UniformMat4 packs a mat4x4<f32>.
	UniformMat4
)

// Uniform declares one member of a program's uniform block.
type Uniform struct {
	Name string
	Type UniformType
}

// ProgramSource is everything a device needs to build a Program.
// Uniforms lists the uniform block members in declaration order. Shaders declare
// scalars and vectors as vec4<f32> (scalars in .x) so the layout has no implicit padding.
type ProgramSource struct {
	Name          string
	Vertex        string
	Fragment      string
	VertexEntry   string
	FragmentEntry string
	Uniforms      []Uniform
	TextureUnits  int
	DepthUnits    []int
}

// ClearMask selects which attachments a clear touches.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth

	ClearAll = ClearColor | ClearDepth
)

// BlendMode selects the fixed-function blend equation for subsequent draws.
type BlendMode int

const (
	BlendNone BlendMode = iota
	// BlendOver is straight-alpha "source over destination".
	BlendOver
	// BlendAdditive adds source to destination.
	BlendAdditive
)

// CompareFunc is the comparison used by the alpha test.
type CompareFunc int

const (
	CompareAlways CompareFunc = iota
	CompareGreater
	CompareGreaterEqual
	CompareLess
)

// Alpha test uniforms. Fragments whose alpha fails the comparison against the
// reference are discarded without touching depth or color.
const (
	UniformAlphaTestFunc = "alphaTestFunc"
	UniformAlphaTestRef  = "alphaTestRef"
)

// Compare reports whether v passes the comparison against ref.
func (f CompareFunc) Compare(v, ref float32) bool {
	switch f {
	case CompareGreater:
		return v > ref
	case CompareGreaterEqual:
		return v >= ref
	case CompareLess:
		return v < ref
	}
	return true
}

// Device is the set of GPU operations the render stages issue. Implementations
// are not safe for concurrent use; the draw phase is single-threaded per device.
type Device interface {
	// CreateTexture allocates a 2D texture.
	//
	// Parameters:
	//   - desc: size, format and label of the texture
	//
	// Returns:
	//   - Texture: the allocated texture
	//   - error: ErrAllocation (wrapped) if the texture could not be created
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads tightly packed RGBA8 pixels into a color texture.
	//
	// Parameters:
	//   - tex: destination texture
	//   - rgba: width*height*4 bytes
	//
	// Returns:
	//   - error: an error if the upload is rejected
	WriteTexture(tex Texture, rgba []byte) error

	// CreateFramebuffer groups attachments into a render target. Either
	// attachment may be nil but not both.
	//
	// Parameters:
	//   - label: debug label
	//   - color: color attachment or nil
	//   - depth: depth attachment or nil
	//
	// Returns:
	//   - Framebuffer: the render target
	//   - error: an error if the attachments are incompatible
	CreateFramebuffer(label string, color, depth Texture) (Framebuffer, error)

	// CreateProgram builds a program from its source.
	//
	// Parameters:
	//   - src: shader sources and interface description
	//
	// Returns:
	//   - Program: the linked program
	//   - error: an error if compilation or linking fails
	CreateProgram(src ProgramSource) (Program, error)

	// CreateFullscreenQuad creates geometry covering the whole viewport.
	//
	// Returns:
	//   - Geometry: the quad
	//   - error: ErrAllocation (wrapped) on failure
	CreateFullscreenQuad() (Geometry, error)

	// Release frees a resource created by this device. Releasing twice is a no-op.
	Release(r Resource)

	// BindFramebuffer directs subsequent clears and draws at fb. nil selects the default framebuffer.
	BindFramebuffer(fb Framebuffer)

	// SetViewport sets the pixel rectangle for subsequent draws.
	SetViewport(vp common.Viewport)

	// BindProgram selects the program for subsequent draws. nil selects the
	// device's passthrough program, which copies texture unit 0.
	BindProgram(p Program)

	// BindTexture binds tex to a texture unit. nil unbinds the unit.
	BindTexture(unit int, tex Texture)

	// SetUniform sets a named uniform for subsequent draws. A nil value unsets it.
	SetUniform(name string, value any)

	// SetDepthTest enables or disables depth testing and depth writes.
	SetDepthTest(enabled bool)

	// SetBlend selects the blend equation.
	SetBlend(mode BlendMode)

	// Clear clears the attachments of the bound framebuffer selected by mask.
	Clear(mask ClearMask, color common.Color, depth float32)

	// Draw draws geometry with the current state.
	Draw(g Geometry)

	// BeginSamplesQuery starts counting fragments that pass the depth test.
	BeginSamplesQuery()

	// EndSamplesQuery stops counting.
	//
	// Returns:
	//   - uint64: fragments written since BeginSamplesQuery
	//   - bool: false if the device cannot count samples
	EndSamplesQuery() (uint64, bool)

	// ReadPixels reads back the color attachment of fb (nil for the default framebuffer).
	//
	// Returns:
	//   - *image.RGBA: the pixels, row 0 at the top
	//   - error: ErrUnsupported when the device cannot read back
	ReadPixels(fb Framebuffer) (*image.RGBA, error)

	// CheckError returns and clears the first error recorded since the last check.
	//
	// Parameters:
	//   - op: description of the operation just performed, included in the error
	CheckError(op string) error

	// DefaultSize returns the size of the default framebuffer.
	DefaultSize() (width, height int)
}

// Check calls dev.CheckError and logs any error with the given context. Execution continues either way.
//
// Parameters:
//   - dev: the device to query
//   - op: the operation just performed
//   - attrs: extra slog attributes
//
// Returns:
//   - bool: true if no error was pending
func Check(dev Device, op string, attrs ...any) bool {
	err := dev.CheckError(op)
	if err == nil {
		return true
	}
	common.Logger().Error("gpu state error", append(attrs, "op", op, "err", err)...)
	return false
}

// FramebufferSize returns the pixel size of fb, or of the default framebuffer when fb is nil.
func FramebufferSize(dev Device, fb Framebuffer) (int, int) {
	if fb == nil {
		return dev.DefaultSize()
	}
	return fb.Width(), fb.Height()
}
