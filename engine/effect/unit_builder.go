package effect

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

// UnitBuilderOption configures an effect created by NewUnit.
type UnitBuilderOption func(*unitImpl)

// WithProgram sets the program name.
func WithProgram(name string) UnitBuilderOption {
	return func(u *unitImpl) {
		u.program = name
	}
}

// WithInput binds tex to unit.
func WithInput(unit int, tex gpu.Texture) UnitBuilderOption {
	return func(u *unitImpl) {
		u.inputs[unit] = tex
	}
}

// WithOutput sets the framebuffer the unit draws into.
func WithOutput(fb gpu.Framebuffer) UnitBuilderOption {
	return func(u *unitImpl) {
		u.output = fb
	}
}

// WithUniform sets an initial uniform value.
func WithUniform(name string, value any) UnitBuilderOption {
	return func(u *unitImpl) {
		u.uniforms[name] = value
	}
}
