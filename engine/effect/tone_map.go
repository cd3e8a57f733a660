package effect

const ProgramToneMap = "tonemap"

// NewToneMap creates a single-pass exponential tone mapping effect reading unit 0.
//
// Parameters:
//   - name: the effect name
//   - exposure: scale applied before mapping
//   - gamma: output gamma
//   - options: further unit options
//
// Returns:
//   - Effect: the effect
func NewToneMap(name string, exposure, gamma float32, options ...UnitBuilderOption) Effect {
	opts := append([]UnitBuilderOption{
		WithProgram(ProgramToneMap),
		WithUniform("exposure", exposure),
		WithUniform("gamma", gamma),
	}, options...)
	return NewUnit(name, opts...)
}
