package shader

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

type ProviderBuilderOption func(*providerImpl)

// WithDirectory sets the directory shader files are loaded from.
//
// Parameters:
//   - dir: the shader directory
//
// Returns:
//   - ProviderBuilderOption: a function that sets the shader directory
func WithDirectory(dir string) ProviderBuilderOption {
	return func(p *providerImpl) {
		p.dir = dir
	}
}

// WithSuffixes overrides the file suffixes of the vertex and fragment stages.
//
// Parameters:
//   - vertex: vertex stage suffix, e.g. ".vert.wgsl"
//   - fragment: fragment stage suffix, e.g. ".frag.wgsl"
//
// Returns:
//   - ProviderBuilderOption: a function that sets the stage suffixes
func WithSuffixes(vertex, fragment string) ProviderBuilderOption {
	return func(p *providerImpl) {
		p.vertexSuffix = vertex
		p.fragmentSuffix = fragment
	}
}

// WithValidation enables or disables naga validation of WGSL sources.
//
// Parameters:
//   - validate: true to validate sources before building
//
// Returns:
//   - ProviderBuilderOption: a function that sets validation
func WithValidation(validate bool) ProviderBuilderOption {
	return func(p *providerImpl) {
		p.validate = validate
	}
}

// WithVerbose logs every build and invalidation at info level.
func WithVerbose(verbose bool) ProviderBuilderOption {
	return func(p *providerImpl) {
		p.verbose = verbose
	}
}

// WithPrograms registers in-memory program declarations.
//
// Parameters:
//   - sources: the program declarations
//
// Returns:
//   - ProviderBuilderOption: a function that registers the declarations
func WithPrograms(sources ...gpu.ProgramSource) ProviderBuilderOption {
	return func(p *providerImpl) {
		for _, src := range sources {
			p.declared[src.Name] = src
		}
	}
}
