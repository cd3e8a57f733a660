// Package shader provisions GPU programs by name. Sources come from programs
// registered in memory or from files following the <dir>/<base><suffix>
// convention, and are validated with naga before reaching the device.
package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/gogpu/naga"
)

// ErrNotFound is returned when no source exists for a program name.
var ErrNotFound = errors.New("shader: program source not found")

const (
	DefaultVertexSuffix   = ".vert.wgsl"
	DefaultFragmentSuffix = ".frag.wgsl"
)

// Provider resolves program names to device programs.
type Provider interface {
	// Program returns the program for name on dev, building it on first use.
	// A failed build is remembered and returned again until the name is invalidated.
	//
	// Parameters:
	//   - dev: the device the program is built on
	//   - name: the program name
	//
	// Returns:
	//   - gpu.Program: the program
	//   - error: ErrNotFound, a validation error, or a device error
	Program(dev gpu.Device, name string) (gpu.Program, error)

	// Source returns the source a program would be built from.
	//
	// Parameters:
	//   - name: the program name
	//
	// Returns:
	//   - gpu.ProgramSource: the resolved source
	//   - error: ErrNotFound or a read error
	Source(name string) (gpu.ProgramSource, error)

	// Register adds or replaces an in-memory program declaration. A declaration
	// with an empty Fragment keeps its interface description and takes its code from files.
	Register(src gpu.ProgramSource)

	// Invalidate forgets cached programs and failures for name on every device.
	// The stale programs are released on the next Program call for their device.
	Invalidate(name string)

	// InvalidateAll invalidates every cached name.
	InvalidateAll()

	// NameForFile maps a shader file path to the program name it belongs to.
	//
	// Returns:
	//   - string: the program name
	//   - bool: false if the path does not follow the naming convention
	NameForFile(path string) (string, bool)

	// Dir returns the shader directory, or "" when only in-memory sources are used.
	Dir() string

	// Release frees every program built on dev.
	Release(dev gpu.Device)
}

type cacheKey struct {
	dev  gpu.Device
	name string
}

type cacheEntry struct {
	program gpu.Program
	err     error
}

type providerImpl struct {
	mu *sync.Mutex

	dir            string
	vertexSuffix   string
	fragmentSuffix string
	validate       bool
	verbose        bool

	declared map[string]gpu.ProgramSource
	cache    map[cacheKey]cacheEntry
	stale    map[gpu.Device][]gpu.Program
	failures *common.OnceLogger
}

var _ Provider = &providerImpl{}

// NewProvider creates a Provider.
//
// Parameters:
//   - options: functional options to configure the provider
//
// Returns:
//   - Provider: the newly created provider
func NewProvider(options ...ProviderBuilderOption) Provider {
	p := &providerImpl{
		mu:             &sync.Mutex{},
		vertexSuffix:   DefaultVertexSuffix,
		fragmentSuffix: DefaultFragmentSuffix,
		validate:       true,
		declared:       make(map[string]gpu.ProgramSource),
		cache:          make(map[cacheKey]cacheEntry),
		stale:          make(map[gpu.Device][]gpu.Program),
		failures:       common.NewOnceLogger(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *providerImpl) Dir() string {
	return p.dir
}

func (p *providerImpl) Register(src gpu.ProgramSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.declared[src.Name] = src
	p.invalidateLocked(src.Name)
}

func (p *providerImpl) Program(dev gpu.Device, name string) (gpu.Program, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, old := range p.stale[dev] {
		dev.Release(old)
	}
	delete(p.stale, dev)

	key := cacheKey{dev, name}
	if e, ok := p.cache[key]; ok {
		return e.program, e.err
	}

	prog, err := p.build(dev, name)
	p.cache[key] = cacheEntry{program: prog, err: err}
	if err != nil {
		p.failures.Warn("shader/"+name, "program unavailable", "program", name, "err", err)
		return nil, err
	}
	if p.verbose {
		common.Logger().Info("program built", "program", name)
	}
	return prog, nil
}

func (p *providerImpl) build(dev gpu.Device, name string) (gpu.Program, error) {
	src, err := p.sourceLocked(name)
	if err != nil {
		return nil, err
	}
	if p.validate {
		if err := validate(src); err != nil {
			return nil, err
		}
	}
	prog, err := dev.CreateProgram(src)
	if err != nil {
		return nil, fmt.Errorf("failed to build program %q: %w", name, err)
	}
	return prog, nil
}

// validate compiles each non-empty stage with naga so malformed WGSL is
// reported with the program name before the device sees it.
func validate(src gpu.ProgramSource) error {
	for stage, code := range map[string]string{"vertex": src.Vertex, "fragment": src.Fragment} {
		if code == "" {
			continue
		}
		if _, err := naga.Compile(code); err != nil {
			return fmt.Errorf("failed to validate %s stage of %q: %w", stage, src.Name, err)
		}
	}
	return nil
}

func (p *providerImpl) Source(name string) (gpu.ProgramSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sourceLocked(name)
}

func (p *providerImpl) sourceLocked(name string) (gpu.ProgramSource, error) {
	src, declared := p.declared[name]
	if declared && src.Fragment != "" {
		return src, nil
	}
	if !declared {
		src = gpu.ProgramSource{Name: name, TextureUnits: 1}
	}
	if p.dir == "" {
		if declared {
			// Code-less declarations are fine for devices that ignore source text.
			return src, nil
		}
		return gpu.ProgramSource{}, fmt.Errorf("program %q: %w", name, ErrNotFound)
	}

	frag, err := os.ReadFile(filepath.Join(p.dir, name+p.fragmentSuffix))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gpu.ProgramSource{}, fmt.Errorf("program %q in %s: %w", name, p.dir, ErrNotFound)
		}
		return gpu.ProgramSource{}, fmt.Errorf("failed to read fragment stage of %q: %w", name, err)
	}
	src.Fragment = string(frag)

	// The vertex stage is optional; devices fall back to a full-screen triangle.
	vert, err := os.ReadFile(filepath.Join(p.dir, name+p.vertexSuffix))
	switch {
	case err == nil:
		src.Vertex = string(vert)
	case !errors.Is(err, os.ErrNotExist):
		return gpu.ProgramSource{}, fmt.Errorf("failed to read vertex stage of %q: %w", name, err)
	}
	return src, nil
}

func (p *providerImpl) Invalidate(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked(name)
}

func (p *providerImpl) invalidateLocked(name string) {
	for key, e := range p.cache {
		if key.name != name {
			continue
		}
		if e.program != nil {
			p.stale[key.dev] = append(p.stale[key.dev], e.program)
		}
		delete(p.cache, key)
	}
	p.failures.Reset()
	if p.verbose {
		common.Logger().Info("program invalidated", "program", name)
	}
}

func (p *providerImpl) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make(map[string]struct{})
	for key := range p.cache {
		names[key.name] = struct{}{}
	}
	for name := range names {
		p.invalidateLocked(name)
	}
}

func (p *providerImpl) NameForFile(path string) (string, bool) {
	base := filepath.Base(path)
	for _, suffix := range []string{p.fragmentSuffix, p.vertexSuffix} {
		if name, ok := strings.CutSuffix(base, suffix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

func (p *providerImpl) Release(dev gpu.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, old := range p.stale[dev] {
		dev.Release(old)
	}
	delete(p.stale, dev)
	for key, e := range p.cache {
		if key.dev != dev {
			continue
		}
		if e.program != nil {
			dev.Release(e.program)
		}
		delete(p.cache, key)
	}
}
