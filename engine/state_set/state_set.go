package state_set

import (
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// Mode is a fixed-function toggle carried by a StateSet.
type Mode int

const (
	ModeBlend Mode = iota
	ModeDepthTest
)

// ModeSetting is the value of a mode and whether it overrides descendants.
// An overriding setting cannot be changed by state sets nested beneath it.
type ModeSetting struct {
	On       bool
	Override bool
}

// CompareFunc is the comparison used by the alpha test.
type CompareFunc = gpu.CompareFunc

const (
	CompareAlways       = gpu.CompareAlways
	CompareGreater      = gpu.CompareGreater
	CompareGreaterEqual = gpu.CompareGreaterEqual
	CompareLess         = gpu.CompareLess
)

// AlphaTest discards fragments whose alpha fails Func against Ref.
type AlphaTest struct {
	Func CompareFunc
	Ref  float32
}

// Passes reports whether alpha passes the test.
func (a AlphaTest) Passes(alpha float32) bool {
	return a.Func.Compare(alpha, a.Ref)
}

// RenderBin places a node's drawables in a named, ordered bin. Bins are read
// by the host's sorting pass; the stages here draw in attachment order.
type RenderBin struct {
	Number int
	Name   string
}

// Snapshot is a deep copy of a StateSet's contents, comparable with reflect.DeepEqual.
type Snapshot struct {
	Modes         map[Mode]ModeSetting
	Uniforms      map[string]any
	ShaderModules []string
	Textures      map[int]gpu.Texture
	RenderBin     *RenderBin
	AlphaTest     *AlphaTest
}

type stateSetImpl struct {
	mu *sync.RWMutex

	modes         map[Mode]ModeSetting
	uniforms      map[string]any
	shaderModules []string
	textures      map[int]gpu.Texture
	renderBin     *RenderBin
	alphaTest     *AlphaTest
}

// StateSet is the render state attached to a scene node: modes, uniforms,
// shader modules, texture bindings, render bin and alpha test. It is safe for
// concurrent use by configuration and render-preparation goroutines.
type StateSet interface {
	// SetMode sets a mode and its override flag.
	SetMode(m Mode, on, override bool)

	// Mode returns a mode's setting.
	//
	// Returns:
	//   - ModeSetting: the setting
	//   - bool: false if the mode is inherited
	Mode(m Mode) (ModeSetting, bool)

	// RemoveMode makes a mode inherited again.
	RemoveMode(m Mode)

	// SetUniform sets a uniform value.
	SetUniform(name string, value any)

	// Uniform returns a uniform value.
	Uniform(name string) (any, bool)

	// RemoveUniform removes a uniform.
	//
	// Returns:
	//   - bool: false if the uniform was not set
	RemoveUniform(name string) bool

	// AddShaderModule attaches a named shader module.
	//
	// Returns:
	//   - bool: false if the module was already attached
	AddShaderModule(name string) bool

	// RemoveShaderModule detaches a named shader module.
	//
	// Returns:
	//   - bool: false if the module was not attached
	RemoveShaderModule(name string) bool

	// ShaderModules returns the attached modules in attachment order. The host
	// links them into the programs it builds for the node's drawables.
	ShaderModules() []string

	// SetTexture binds a texture to a unit. nil clears the unit.
	SetTexture(unit int, tex gpu.Texture)

	// Texture returns the texture bound to a unit.
	Texture(unit int) (gpu.Texture, bool)

	// SetRenderBin places the node in a render bin.
	SetRenderBin(number int, name string)

	// RenderBin returns the node's render bin.
	RenderBin() (RenderBin, bool)

	// ClearRenderBin returns the node to its inherited bin.
	ClearRenderBin()

	// SetAlphaTest sets the alpha test.
	SetAlphaTest(test AlphaTest)

	// AlphaTest returns the alpha test.
	AlphaTest() (AlphaTest, bool)

	// ClearAlphaTest removes the alpha test.
	ClearAlphaTest()

	// Apply pushes uniforms, textures, modes and the alpha test onto a device.
	Apply(dev gpu.Device)

	// Snapshot returns a deep copy of the contents.
	Snapshot() Snapshot
}

var _ StateSet = &stateSetImpl{}

// NewStateSet creates an empty StateSet.
//
// Returns:
//   - StateSet: the new state set
func NewStateSet() StateSet {
	return &stateSetImpl{
		mu:       &sync.RWMutex{},
		modes:    make(map[Mode]ModeSetting),
		uniforms: make(map[string]any),
		textures: make(map[int]gpu.Texture),
	}
}

func (s *stateSetImpl) SetMode(m Mode, on, override bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[m] = ModeSetting{On: on, Override: override}
}

func (s *stateSetImpl) Mode(m Mode) (ModeSetting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.modes[m]
	return v, ok
}

func (s *stateSetImpl) RemoveMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modes, m)
}

func (s *stateSetImpl) SetUniform(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniforms[name] = value
}

func (s *stateSetImpl) Uniform(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.uniforms[name]
	return v, ok
}

func (s *stateSetImpl) RemoveUniform(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uniforms[name]; !ok {
		return false
	}
	delete(s.uniforms, name)
	return true
}

func (s *stateSetImpl) AddShaderModule(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.shaderModules, name) {
		return false
	}
	s.shaderModules = append(s.shaderModules, name)
	return true
}

func (s *stateSetImpl) RemoveShaderModule(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.shaderModules, name)
	if i < 0 {
		return false
	}
	s.shaderModules = slices.Delete(s.shaderModules, i, i+1)
	return true
}

func (s *stateSetImpl) ShaderModules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.shaderModules)
}

func (s *stateSetImpl) SetTexture(unit int, tex gpu.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tex == nil {
		delete(s.textures, unit)
		return
	}
	s.textures[unit] = tex
}

func (s *stateSetImpl) Texture(unit int) (gpu.Texture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.textures[unit]
	return t, ok
}

func (s *stateSetImpl) SetRenderBin(number int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderBin = &RenderBin{Number: number, Name: name}
}

func (s *stateSetImpl) RenderBin() (RenderBin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.renderBin == nil {
		return RenderBin{}, false
	}
	return *s.renderBin, true
}

func (s *stateSetImpl) ClearRenderBin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderBin = nil
}

func (s *stateSetImpl) SetAlphaTest(test AlphaTest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTest = &test
}

func (s *stateSetImpl) AlphaTest() (AlphaTest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.alphaTest == nil {
		return AlphaTest{}, false
	}
	return *s.alphaTest, true
}

func (s *stateSetImpl) ClearAlphaTest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTest = nil
}

func (s *stateSetImpl) Apply(dev gpu.Device) {
	s.Snapshot().Apply(dev)
}

func (s *stateSetImpl) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Modes:         maps.Clone(s.modes),
		Uniforms:      maps.Clone(s.uniforms),
		ShaderModules: slices.Clone(s.shaderModules),
		Textures:      maps.Clone(s.textures),
	}
	if s.renderBin != nil {
		rb := *s.renderBin
		snap.RenderBin = &rb
	}
	if s.alphaTest != nil {
		at := *s.alphaTest
		snap.AlphaTest = &at
	}
	return snap
}

// Apply pushes the snapshot's uniforms, textures, modes and alpha test onto dev.
// The alpha test is published as the gpu.UniformAlphaTestFunc and
// gpu.UniformAlphaTestRef uniforms.
func (snap Snapshot) Apply(dev gpu.Device) {
	for _, name := range slices.Sorted(maps.Keys(snap.Uniforms)) {
		dev.SetUniform(name, snap.Uniforms[name])
	}
	for _, unit := range slices.Sorted(maps.Keys(snap.Textures)) {
		dev.BindTexture(unit, snap.Textures[unit])
	}
	if m, ok := snap.Modes[ModeDepthTest]; ok {
		dev.SetDepthTest(m.On)
	}
	if m, ok := snap.Modes[ModeBlend]; ok {
		if m.On {
			dev.SetBlend(gpu.BlendOver)
		} else {
			dev.SetBlend(gpu.BlendNone)
		}
	}
	if snap.AlphaTest != nil {
		dev.SetUniform(gpu.UniformAlphaTestFunc, snap.AlphaTest.Func)
		dev.SetUniform(gpu.UniformAlphaTestRef, snap.AlphaTest.Ref)
	}
}

// Resolve merges a stack of state sets, outermost first, into the state in
// effect beneath all of them. Inner sets replace the uniforms, textures, render
// bin and alpha test of outer ones. A mode an outer set marks as Override keeps
// its value whatever inner sets say. Shader modules accumulate in order.
//
// Parameters:
//   - stack: the state sets from the root down
//
// Returns:
//   - Snapshot: the effective state
func Resolve(stack []StateSet) Snapshot {
	out := Snapshot{
		Modes:    make(map[Mode]ModeSetting),
		Uniforms: make(map[string]any),
		Textures: make(map[int]gpu.Texture),
	}
	for _, ss := range stack {
		snap := ss.Snapshot()
		for m, setting := range snap.Modes {
			if cur, ok := out.Modes[m]; ok && cur.Override {
				continue
			}
			out.Modes[m] = setting
		}
		maps.Copy(out.Uniforms, snap.Uniforms)
		maps.Copy(out.Textures, snap.Textures)
		for _, name := range snap.ShaderModules {
			if !slices.Contains(out.ShaderModules, name) {
				out.ShaderModules = append(out.ShaderModules, name)
			}
		}
		if snap.RenderBin != nil {
			out.RenderBin = snap.RenderBin
		}
		if snap.AlphaTest != nil {
			out.AlphaTest = snap.AlphaTest
		}
	}
	return out
}
