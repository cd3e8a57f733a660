package effect

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// intermediate is a lazily built color render target owned by a multi-pass effect.
// A failed allocation is not retried until the target is invalidated.
type intermediate struct {
	label  string
	format gpu.TextureFormat
	width  int
	height int
	tex    gpu.Texture
	fb     gpu.Framebuffer
	stale  []gpu.Resource
	err    error
}

func newIntermediate(label string, format gpu.TextureFormat) *intermediate {
	return &intermediate{label: label, format: format}
}

// invalidate drops the built target. Its resources are released on the next ensure.
func (t *intermediate) invalidate() {
	if t.fb != nil {
		t.stale = append(t.stale, t.fb, t.tex)
	}
	t.tex, t.fb, t.err = nil, nil, nil
}

// ensure returns the target at width x height, building or rebuilding it as needed.
func (t *intermediate) ensure(dev gpu.Device, width, height int) (gpu.Framebuffer, error) {
	t.releaseStale(dev)
	if t.fb != nil && (t.width != width || t.height != height) {
		t.invalidate()
		t.releaseStale(dev)
	}
	if t.fb != nil {
		return t.fb, nil
	}
	if t.err != nil && t.width == width && t.height == height {
		return nil, t.err
	}

	t.width, t.height = width, height
	tex, err := dev.CreateTexture(gpu.TextureDescriptor{Label: t.label, Width: width, Height: height, Format: t.format})
	if err != nil {
		t.err = fmt.Errorf("failed to create %s texture: %w", t.label, err)
		return nil, t.err
	}
	fb, err := dev.CreateFramebuffer(t.label, tex, nil)
	if err != nil {
		dev.Release(tex)
		t.err = fmt.Errorf("failed to create %s framebuffer: %w", t.label, err)
		return nil, t.err
	}
	t.tex, t.fb, t.err = tex, fb, nil
	return fb, nil
}

func (t *intermediate) releaseStale(dev gpu.Device) {
	for _, r := range t.stale {
		dev.Release(r)
	}
	t.stale = t.stale[:0]
}

func (t *intermediate) release(dev gpu.Device) {
	t.invalidate()
	t.releaseStale(dev)
	t.width, t.height = 0, 0
}
