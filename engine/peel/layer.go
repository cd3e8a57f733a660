package peel

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// Layer is one peeled depth layer: the color of its fragments and the depth
// the next layer peels behind.
type Layer struct {
	Color       gpu.Texture
	Depth       gpu.Texture
	Framebuffer gpu.Framebuffer
}

func newLayer(dev gpu.Device, prefix string, index, w, h int) (*Layer, error) {
	label := fmt.Sprintf("%s-layer%d", prefix, index)
	color, err := dev.CreateTexture(gpu.TextureDescriptor{Label: label + "-color", Width: w, Height: h, Format: gpu.TextureFormatRGBA16Float})
	if err != nil {
		return nil, fmt.Errorf("failed to create peel layer %d color: %w", index, err)
	}
	depth, err := dev.CreateTexture(gpu.TextureDescriptor{Label: label + "-depth", Width: w, Height: h, Format: gpu.TextureFormatDepth32Float})
	if err != nil {
		dev.Release(color)
		return nil, fmt.Errorf("failed to create peel layer %d depth: %w", index, err)
	}
	fb, err := dev.CreateFramebuffer(label, color, depth)
	if err != nil {
		dev.Release(color)
		dev.Release(depth)
		return nil, fmt.Errorf("failed to create peel layer %d framebuffer: %w", index, err)
	}
	return &Layer{Color: color, Depth: depth, Framebuffer: fb}, nil
}

func (l *Layer) release(dev gpu.Device) {
	dev.Release(l.Framebuffer)
	dev.Release(l.Color)
	dev.Release(l.Depth)
}
