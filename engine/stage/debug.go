package stage

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// DebugImagePath returns where a debug image of a pass is written:
// <dir>/<frame>-<context>-<unit>.png.
func DebugImagePath(dir string, epoch, contextID uint64, unit string) string {
	unit = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, unit)
	return filepath.Join(dir, fmt.Sprintf("%06d-%d-%s.png", epoch, contextID, unit))
}

// WriteDebugImage reads back fb and writes it as a PNG.
//
// Parameters:
//   - rc: the render context providing device, epoch and context id
//   - dir: output directory
//   - fb: framebuffer to read, nil for the default
//   - unit: the pass name
//
// Returns:
//   - string: the written path
//   - error: a readback or write error
func WriteDebugImage(rc *RenderContext, dir string, fb gpu.Framebuffer, unit string) (string, error) {
	img, err := rc.Device.ReadPixels(fb)
	if err != nil {
		return "", fmt.Errorf("failed to read back %s: %w", unit, err)
	}
	path := DebugImagePath(dir, rc.Epoch, rc.ContextID, unit)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create debug image: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode debug image: %w", err)
	}
	return path, nil
}
