package stage

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// ClearMode selects how a stage clears its target before drawing.
type ClearMode int

const (
	// ClearModeColor clears the attachments in ClearMask to ClearColor and ClearDepth.
	ClearModeColor ClearMode = iota
	// ClearModeImage copies ClearImage over the color attachment, then clears depth if masked.
	ClearModeImage
	// ClearModeNone leaves the target untouched.
	ClearModeNone
)

func (m ClearMode) String() string {
	switch m {
	case ClearModeColor:
		return "color"
	case ClearModeImage:
		return "image"
	case ClearModeNone:
		return "none"
	}
	return "unknown"
}

// ParseClearMode converts a configuration name to a ClearMode.
func ParseClearMode(s string) (ClearMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "color":
		return ClearModeColor, nil
	case "image":
		return ClearModeImage, nil
	case "none":
		return ClearModeNone, nil
	}
	return ClearModeColor, fmt.Errorf("unknown clear mode %q", s)
}

// DebugFlags are independent diagnostic switches.
type DebugFlags uint32

const (
	// DebugConsole logs every stage draw at debug level.
	DebugConsole DebugFlags = 1 << iota
	// DebugImages writes the target of every effect pass as a PNG.
	DebugImages
	// DebugProfile reports stage draw times to the RenderContext timer.
	DebugProfile
	// DebugShaders logs program resolution failures with their full source name.
	DebugShaders
	// DebugVisual tints partition and peel passes so their boundaries can be seen.
	DebugVisual

	DebugNone DebugFlags = 0
	DebugAll             = DebugConsole | DebugImages | DebugProfile | DebugShaders | DebugVisual
)

var debugNames = []struct {
	flag DebugFlags
	name string
}{
	{DebugConsole, "console"},
	{DebugImages, "images"},
	{DebugProfile, "profile"},
	{DebugShaders, "shaders"},
	{DebugVisual, "visual"},
}

// Has reports whether every bit of flag is set.
func (f DebugFlags) Has(flag DebugFlags) bool {
	return flag != 0 && f&flag == flag
}

func (f DebugFlags) String() string {
	if f == DebugNone {
		return "none"
	}
	var parts []string
	for _, d := range debugNames {
		if f&d.flag != 0 {
			parts = append(parts, d.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseDebugFlags ORs together the named flags.
//
// Parameters:
//   - names: flag names such as "console" or "images"; "all" sets every flag
//
// Returns:
//   - DebugFlags: the combined flags
//   - error: an error naming the first unknown flag
func ParseDebugFlags(names []string) (DebugFlags, error) {
	var f DebugFlags
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "all" {
			f |= DebugAll
			continue
		}
		found := false
		for _, d := range debugNames {
			if d.name == n {
				f |= d.flag
				found = true
				break
			}
		}
		if !found {
			return f, fmt.Errorf("unknown debug flag %q", n)
		}
	}
	return f, nil
}

// CommonRenderState is the clear policy, target and debug configuration every stage carries.
type CommonRenderState struct {
	ClearMode  ClearMode
	ClearMask  gpu.ClearMask
	ClearColor common.Color
	ClearDepth float32
	// ClearImage is copied over the target in ClearModeImage.
	ClearImage gpu.Texture
	// Framebuffer is the stage's own target. nil falls back to the owner framebuffer.
	Framebuffer gpu.Framebuffer
	Debug       DebugFlags
	// DebugDir receives debug images. Empty means the working directory.
	DebugDir    string
	RenderOrder int
}

// DefaultRenderState clears color and depth to opaque black and far depth.
func DefaultRenderState() CommonRenderState {
	return CommonRenderState{
		ClearMode:  ClearModeColor,
		ClearMask:  gpu.ClearAll,
		ClearColor: common.Black,
		ClearDepth: 1,
	}
}
