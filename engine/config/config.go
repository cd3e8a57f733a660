// Package config loads application-level render knobs from YAML and applies
// them to the effect, partition, peel and shadow components.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/partition"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation error returned by Parse and the Apply methods.
var ErrInvalid = errors.New("config: invalid setting")

// Settings is the root of a configuration file.
type Settings struct {
	Log       LogSettings       `yaml:"log"`
	Render    RenderSettings    `yaml:"render"`
	Effects   []EffectSettings  `yaml:"effects"`
	Partition PartitionSettings `yaml:"partition"`
	Peel      PeelSettings      `yaml:"peel"`
	Shadows   []ShadowSettings  `yaml:"shadows"`
	Shaders   ShaderSettings    `yaml:"shaders"`
	Frame     FrameSettings     `yaml:"frame"`
}

// LogSettings selects the slog level and format installed by ApplyLogging.
type LogSettings struct {
	// Level is debug, info, warn or error. Empty disables logging.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// RenderSettings is the stage clear and debug configuration.
type RenderSettings struct {
	ClearMode   string    `yaml:"clear_mode"`
	ClearMask   []string  `yaml:"clear_mask"`
	ClearColor  []float32 `yaml:"clear_color"`
	ClearDepth  *float32  `yaml:"clear_depth"`
	Debug       []string  `yaml:"debug"`
	DebugDir    string    `yaml:"debug_dir"`
	RenderOrder int       `yaml:"render_order"`
}

// EffectSettings turns one named effect of a chain on or off.
type EffectSettings struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// PartitionSettings configures depth partitioning. Nil fields keep the component's value.
type PartitionSettings struct {
	Ratio *float32 `yaml:"ratio"`
	Count *int     `yaml:"count"`
}

// PeelSettings configures depth peeling. Nil fields keep the component's value.
type PeelSettings struct {
	Enabled       *bool    `yaml:"enabled"`
	MinLayers     int      `yaml:"min_layers"`
	MaxLayers     int      `yaml:"max_layers"`
	InitialLayers int      `yaml:"initial_layers"`
	DepthOffset   *float32 `yaml:"depth_offset"`
}

// ShadowSettings configures the shadow pass of the light with the given name.
type ShadowSettings struct {
	Light      string `yaml:"light"`
	Enabled    *bool  `yaml:"enabled"`
	Resolution int    `yaml:"resolution"`
}

// ShaderSettings configures shader provisioning.
type ShaderSettings struct {
	Dir      string `yaml:"dir"`
	Validate *bool  `yaml:"validate"`
	Watch    bool   `yaml:"watch"`
	Verbose  bool   `yaml:"verbose"`
}

// FrameSettings configures the frame driver.
type FrameSettings struct {
	// Workers is the number of render-preparation workers. 0 uses one per viewer.
	Workers int `yaml:"workers"`
}

// Load reads and parses a configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *Settings: the parsed settings
//   - error: a read, decode or validation error
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML settings. Unknown keys are rejected.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Settings: the parsed settings
//   - error: a decode or validation error
func Parse(data []byte) (*Settings, error) {
	s := &Settings{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every setting that can be checked without the components.
func (s *Settings) Validate() error {
	var errs []error
	if _, err := s.RenderState(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(s.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, s.Log.Format))
	}
	if p := s.Partition; p.Count != nil && (*p.Count < 0 || *p.Count > partition.MaxPartitions) {
		errs = append(errs, fmt.Errorf("%w: partition count %d outside [0, %d]", ErrInvalid, *p.Count, partition.MaxPartitions))
	}
	if p := s.Partition; p.Ratio != nil && (*p.Ratio <= 0 || *p.Ratio >= 1) {
		errs = append(errs, fmt.Errorf("%w: partition ratio %g outside (0, 1)", ErrInvalid, *p.Ratio))
	}
	if p := s.Peel; p.MinLayers < 0 || p.MaxLayers < 0 || (p.MaxLayers > 0 && p.MinLayers > p.MaxLayers) {
		errs = append(errs, fmt.Errorf("%w: peel layers [%d, %d]", ErrInvalid, p.MinLayers, p.MaxLayers))
	}
	seen := make(map[string]bool)
	for _, e := range s.Effects {
		if e.Name == "" || seen[e.Name] {
			errs = append(errs, fmt.Errorf("%w: effect name %q missing or repeated", ErrInvalid, e.Name))
		}
		seen[e.Name] = true
	}
	for _, sh := range s.Shadows {
		if sh.Light == "" || sh.Resolution < 0 {
			errs = append(errs, fmt.Errorf("%w: shadow entry %q", ErrInvalid, sh.Light))
		}
	}
	if s.Frame.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: frame workers %d", ErrInvalid, s.Frame.Workers))
	}
	return errors.Join(errs...)
}

// RenderState converts the render section to a stage configuration, starting
// from stage.DefaultRenderState.
//
// Returns:
//   - stage.CommonRenderState: the configuration
//   - error: an unknown clear mode, mask or debug flag, or a malformed color
func (s *Settings) RenderState() (stage.CommonRenderState, error) {
	st := stage.DefaultRenderState()
	r := s.Render

	mode, err := stage.ParseClearMode(r.ClearMode)
	if err != nil {
		return st, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	st.ClearMode = mode

	if r.ClearMask != nil {
		mask, err := parseClearMask(r.ClearMask)
		if err != nil {
			return st, err
		}
		st.ClearMask = mask
	}

	switch len(r.ClearColor) {
	case 0:
	case 3:
		st.ClearColor = common.Color{r.ClearColor[0], r.ClearColor[1], r.ClearColor[2], 1}
	case 4:
		st.ClearColor = common.Color{r.ClearColor[0], r.ClearColor[1], r.ClearColor[2], r.ClearColor[3]}
	default:
		return st, fmt.Errorf("%w: clear color needs 3 or 4 components, got %d", ErrInvalid, len(r.ClearColor))
	}
	if r.ClearDepth != nil {
		st.ClearDepth = *r.ClearDepth
	}

	debug, err := stage.ParseDebugFlags(r.Debug)
	if err != nil {
		return st, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	st.Debug = debug
	st.DebugDir = r.DebugDir
	st.RenderOrder = r.RenderOrder
	return st, nil
}

func parseClearMask(names []string) (gpu.ClearMask, error) {
	var mask gpu.ClearMask
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "color":
			mask |= gpu.ClearColor
		case "depth":
			mask |= gpu.ClearDepth
		case "all":
			mask |= gpu.ClearAll
		default:
			return 0, fmt.Errorf("%w: clear mask %q", ErrInvalid, n)
		}
	}
	return mask, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return l, nil
}

// ApplyLogging installs a slog logger writing to w with the configured level
// and format. An empty level leaves the current logger in place.
func (s *Settings) ApplyLogging(w io.Writer) error {
	if s.Log.Level == "" {
		return nil
	}
	level, err := parseLevel(s.Log.Level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(s.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	common.SetLogger(slog.New(h))
	return nil
}
