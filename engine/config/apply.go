package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect"
	"github.com/Carmen-Shannon/oxy-fx/engine/partition"
	"github.com/Carmen-Shannon/oxy-fx/engine/peel"
	"github.com/Carmen-Shannon/oxy-fx/engine/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/shadow"
)

// ApplyChain enables and disables the configured effects of c. Effects the
// chain does not hold are reported and skipped.
//
// Parameters:
//   - c: the effect chain
//
// Returns:
//   - error: the joined errors of unknown effects
func (s *Settings) ApplyChain(c effect.Chain) error {
	var errs []error
	for _, e := range s.Effects {
		if _, ok := c.Effect(e.Name); !ok {
			common.Logger().Warn("configured effect not in chain", "effect", e.Name)
			errs = append(errs, fmt.Errorf("%w: effect %q not in chain", ErrInvalid, e.Name))
			continue
		}
		if c.Enabled(e.Name) == e.Enabled {
			continue
		}
		if e.Enabled {
			c.Enable(e.Name)
		} else {
			c.Disable(e.Name)
		}
	}
	return errors.Join(errs...)
}

// ApplyPartition sets the configured ratio and count on n.
func (s *Settings) ApplyPartition(n partition.Node) {
	if r := s.Partition.Ratio; r != nil {
		n.SetRatio(*r)
	}
	if c := s.Partition.Count; c != nil {
		n.SetCount(*c)
	}
}

// PeelStageOptions returns the peel stage options for new peel nodes.
func (s *Settings) PeelStageOptions() []peel.StageBuilderOption {
	var opts []peel.StageBuilderOption
	p := s.Peel
	if p.MinLayers > 0 || p.MaxLayers > 0 {
		minLayers, maxLayers := common.Coalesce(p.MinLayers, peel.DefaultMinLayers), common.Coalesce(p.MaxLayers, peel.DefaultMaxLayers)
		opts = append(opts, peel.WithLayerRange(minLayers, maxLayers))
	}
	if p.InitialLayers > 0 {
		opts = append(opts, peel.WithInitialLayers(p.InitialLayers))
	}
	if p.DepthOffset != nil {
		opts = append(opts, peel.WithDepthOffset(*p.DepthOffset))
	}
	return opts
}

// ApplyPeel turns n on or off when configured.
func (s *Settings) ApplyPeel(n peel.Node) {
	if e := s.Peel.Enabled; e != nil && *e != n.Enabled() {
		if *e {
			n.Enable()
		} else {
			n.Disable()
		}
	}
}

// ApplyShadows sets the configured enable flag and resolution of each light
// registered with c, matched by light name.
//
// Parameters:
//   - c: the shadow controller
//
// Returns:
//   - error: the joined errors of lights c does not hold
func (s *Settings) ApplyShadows(c shadow.Controller) error {
	var errs []error
	entries := c.Entries()
	for _, cfg := range s.Shadows {
		var found *shadow.Entry
		for _, e := range entries {
			if e.Light().Name() == cfg.Light {
				found = e
				break
			}
		}
		if found == nil {
			common.Logger().Warn("configured shadow light not registered", "light", cfg.Light)
			errs = append(errs, fmt.Errorf("%w: shadow light %q not registered", ErrInvalid, cfg.Light))
			continue
		}
		if cfg.Enabled != nil && *cfg.Enabled != found.Enabled() {
			c.SetEnabled(found.Light(), *cfg.Enabled)
		}
		if cfg.Resolution > 0 {
			found.SetResolution(cfg.Resolution)
		}
	}
	return errors.Join(errs...)
}

// ShaderOptions returns the provider options of the shaders section.
func (s *Settings) ShaderOptions() []shader.ProviderBuilderOption {
	var opts []shader.ProviderBuilderOption
	if s.Shaders.Dir != "" {
		opts = append(opts, shader.WithDirectory(s.Shaders.Dir))
	}
	if s.Shaders.Validate != nil {
		opts = append(opts, shader.WithValidation(*s.Shaders.Validate))
	}
	if s.Shaders.Verbose {
		opts = append(opts, shader.WithVerbose(true))
	}
	return opts
}

// NewShaderProvider creates a provider from the shaders section and, when
// watching is configured, starts a watcher that invalidates changed programs.
//
// Parameters:
//   - ctx: bounds the watcher
//   - extra: provider options applied after the configured ones
//
// Returns:
//   - shader.Provider: the provider
//   - *shader.Watcher: the running watcher, or nil when not watching
//   - error: an error if the directory cannot be watched
func (s *Settings) NewShaderProvider(ctx context.Context, extra ...shader.ProviderBuilderOption) (shader.Provider, *shader.Watcher, error) {
	p := shader.NewProvider(append(s.ShaderOptions(), extra...)...)
	if !s.Shaders.Watch {
		return p, nil, nil
	}
	w, err := shader.Watch(ctx, p, nil)
	if err != nil {
		return p, nil, fmt.Errorf("failed to watch shaders: %w", err)
	}
	return p, w, nil
}
