package engine

import (
	"github.com/teranos/wander/am"
	"github.com/teranos/wander/physics"
	"github.com/teranos/wander/viewport"
)

// PhysicsTuning maps am's physics section onto simulation coefficients.
func PhysicsTuning(cfg *am.Config) physics.Tuning {
	return physics.Tuning{
		Damping:          cfg.Physics.Damping,
		RestingThreshold: cfg.Physics.RestingThreshold,
		CollisionPadding: cfg.Physics.CollisionPadding,
		SpringLength:     cfg.Physics.SpringLength,
		SpringK:          cfg.Physics.SpringK,
		AngularStrength:  cfg.Physics.AngularStrength,
		AngularClamp:     cfg.Physics.AngularClamp,
		WindAmplitude:    cfg.Physics.WindAmplitude,
		SettledDamping:   cfg.Physics.SettledDamping,
	}
}

// ViewportConfig maps am's viewport section onto controller settings.
func ViewportConfig(cfg *am.Config) viewport.Config {
	return viewport.Config{
		Width:         cfg.Viewport.Width,
		Height:        cfg.Viewport.Height,
		MinZoom:       cfg.Viewport.MinZoom,
		MaxZoom:       cfg.Viewport.MaxZoom,
		EdgeLength:    cfg.Viewport.EdgeLength,
		FitPadding:    cfg.Viewport.FitPadding,
		GlideDuration: cfg.GlideDuration(),
		GlideDelay:    cfg.GlideDelay(),
	}
}

// TuneFromConfig builds the hot-retune input the am watcher feeds back into
// a running engine on config reload.
func TuneFromConfig(cfg *am.Config) TuneInput {
	return TuneInput{
		Physics:  PhysicsTuning(cfg),
		Viewport: ViewportConfig(cfg),
	}
}
