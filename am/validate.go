package am

import "github.com/teranos/wander/errors"

// Validate checks that the configuration is valid.
// Zero means zero: values where 0 is a meaningful state (disabled, uncapped)
// accept it; values where 0 can only be a mistake reject it.
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}

	// Max clients: 0 = unlimited, negative = invalid
	if c.Server.MaxClients < 0 {
		return errors.Newf("server.max_clients must be >= 0, got %d", c.Server.MaxClients)
	}

	// Broadcast rate: 0 = uncapped, negative = invalid
	if c.Server.BroadcastFPS < 0 {
		return errors.Newf("server.broadcast_fps must be >= 0, got %d", c.Server.BroadcastFPS)
	}

	// Engine FPS: 0 = no automatic ticking (manual stepping), negative = invalid
	if c.Engine.FPS < 0 {
		return errors.Newf("engine.fps must be >= 0, got %d", c.Engine.FPS)
	}

	// Input buffer: 0 = unbuffered, negative = invalid
	if c.Engine.InputBuffer < 0 {
		return errors.Newf("engine.input_buffer must be >= 0, got %d", c.Engine.InputBuffer)
	}

	// Status interval: 0 = disabled, negative = invalid
	if c.Engine.StatusIntervalSeconds < 0 {
		return errors.Newf("engine.status_interval_seconds must be >= 0, got %d", c.Engine.StatusIntervalSeconds)
	}

	// Damping factors multiply velocities every tick and must stay in [0, 1]
	if c.Physics.Damping < 0 || c.Physics.Damping > 1 {
		return errors.Newf("physics.damping must be in [0, 1], got %f", c.Physics.Damping)
	}
	if c.Physics.SettledDamping < 0 || c.Physics.SettledDamping > 1 {
		return errors.Newf("physics.settled_damping must be in [0, 1], got %f", c.Physics.SettledDamping)
	}

	// Force scales: 0 = force disabled, negative = invalid
	if c.Physics.RestingThreshold < 0 {
		return errors.Newf("physics.resting_threshold must be >= 0, got %f", c.Physics.RestingThreshold)
	}
	if c.Physics.CollisionPadding < 0 {
		return errors.Newf("physics.collision_padding must be >= 0, got %f", c.Physics.CollisionPadding)
	}
	if c.Physics.SpringLength < 0 {
		return errors.Newf("physics.spring_length must be >= 0, got %f", c.Physics.SpringLength)
	}
	if c.Physics.SpringK < 0 {
		return errors.Newf("physics.spring_k must be >= 0, got %f", c.Physics.SpringK)
	}
	if c.Physics.AngularStrength < 0 {
		return errors.Newf("physics.angular_strength must be >= 0, got %f", c.Physics.AngularStrength)
	}
	if c.Physics.AngularClamp < 0 {
		return errors.Newf("physics.angular_clamp must be >= 0, got %f", c.Physics.AngularClamp)
	}
	if c.Physics.WindAmplitude < 0 {
		return errors.Newf("physics.wind_amplitude must be >= 0, got %f", c.Physics.WindAmplitude)
	}

	// Zoom bounds must form a positive, ordered range
	if c.Viewport.MinZoom <= 0 {
		return errors.Newf("viewport.min_zoom must be > 0, got %f", c.Viewport.MinZoom)
	}
	if c.Viewport.MaxZoom < c.Viewport.MinZoom {
		return errors.Newf("viewport.max_zoom must be >= min_zoom (%f), got %f", c.Viewport.MinZoom, c.Viewport.MaxZoom)
	}

	// Depth fitting divides by edge length
	if c.Viewport.EdgeLength <= 0 {
		return errors.Newf("viewport.edge_length must be > 0, got %f", c.Viewport.EdgeLength)
	}
	if c.Viewport.FitPadding < 0 {
		return errors.Newf("viewport.fit_padding must be >= 0, got %f", c.Viewport.FitPadding)
	}

	// Transition timing: 0 = jump instantly / start immediately, negative = invalid
	if c.Viewport.GlideDurationMS < 0 {
		return errors.Newf("viewport.glide_duration_ms must be >= 0, got %d", c.Viewport.GlideDurationMS)
	}
	if c.Viewport.GlideDelayMS < 0 {
		return errors.Newf("viewport.glide_delay_ms must be >= 0, got %d", c.Viewport.GlideDelayMS)
	}

	// Viewport dimensions feed centering math
	if c.Viewport.Width <= 0 {
		return errors.Newf("viewport.width must be > 0, got %f", c.Viewport.Width)
	}
	if c.Viewport.Height <= 0 {
		return errors.Newf("viewport.height must be > 0, got %f", c.Viewport.Height)
	}

	// Feed step delay: 0 = replay as fast as possible, negative = invalid
	if c.Feed.DefaultDelayMS < 0 {
		return errors.Newf("feed.default_delay_ms must be >= 0, got %d", c.Feed.DefaultDelayMS)
	}

	return nil
}
