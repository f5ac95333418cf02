package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.log_theme", "everforest")
	v.SetDefault("server.max_clients", 32)
	v.SetDefault("server.broadcast_fps", 30)

	// Engine defaults
	v.SetDefault("engine.fps", 60)
	v.SetDefault("engine.input_buffer", 256)
	v.SetDefault("engine.status_interval_seconds", 5)

	// Physics defaults
	v.SetDefault("physics.damping", 0.5)
	v.SetDefault("physics.resting_threshold", 0.1)
	v.SetDefault("physics.collision_padding", 2.0)
	v.SetDefault("physics.spring_length", 110.0)
	v.SetDefault("physics.spring_k", 0.02)
	v.SetDefault("physics.angular_strength", 0.012)
	v.SetDefault("physics.angular_clamp", 0.35)
	v.SetDefault("physics.wind_amplitude", 0.9)
	v.SetDefault("physics.settled_damping", 0.88)

	// Viewport defaults
	v.SetDefault("viewport.min_zoom", 0.2)
	v.SetDefault("viewport.max_zoom", 2.5)
	v.SetDefault("viewport.edge_length", 120.0)
	v.SetDefault("viewport.fit_padding", 80.0)
	v.SetDefault("viewport.glide_duration_ms", 750)
	v.SetDefault("viewport.glide_delay_ms", 1000)
	v.SetDefault("viewport.width", 1280.0)
	v.SetDefault("viewport.height", 800.0)

	// Feed defaults
	v.SetDefault("feed.default_delay_ms", 600)
	v.SetDefault("feed.scenario_dir", "scenarios")
}

// BindEnvVars explicitly binds operational overrides to environment variables.
// AutomaticEnv covers the rest via the WANDER_ prefix; these are the keys
// whose nested underscores would otherwise be ambiguous.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "WANDER_SERVER_PORT")
	v.BindEnv("server.log_theme", "WANDER_LOG_THEME")
	v.BindEnv("feed.scenario_dir", "WANDER_FEED_SCENARIO_DIR")
}

// GetServerPort returns the configured wander server port
// Returns server.port from config, or DefaultServerPort if not configured
func GetServerPort() int {
	cfg, err := Load()
	if err != nil || cfg.Server.Port == 0 {
		return DefaultServerPort
	}
	return cfg.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// GetServerLogTheme returns the log theme (default: everforest)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return "everforest"
	}
	return c.Server.LogTheme
}

// TickInterval returns the engine tick interval derived from engine.fps.
// Zero FPS means no automatic ticking and yields a zero interval.
func (c *Config) TickInterval() time.Duration {
	if c.Engine.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Engine.FPS)
}

// GlideDuration returns the viewport transition duration
func (c *Config) GlideDuration() time.Duration {
	if c.Viewport.GlideDurationMS <= 0 {
		return 0
	}
	return time.Duration(c.Viewport.GlideDurationMS) * time.Millisecond
}

// GlideDelay returns the default delay before an auto-glide starts
func (c *Config) GlideDelay() time.Duration {
	if c.Viewport.GlideDelayMS <= 0 {
		return 0
	}
	return time.Duration(c.Viewport.GlideDelayMS) * time.Millisecond
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Port: %d, LogTheme: %s}, Engine: {FPS: %d}, Physics: {SpringLength: %.0f}}",
		c.Server.Port, c.Server.LogTheme, c.Engine.FPS, c.Physics.SpringLength)
}
