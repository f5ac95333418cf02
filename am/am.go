package am

// Config represents the core wander configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Physics  PhysicsConfig  `mapstructure:"physics"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Feed     FeedConfig     `mapstructure:"feed"`
}

// ServerConfig configures the wander web server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`           // Server port: 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogTheme       string   `mapstructure:"log_theme"`      // Color theme: gruvbox, everforest
	MaxClients     int      `mapstructure:"max_clients"`    // 0 = unlimited
	BroadcastFPS   int      `mapstructure:"broadcast_fps"`  // Frame send rate cap per client, 0 = uncapped
}

// Server port constants
const (
	DefaultServerPort  = 8777 // Development port (above privileged range)
	FallbackServerPort = 7878 // Start of the fallback scan when the default is taken
)

// EngineConfig configures the frame engine
type EngineConfig struct {
	FPS                   int `mapstructure:"fps"`                     // Tick rate (default: 60); 0 = no automatic ticking (manual stepping)
	InputBuffer           int `mapstructure:"input_buffer"`            // Pending-input channel capacity (default: 256)
	StatusIntervalSeconds int `mapstructure:"status_interval_seconds"` // Engine status broadcast cadence (default: 5); 0 = disabled
}

// PhysicsConfig tunes the per-tick simulation. All values are hot-swappable
// via config reload or the tune message.
type PhysicsConfig struct {
	Damping          float64 `mapstructure:"damping"`           // Velocity multiplier applied every tick (default: 0.5)
	RestingThreshold float64 `mapstructure:"resting_threshold"` // Speed below which a node counts as resting (default: 0.1)
	CollisionPadding float64 `mapstructure:"collision_padding"` // Extra separation beyond summed radii (default: 2)
	SpringLength     float64 `mapstructure:"spring_length"`     // Natural link length (default: 110)
	SpringK          float64 `mapstructure:"spring_k"`          // Hooke constant for link springs (default: 0.02)
	AngularStrength  float64 `mapstructure:"angular_strength"`  // Angular restoring force scale (default: 0.012)
	AngularClamp     float64 `mapstructure:"angular_clamp"`     // Max angular force magnitude (default: 0.35)
	WindAmplitude    float64 `mapstructure:"wind_amplitude"`    // Ambient sway force scale (default: 0.9)
	SettledDamping   float64 `mapstructure:"settled_damping"`   // Extra damping while the tree is settled (default: 0.88)
}

// ViewportConfig tunes framing and transitions
type ViewportConfig struct {
	MinZoom         float64 `mapstructure:"min_zoom"`          // Lower scale clamp (default: 0.2)
	MaxZoom         float64 `mapstructure:"max_zoom"`          // Upper scale clamp (default: 2.5)
	EdgeLength      float64 `mapstructure:"edge_length"`       // Estimated tree height per depth level (default: 120)
	FitPadding      float64 `mapstructure:"fit_padding"`       // Vertical padding used by depth fitting (default: 80)
	GlideDurationMS int     `mapstructure:"glide_duration_ms"` // Eased pan duration (default: 750); 0 = jump instantly
	GlideDelayMS    int     `mapstructure:"glide_delay_ms"`    // Default delay before auto-glide (default: 1000)
	Width           float64 `mapstructure:"width"`             // Logical viewport width (default: 1280)
	Height          float64 `mapstructure:"height"`            // Logical viewport height (default: 800)
}

// FeedConfig configures scenario replay
type FeedConfig struct {
	DefaultDelayMS int    `mapstructure:"default_delay_ms"` // Delay between steps without an explicit one (default: 600)
	ScenarioDir    string `mapstructure:"scenario_dir"`     // Where `wander play <name>` resolves scenario files (default: "scenarios")
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
