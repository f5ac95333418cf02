// Package sym defines canonical symbols for wander subsystems and system markers.
// These symbols are stable across UI, CLI, and documentation.
package sym

// Subsystem glyphs — one per major engine surface. Each has a CLI-facing
// command or log component attached to it.
const (
	AM    = "≡" // am — configuration and system settings
	Trail = "⊶" // trail — tree growth and node attachment
	Sway  = "∿" // sway — physics pass: springs, angles, wind
	Lens  = "⊙" // lens — viewport transform and framing
	Feed  = "⨳" // feed — visit ingest and scenario replay
)

// System infrastructure symbols.
const (
	Pulse      = "꩜" // frame engine heartbeat
	PulseOpen  = "✿" // graceful startup
	PulseClose = "❀" // graceful shutdown with pending work cleared
	Store      = "⊔" // trail store, append-only arena
)

// entry binds a glyph to its command, label, and description.
type entry struct {
	glyph       string
	command     string
	label       string
	description string
}

// registry is the canonical mapping between glyphs and symbol metadata.
var registry = []entry{
	{AM, "am", "Configuration", "System settings and state"},
	{Trail, "trail", "Trail", "Visit tree growth and node attachment"},
	{Sway, "sway", "Sway", "Physics pass: springs, angles, wind"},
	{Lens, "lens", "Lens", "Viewport transform and framing"},
	{Feed, "feed", "Feed", "Visit ingest and scenario replay"},
	{Pulse, "", "Pulse", "Frame engine heartbeat"},
	{PulseOpen, "", "Startup", "Graceful startup"},
	{PulseClose, "", "Shutdown", "Graceful shutdown with pending work cleared"},
	{Store, "", "Store", "Trail store, append-only arena"},
}

// Lookup tables built from the registry at init time.
var (
	glyphToLabel map[string]string
)

func init() {
	glyphToLabel = make(map[string]string, len(registry))
	for _, e := range registry {
		glyphToLabel[e.glyph] = e.label
	}
}

// Label returns the human-readable label for a glyph, or "" if unknown.
func Label(glyph string) string {
	return glyphToLabel[glyph]
}

// Commands lists the text commands with a symbol attached, in palette order.
var Commands = []string{"am", "trail", "sway", "lens", "feed"}

// PaletteOrder defines the canonical glyph ordering for UI controls,
// shortcuts, and selection bars.
var PaletteOrder = []string{AM, Trail, Sway, Lens, Feed}

// SymbolToCommand maps glyph strings to their text command equivalents.
var SymbolToCommand = map[string]string{
	AM:    "am",
	Trail: "trail",
	Sway:  "sway",
	Lens:  "lens",
	Feed:  "feed",
}

// CommandToSymbol maps text commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"am":    AM,
	"trail": Trail,
	"sway":  Sway,
	"lens":  Lens,
	"feed":  Feed,
}

// CommandDescriptions provides human-readable explanations for tooltip hover states.
var CommandDescriptions = map[string]string{
	"am":    "Configuration — System settings and state",
	"trail": "Trail — Visit tree growth and node attachment",
	"sway":  "Sway — Physics pass: springs, angles, wind",
	"lens":  "Lens — Viewport transform and framing",
	"feed":  "Feed — Visit ingest and scenario replay",
}
