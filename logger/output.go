package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints, final status
//	1 (-v)      - + Progress, startup info, client status, operation summaries
//	2 (-vv)     - + Trail growth details, timing, config loaded, HTTP requests
//	3 (-vvv)    - + Physics detail, frame broadcasts, WS message flow
//	4 (-vvvv)   - + Full message bodies, snapshot dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Command output, scenario results
	OutputErrors                           // Errors with hints and resolution steps
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Progress indicators (e.g., "Replaying 50/100 visits")
	OutputStartup       // Startup banners, config summary
	OutputClientStatus  // Client connected/disconnected/evicted status
	OutputOperationInfo // High-level operation summaries

	// Level 2 (-vv) - Detailed
	OutputTrailGrowth // Visit ingestion and node attachment details
	OutputTiming      // Operation timing (e.g., "tick took 4ms")
	OutputConfig      // Config values loaded/applied
	OutputHTTPCalls   // HTTP API requests served
	OutputEngineStats // Engine tick/settle statistics

	// Level 3 (-vvv) - Debug
	OutputPhysics    // Per-tick physics pass detail
	OutputFrames     // Frame snapshot broadcast summaries
	OutputWSMessages // Inbound WebSocket message summaries
	OutputInternalOp // Internal operation flow (function entry/exit)

	// Level 4 (-vvvv) - Full dump
	OutputMessageBody // Full WebSocket message bodies
	OutputFrameBody   // Full frame snapshot contents
	OutputDataDump    // Full data structure contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	// Level 0 - Always shown
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	// Level 1 - Informational
	OutputProgress:      VerbosityInfo,
	OutputStartup:       VerbosityInfo,
	OutputClientStatus:  VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	// Level 2 - Detailed
	OutputTrailGrowth: VerbosityDebug,
	OutputTiming:      VerbosityDebug,
	OutputConfig:      VerbosityDebug,
	OutputHTTPCalls:   VerbosityDebug,
	OutputEngineStats: VerbosityDebug,

	// Level 3 - Debug
	OutputPhysics:    VerbosityTrace,
	OutputFrames:     VerbosityTrace,
	OutputWSMessages: VerbosityTrace,
	OutputInternalOp: VerbosityTrace,

	// Level 4 - Full dump
	OutputMessageBody: VerbosityAll,
	OutputFrameBody:   VerbosityAll,
	OutputDataDump:    VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:       "results",
	OutputErrors:        "errors",
	OutputUserStatus:    "status",
	OutputProgress:      "progress",
	OutputStartup:       "startup",
	OutputClientStatus:  "client-status",
	OutputOperationInfo: "operation-info",
	OutputTrailGrowth:   "trail-growth",
	OutputTiming:        "timing",
	OutputConfig:        "config",
	OutputHTTPCalls:     "http",
	OutputEngineStats:   "engine-stats",
	OutputPhysics:       "physics",
	OutputFrames:        "frames",
	OutputWSMessages:    "ws-messages",
	OutputInternalOp:    "internal",
	OutputMessageBody:   "message-body",
	OutputFrameBody:     "frame-body",
	OutputDataDump:      "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// EnabledCategories returns all output categories enabled at the given verbosity
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for cat, minLevel := range categoryLevels {
		if verbosity >= minLevel {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, progress, and status"
	case VerbosityDebug:
		return "above + trail growth, timing, config details"
	case VerbosityTrace:
		return "above + physics detail, frames, WS messages"
	case VerbosityAll:
		return "full output including message bodies"
	default:
		if verbosity > VerbosityAll {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}
