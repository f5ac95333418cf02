package physics

// Tuning holds the force coefficients for one simulation. Every value is
// hot-swappable between ticks; the engine applies a replacement Tuning at
// tick boundaries only.
type Tuning struct {
	// Damping multiplies every non-root velocity each tick
	Damping float64
	// RestingThreshold is the speed below which a node counts as resting
	RestingThreshold float64
	// CollisionPadding is the extra gap kept between node extents
	CollisionPadding float64
	// SpringLength is the edge length the Hooke term restores toward
	SpringLength float64
	// SpringK is the Hooke proportionality constant
	SpringK float64
	// AngularStrength scales the restoring force toward a link's captured angle
	AngularStrength float64
	// AngularClamp bounds the angular deviation fed into the restoring force
	AngularClamp float64
	// WindAmplitude scales the deterministic sway; 0 turns wind off
	WindAmplitude float64
	// SettledDamping is the extra per-link damping applied after wind
	SettledDamping float64
}

// DefaultTuning mirrors the shipped am defaults.
func DefaultTuning() Tuning {
	return Tuning{
		Damping:          0.5,
		RestingThreshold: 0.1,
		CollisionPadding: 2.0,
		SpringLength:     110.0,
		SpringK:          0.02,
		AngularStrength:  0.012,
		AngularClamp:     0.35,
		WindAmplitude:    0.9,
		SettledDamping:   0.88,
	}
}
