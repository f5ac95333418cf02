// Package physics advances a trail one tick at a time. The simulation runs in
// two phases: integration and collision keep every node separated on every
// tick, while springs, angular restoration, and wind only engage once the
// whole trail has come to rest. Step is a pure function of the node set, the
// tuning, and the supplied clock; it owns no goroutines and keeps no state
// beyond the tuning.
package physics

import (
	"math"
	"time"

	"github.com/teranos/wander/internal/util"
	"github.com/teranos/wander/trail"
)

// nearZero is the length below which an edge has no usable direction.
const nearZero = 1e-6

// Engine applies forces to the nodes of a store. It is not safe for
// concurrent use; the tick loop owns it.
type Engine struct {
	tuning Tuning
}

// New returns an engine with the given tuning.
func New(t Tuning) *Engine {
	return &Engine{tuning: t}
}

// Tuning returns the active coefficients.
func (e *Engine) Tuning() Tuning {
	return e.tuning
}

// SetTuning replaces the coefficients. Takes effect on the next Step.
func (e *Engine) SetTuning(t Tuning) {
	e.tuning = t
}

// Step advances the simulation one tick and reports whether every non-root
// node finished the tick resting. now feeds the wind function; passing the
// same instant twice reproduces the same forces.
func (e *Engine) Step(s *trail.Store, now time.Time) bool {
	nodes := s.Nodes()
	if len(nodes) == 0 {
		return true
	}
	t := e.tuning

	// Phase 1: integrate, damp, and derive the resting flag. The root is an
	// immovable anchor and never integrates.
	allResting := true
	for _, n := range nodes {
		if n.Parent == trail.NoNode {
			continue
		}
		n.Pos = n.Pos.Add(n.Vel)
		n.Vel = n.Vel.Scale(t.Damping)
		n.Resting = n.Vel.Len() < t.RestingThreshold
		if !n.Resting {
			allResting = false
		}
	}

	// Collision runs every tick over all unordered pairs, the root included.
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			separate(nodes[i], nodes[j], t.CollisionPadding)
		}
	}

	if !allResting {
		return false
	}

	// Phase 2: springs, angle capture, angular restoration, wind. Only runs
	// while the whole trail rests, so a gust that wakes a node pauses the
	// sway until it settles again.
	links := s.Links()
	total := len(links)
	for i, l := range links {
		src := s.Node(l.Source)
		tgt := s.Node(l.Target)
		d := tgt.Pos.Sub(src.Pos)
		length := d.Len()

		if length > nearZero {
			// Hooke spring toward the fixed rest length.
			stretch := length - t.SpringLength
			f := d.Scale(t.SpringK * stretch / length)
			nudge(src, f)
			nudge(tgt, f.Scale(-1))

			// A link learns its orientation exactly once, the first time both
			// endpoints rest. The angle never updates afterwards.
			if l.InitialAngle == nil && src.Resting && tgt.Resting {
				angle := math.Atan2(d.Y, d.X)
				l.InitialAngle = &angle
			}

			if l.InitialAngle != nil {
				dev := normalizeAngle(math.Atan2(d.Y, d.X) - *l.InitialAngle)
				dev = util.Clamp(dev, -t.AngularClamp, t.AngularClamp)
				// Perpendicular torque couple rotating the edge back toward
				// its captured orientation.
				perp := trail.Vec2{X: -d.Y / length, Y: d.X / length}
				mag := dev * t.AngularStrength * length
				nudge(tgt, perp.Scale(-mag))
				nudge(src, perp.Scale(mag))
			}
		}

		// Wind pushes each link's child endpoint sideways. Later links carry
		// cubically more of the gust, so the outermost leaves sway hardest.
		if t.WindAmplitude != 0 && total > 0 {
			weight := math.Pow(float64(i+1), 3) / float64(total)
			nudge(tgt, trail.Vec2{X: t.WindAmplitude * gust(now) * weight})
		}

		src.Vel = src.Vel.Scale(t.SettledDamping)
		tgt.Vel = tgt.Vel.Scale(t.SettledDamping)
	}
	return true
}

// separate pushes an overlapping pair apart along their center line, half the
// overlap each. Coincident centers have no direction and are skipped.
func separate(a, b *trail.Node, padding float64) {
	d := b.Pos.Sub(a.Pos)
	dist := d.Len()
	minDist := a.Radius + b.Radius + padding
	if dist >= minDist || dist < nearZero {
		return
	}
	shift := d.Scale((minDist - dist) / 2 / dist)
	a.Pos = a.Pos.Sub(shift)
	b.Pos = b.Pos.Add(shift)
}

// nudge adds a force to a node's velocity. The root is an immovable anchor;
// forces on it are discarded so its velocity stays zero.
func nudge(n *trail.Node, f trail.Vec2) {
	if n.Parent == trail.NoNode {
		return
	}
	n.Vel = n.Vel.Add(f)
}

// gust is the shared wind signal: summed sines of differing period and phase
// over wall-clock seconds, roughly in [-1.9, 1.9].
func gust(now time.Time) float64 {
	sec := float64(now.UnixNano()) / float64(time.Second)
	return math.Sin(sec*0.9+1.3) + 0.6*math.Sin(sec*1.7+4.1) + 0.3*math.Sin(sec*2.9+0.7)
}

// normalizeAngle wraps a into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
