// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package advect

import (
	"math"

	"github.com/cpmech/gosl/rnd"
)

// emit pre-draws every particle's birth frame (seed 0, per §5/§9) and
// initial emission offset (seed 42), single-threaded and up front, so
// later per-particle work (sequential or parallel) never needs to agree
// on draw order. Offsets are sampled uniformly inside a disc of radius
// emit_radius in the plane perpendicular to gravity_dir.
func (a *Advector) emit(nParticles int) {
	maxBirth := int(math.Floor(0.75 * float64(a.Frames)))
	if maxBirth < 1 {
		maxBirth = 1
	}

	rnd.Init(0)
	births := make([]int, nParticles)
	for i := range births {
		births[i] = rnd.Int(0, maxBirth-1)
	}

	rnd.Init(42)
	a.particles = make([]Particle, nParticles)
	for i := range a.particles {
		p := &a.particles[i]
		p.BirthFrame = births[i]
		p.Age = 0
		offset := a.sampleDiscOffset()
		p.Pos = add3(a.SourcePointMM, offset)
		p.Vel = scale3(a.GravityDir, a.K.EmitSpeed)
	}
}

// sampleDiscOffset draws a uniform point inside a disc of radius
// emit_radius in the plane spanned by the advector's stable orthonormal
// basis (perpendicular to gravity_dir), using the emission-geometry RNG
// stream (must already be positioned correctly by the caller).
func (a *Advector) sampleDiscOffset() [3]float64 {
	r := a.K.EmitRadius * math.Sqrt(rnd.Float64(0, 1))
	theta := rnd.Float64(0, 2*math.Pi)
	u := scale3(a.basisU, r*math.Cos(theta))
	v := scale3(a.basisV, r*math.Sin(theta))
	return add3(u, v)
}

// respawn resets p to a new source emission: fresh random offset,
// reset velocity, age zero, drawn from the still-running seed-42 stream
// so the full sequence of offset draws across a run (initial emission
// plus every later respawn) stays reproducible.
func (a *Advector) respawn(p *Particle) {
	offset := a.sampleDiscOffset()
	p.Pos = add3(a.SourcePointMM, offset)
	p.Vel = scale3(a.GravityDir, a.K.EmitSpeed)
	p.Age = 0
}
