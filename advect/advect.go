// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package advect steps tracer particles through a velocity field with
// gravity, SDF collision/sliding, lifetime/decay, and respawn, per spec
// §4.5. A deterministic two-stream RNG (seed 42 for emission geometry,
// seed 0 for birth-frame draws) guarantees identical trajectories across
// runs with identical inputs.
package advect

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/flowtracer/interp"
)

// Particle is the per-particle, per-frame state of §3.
type Particle struct {
	Pos        [3]float64
	Vel        [3]float64
	Age        int
	BirthFrame int
}

// Constants derives all of §4.5's "Derived constants" from a single cell
// size and frame count.
type Constants struct {
	DxMM                float64
	EmitRadius          float64
	EmitSpeed           float64
	VelocityScale       float64
	GravityAccel        float64
	TerminalSpeedAlongG float64
	SurfaceThickness    float64
	SurfaceAttract      float64
	DecayDistance       float64
	ParticleLifetime    int
	RespawnAge          int
	OverallSpeedCap     float64
}

// DeriveConstants computes §4.5's derived constants from the average
// cell size and the frame count.
func DeriveConstants(dxMM float64, frames int) Constants {
	lifetime := int(math.Floor(1.5 * float64(frames)))
	return Constants{
		DxMM:                dxMM,
		EmitRadius:          math.Max(8, 4*dxMM),
		EmitSpeed:           2 * dxMM,
		VelocityScale:       150 * dxMM,
		GravityAccel:        5 * dxMM,
		TerminalSpeedAlongG: 15 * dxMM,
		SurfaceThickness:    4 * dxMM,
		SurfaceAttract:      0.5 * dxMM,
		DecayDistance:       25 * dxMM,
		ParticleLifetime:    lifetime,
		RespawnAge:          2 * lifetime,
		OverallSpeedCap:     20 * dxMM,
	}
}

// Advector owns the fields and constants needed to step a population of
// particles, per §4.5.
type Advector struct {
	Grid             interp.Grid
	Ux, Uy, Uz       []float32
	SDF              []float32
	Bounds           [6]float64
	SourcePointMM    [3]float64
	GravityDir       [3]float64
	Frames           int
	K                Constants
	basisU, basisV   [3]float64 // stable orthonormal basis perpendicular to gravity
	particles        []Particle
	collisions       int
	decayed          int
}

// New builds an Advector over the given fields. nParticles birth frames
// and emission offsets are pre-drawn up front, single-threaded, into
// per-particle slices (per §5's ordering-reproducibility requirement),
// using two independently seeded RNG streams.
func New(grid interp.Grid, ux, uy, uz, sdf []float32, bounds [6]float64, source [3]float64, gravityDir [3]float64, nParticles, frames int) *Advector {
	dxMM := (meanSpacing(grid.X) + meanSpacing(grid.Y) + meanSpacing(grid.Z)) / 3.0
	a := &Advector{
		Grid: grid, Ux: ux, Uy: uy, Uz: uz, SDF: sdf,
		Bounds: bounds, SourcePointMM: source, GravityDir: gravityDir,
		Frames: frames, K: DeriveConstants(dxMM, frames),
	}
	a.basisU, a.basisV = stableOrthonormalBasis(gravityDir)
	a.emit(nParticles)
	return a
}

func meanSpacing(axis []float64) float64 {
	if len(axis) < 2 {
		return 1
	}
	return (axis[len(axis)-1] - axis[0]) / float64(len(axis)-1)
}

// stableOrthonormalBasis builds two unit vectors u,v perpendicular to
// gravityDir and to each other, grounded on the teacher's utl.Cross3d
// successive-cross-product local-frame idiom (ele/solid/beam.go).
func stableOrthonormalBasis(g [3]float64) (u, v [3]float64) {
	ref := [3]float64{1, 0, 0}
	if math.Abs(g[0]) > 0.9 {
		ref = [3]float64{0, 1, 0}
	}
	uSlice := make([]float64, 3)
	utl.Cross3d(uSlice, g[:], ref[:])
	n := la.VecNorm(uSlice)
	if n < 1e-12 {
		uSlice = []float64{0, 1, 0}
		n = 1
	}
	u = [3]float64{uSlice[0] / n, uSlice[1] / n, uSlice[2] / n}
	vSlice := make([]float64, 3)
	utl.Cross3d(vSlice, g[:], u[:])
	v = [3]float64{vSlice[0], vSlice[1], vSlice[2]}
	return u, v
}

// Particles exposes the current particle slice, primarily for tests.
func (a *Advector) Particles() []Particle { return a.particles }

// Collisions returns the running count of solid-tunneling events (§4.5
// step 6), used by the "blocked outlet" end-to-end scenario (§8).
func (a *Advector) Collisions() int { return a.collisions }

// Decayed returns the running count of particles respawned by the
// decay-distance branch of the respawn policy.
func (a *Advector) Decayed() int { return a.decayed }

func (a *Advector) sampleSDF(p [3]float64) float64 {
	return a.Grid.Sample(a.SDF, p, -100)
}

func (a *Advector) sampleVelocity(p [3]float64) [3]float64 {
	return [3]float64{
		a.Grid.Sample(a.Ux, p, 0),
		a.Grid.Sample(a.Uy, p, 0),
		a.Grid.Sample(a.Uz, p, 0),
	}
}

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func norm3(a [3]float64) float64   { return math.Sqrt(dot3(a, a)) }

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}
func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// surfaceNormal estimates the SDF gradient at p via central differences
// with step 0.5*dx_mm, falling back to -gravity_dir when the gradient is
// near zero, per §4.5 step 5a.
func (a *Advector) surfaceNormal(p [3]float64) [3]float64 {
	h := 0.5 * a.K.DxMM
	gx := a.sampleSDF([3]float64{p[0] + h, p[1], p[2]}) - a.sampleSDF([3]float64{p[0] - h, p[1], p[2]})
	gy := a.sampleSDF([3]float64{p[0], p[1] + h, p[2]}) - a.sampleSDF([3]float64{p[0], p[1] - h, p[2]})
	gz := a.sampleSDF([3]float64{p[0], p[1], p[2] + h}) - a.sampleSDF([3]float64{p[0], p[1], p[2] - h})
	grad := [3]float64{gx, gy, gz}
	n := norm3(grad)
	if n < 1e-9 {
		return [3]float64{-a.GravityDir[0], -a.GravityDir[1], -a.GravityDir[2]}
	}
	return scale3(grad, 1.0/n)
}

// StepFrame advances every particle by one frame, writing its
// pre-update position into out (length >= len(particles)*3). Per §5,
// particles do not interact, so any within-frame ordering is equivalent;
// this implementation iterates sequentially.
func (a *Advector) StepFrame(frame int, out []float32) {
	for pidx := range a.particles {
		p := &a.particles[pidx]
		base := pidx * 3
		out[base] = float32(p.Pos[0])
		out[base+1] = float32(p.Pos[1])
		out[base+2] = float32(p.Pos[2])

		if frame < p.BirthFrame {
			continue // unborn: stays pinned at source+offset, already set at emission
		}
		a.updateParticle(p)
	}
}

func (a *Advector) updateParticle(p *Particle) {
	k := a.K

	// 1-2: sample field velocity, momentum blend
	vf := scale3(a.sampleVelocity(p.Pos), k.VelocityScale)
	p.Vel = add3(scale3(p.Vel, 0.85), scale3(vf, 0.15))

	// 3: gravity
	p.Vel = add3(p.Vel, scale3(a.GravityDir, k.GravityAccel))

	// 4: terminal velocity along gravity
	alongG := dot3(p.Vel, a.GravityDir)
	if alongG > k.TerminalSpeedAlongG {
		excess := alongG - k.TerminalSpeedAlongG
		p.Vel = sub3(p.Vel, scale3(a.GravityDir, excess))
	}

	// 5: near-wall sliding
	sdfHere := a.sampleSDF(p.Pos)
	if sdfHere > 0 && sdfHere < k.SurfaceThickness {
		normal := a.surfaceNormal(p.Pos)
		vn := dot3(p.Vel, normal)
		p.Vel = sub3(p.Vel, scale3(normal, 0.7*vn))
		p.Vel = sub3(p.Vel, scale3(normal, k.SurfaceAttract))
	}

	// 6: solid tunneling collision
	if sdfHere < 0 {
		a.collisions++
		normal := a.surfaceNormal(p.Pos)
		p.Pos = add3(p.Pos, scale3(normal, -sdfHere+k.DxMM))
		vn := dot3(p.Vel, normal)
		p.Vel = sub3(p.Vel, scale3(normal, 1.8*vn))
	}

	// 7: overall speed cap
	speed := norm3(p.Vel)
	if speed > k.OverallSpeedCap {
		p.Vel = scale3(p.Vel, k.OverallSpeedCap/speed)
	}

	// 8: candidate new position
	posNext := add3(p.Pos, p.Vel)

	// 9: respawn policy
	if a.shouldRespawn(posNext, p) {
		a.respawn(p)
		return
	}

	// 10: commit
	p.Pos = posNext
	p.Age++
}

func (a *Advector) shouldRespawn(posNext [3]float64, p *Particle) bool {
	k := a.K
	extent := [3]float64{a.Bounds[1] - a.Bounds[0], a.Bounds[3] - a.Bounds[2], a.Bounds[5] - a.Bounds[4]}
	if posNext[0] < a.Bounds[0]-extent[0] || posNext[0] > a.Bounds[1]+extent[0] ||
		posNext[1] < a.Bounds[2]-extent[1] || posNext[1] > a.Bounds[3]+extent[1] ||
		posNext[2] < a.Bounds[4]-extent[2] || posNext[2] > a.Bounds[5]+extent[2] {
		return true
	}
	sdfNext := a.sampleSDF(posNext)
	if sdfNext > k.DecayDistance && dot3(p.Vel, a.GravityDir) <= 0.5*k.GravityAccel {
		a.decayed++
		return true
	}
	if p.Age > k.RespawnAge {
		return true
	}
	if sdfNext < -10*k.DxMM {
		return true
	}
	return false
}
