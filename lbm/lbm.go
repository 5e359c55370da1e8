// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lbm implements the D3Q19 lattice Boltzmann solver of spec §4.3:
// BGK collision with Guo gravity forcing, bounce-back solids, a Dirichlet
// inlet, a pressure outlet, and first-order upwind fill-level transport.
package lbm

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/flowtracer/lattice"
)

const rhoFloor = 1e-10

// Solver owns the per-step LBM state (§3 "LBM state"): the distribution
// functions, macroscopic fields, and fill level, over a grid of shape
// (nx,ny,nz). Domain masks (solid/inlet/outlet) are immutable references
// supplied at construction.
type Solver struct {
	Nx, Ny, Nz int

	Solid, Inlet, Outlet []bool

	F, fNext []float32 // [19][nx*ny*nz], double-buffered during streaming
	Rho      []float32
	Ux, Uy, Uz []float32
	FillLevel  []float32

	Nu    float64
	Tau   float64
	Omega float64

	Gravity    [3]float64
	InletSpeed float64
	InletDir   [3]float64 // constant-in-time, unit inlet direction
}

// New allocates a Solver for the given masks and viscosity, asserting the
// §4.3/§7 stability preconditions (these are programming errors, not user
// errors: the clamps in sim already guarantee them).
func New(nx, ny, nz int, solid, inlet, outlet []bool, nuLBM float64, gravity [3]float64, inletSpeed float64, inletDir [3]float64) *Solver {
	n := nx * ny * nz
	tau := 3.0*nuLBM + 0.5
	if tau <= 0.5 {
		chk.Panic("lbm: tau=%v is not > 0.5 (nu_lbm=%v)", tau, nuLBM)
	}
	if math.Abs(inletSpeed) > 0.08 {
		chk.Panic("lbm: |u_in|=%v exceeds the Mach-number safeguard of 0.08", inletSpeed)
	}
	need := int64(lattice.Q)*int64(n)*4*2 + int64(n)*4*5
	if need <= 0 {
		chk.Panic("lbm: grid size overflow computing buffer requirement")
	}

	s := &Solver{
		Nx: nx, Ny: ny, Nz: nz,
		Solid: solid, Inlet: inlet, Outlet: outlet,
		F: make([]float32, lattice.Q*n), fNext: make([]float32, lattice.Q*n),
		Rho: make([]float32, n),
		Ux:  make([]float32, n), Uy: make([]float32, n), Uz: make([]float32, n),
		FillLevel: make([]float32, n),
		Nu:        nuLBM, Tau: tau, Omega: 1.0 / tau,
		Gravity: gravity, InletSpeed: inletSpeed, InletDir: inletDir,
	}
	s.init(inlet)
	return s
}

func (s *Solver) idx(i, j, k int) int { return (i*s.Ny+j)*s.Nz + k }

// init sets rho=1, velocities zero, f equal to rest equilibrium, and fill
// level 1 on inlet else 0, per §4.3 "Initialization".
func (s *Solver) init(inlet []bool) {
	n := s.Nx * s.Ny * s.Nz
	for idx := 0; idx < n; idx++ {
		s.Rho[idx] = 1
		for q := 0; q < lattice.Q; q++ {
			s.F[q*n+idx] = float32(lattice.W[q])
		}
		if inlet[idx] {
			s.FillLevel[idx] = 1
		}
	}
}

// Step runs one LBM iteration: collide (with Guo forcing) -> stream ->
// boundaries -> macroscopic update -> fill-level transport, per §4.3.
func (s *Solver) Step() {
	s.collide()
	s.stream()
	s.boundaries()
	s.macroscopic()
	s.transportFill()
}

func (s *Solver) collide() {
	n := s.Nx * s.Ny * s.Nz
	g := s.Gravity
	gmag := math.Sqrt(g[0]*g[0] + g[1]*g[1] + g[2]*g[2])
	applyForce := gmag >= 1e-12
	for idx := 0; idx < n; idx++ {
		rho := float64(s.Rho[idx])
		ux, uy, uz := float64(s.Ux[idx]), float64(s.Uy[idx]), float64(s.Uz[idx])
		for q := 0; q < lattice.Q; q++ {
			feq := lattice.Equilibrium(q, rho, ux, uy, uz)
			f := float64(s.F[q*n+idx])
			f = f - s.Omega*(f-feq)
			if applyForce {
				cq := lattice.C[q]
				cqx, cqy, cqz := float64(cq[0]), float64(cq[1]), float64(cq[2])
				cu := cqx*ux + cqy*uy + cqz*uz
				dot := (cqx-ux)*g[0] + (cqy-uy)*g[1] + (cqz-uz)*g[2]
				dot += 3 * cu * (cqx*g[0] + cqy*g[1] + cqz*g[2])
				// ΔF[q] = (1-ω/2) w_q ρ [3(c_q-u) + 9(c_q.u)c_q] . g
				delta := (1 - s.Omega/2) * lattice.W[q] * rho * 3 * dot
				f += delta
			}
			s.F[q*n+idx] = float32(f)
		}
	}
}

// stream performs the 19-way cyclic shift with wraparound into fNext,
// then swaps the double buffer (spec §5/§9: never in place).
func (s *Solver) stream() {
	nx, ny, nz := s.Nx, s.Ny, s.Nz
	n := nx * ny * nz
	for q := 0; q < lattice.Q; q++ {
		c := lattice.C[q]
		base := q * n
		for i := 0; i < nx; i++ {
			si := ((i-c[0])%nx + nx) % nx
			for j := 0; j < ny; j++ {
				sj := ((j-c[1])%ny + ny) % ny
				for k := 0; k < nz; k++ {
					sk := ((k-c[2])%nz + nz) % nz
					s.fNext[base+s.idx(i, j, k)] = s.F[base+s.idx(si, sj, sk)]
				}
			}
		}
	}
	s.F, s.fNext = s.fNext, s.F
}

func (s *Solver) boundaries() {
	n := s.Nx * s.Ny * s.Nz
	for idx := 0; idx < n; idx++ {
		if s.Solid[idx] {
			var reflected [lattice.Q]float32
			for q := 0; q < lattice.Q; q++ {
				reflected[q] = s.F[lattice.Opp[q]*n+idx]
			}
			for q := 0; q < lattice.Q; q++ {
				s.F[q*n+idx] = reflected[q]
			}
		}
	}
	dir := s.InletDir
	for idx := 0; idx < n; idx++ {
		if !s.Inlet[idx] {
			continue
		}
		s.Rho[idx] = 1
		s.Ux[idx] = float32(dir[0] * s.InletSpeed)
		s.Uy[idx] = float32(dir[1] * s.InletSpeed)
		s.Uz[idx] = float32(dir[2] * s.InletSpeed)
		rho := float64(s.Rho[idx])
		ux, uy, uz := float64(s.Ux[idx]), float64(s.Uy[idx]), float64(s.Uz[idx])
		for q := 0; q < lattice.Q; q++ {
			s.F[q*n+idx] = float32(lattice.Equilibrium(q, rho, ux, uy, uz))
		}
		s.FillLevel[idx] = 1
	}
	for idx := 0; idx < n; idx++ {
		if s.Outlet[idx] {
			s.Rho[idx] = 1
		}
	}
}

// macroscopic recomputes rho and u from f, applying the Guo half-force
// shift, per §4.3 step 4.
func (s *Solver) macroscopic() {
	n := s.Nx * s.Ny * s.Nz
	g := s.Gravity
	for idx := 0; idx < n; idx++ {
		var rho, mx, my, mz float64
		for q := 0; q < lattice.Q; q++ {
			f := float64(s.F[q*n+idx])
			rho += f
			c := lattice.C[q]
			mx += f * float64(c[0])
			my += f * float64(c[1])
			mz += f * float64(c[2])
		}
		if rho < rhoFloor {
			rho = rhoFloor
		}
		if math.IsNaN(rho) || math.IsInf(rho, 0) {
			chk.Panic("lbm: non-finite rho at cell %d", idx)
		}
		s.Rho[idx] = float32(rho)
		ux := mx/rho + 0.5*g[0]
		uy := my/rho + 0.5*g[1]
		uz := mz/rho + 0.5*g[2]
		if s.Solid[idx] {
			ux, uy, uz = 0, 0, 0
		}
		s.Ux[idx] = float32(ux)
		s.Uy[idx] = float32(uy)
		s.Uz[idx] = float32(uz)
	}
}

const fillRelax = 0.08

// transportFill applies first-order upwind transport of fill_level, per
// §4.3 step 5, pinning to 0 on solid and 1 on inlet.
func (s *Solver) transportFill() {
	nx, ny, nz := s.Nx, s.Ny, s.Nz
	n := nx * ny * nz
	next := make([]float32, n)
	copy(next, s.FillLevel)

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				idx := s.idx(i, j, k)
				flux := 0.0
				ux, uy, uz := float64(s.Ux[idx]), float64(s.Uy[idx]), float64(s.Uz[idx])
				flux += fillAxisFlux(s.FillLevel, idx, i, j, k, 1, 0, 0, ux, s)
				flux += fillAxisFlux(s.FillLevel, idx, i, j, k, 0, 1, 0, uy, s)
				flux += fillAxisFlux(s.FillLevel, idx, i, j, k, 0, 0, 1, uz, s)
				v := float64(s.FillLevel[idx]) + fillRelax*flux
				if v < 0 {
					v = 0
				}
				if v > 1 {
					v = 1
				}
				next[idx] = float32(v)
			}
		}
	}
	for idx := 0; idx < n; idx++ {
		if s.Solid[idx] {
			next[idx] = 0
		}
		if s.Inlet[idx] {
			next[idx] = 1
		}
	}
	s.FillLevel = next
}

// fillAxisFlux computes the signed first-order upwind net flux into cell
// (i,j,k) along one axis, gaining fill*|u| from the upwind neighbour and
// losing the same from itself. (di,dj,dk) is the positive unit step along
// the axis; the upwind neighbour for u>=0 is the cell "behind" the flow,
// at (i,j,k)-(di,dj,dk).
func fillAxisFlux(fill []float32, idx, i, j, k, di, dj, dk int, u float64, s *Solver) float64 {
	loss := float64(fill[idx]) * math.Abs(u)
	var upI, upJ, upK int
	if u >= 0 {
		upI, upJ, upK = wrap(i-di, s.Nx), wrap(j-dj, s.Ny), wrap(k-dk, s.Nz)
	} else {
		upI, upJ, upK = wrap(i+di, s.Nx), wrap(j+dj, s.Ny), wrap(k+dk, s.Nz)
	}
	gain := float64(fill[s.idx(upI, upJ, upK)]) * math.Abs(u)
	return gain - loss
}

func wrap(v, n int) int {
	return ((v % n) + n) % n
}

// SumRho returns the sum of rho over all fluid (non-solid) cells, used by
// the mass-conservation test law (§8).
func (s *Solver) SumRho() float64 {
	var sum float64
	for idx, solid := range s.Solid {
		if !solid {
			sum += float64(s.Rho[idx])
		}
	}
	return sum
}

// MeanVelocityAlongGravity returns the mean of u.gravity_dir over fluid
// cells, used by the gravity-sign-correctness test law (§8). gravityDir
// must be a unit vector.
func (s *Solver) MeanVelocityAlongGravity(gravityDir [3]float64) float64 {
	var sum float64
	nFluid := 0
	for idx, solid := range s.Solid {
		if solid {
			continue
		}
		u := float64(s.Ux[idx])*gravityDir[0] + float64(s.Uy[idx])*gravityDir[1] + float64(s.Uz[idx])*gravityDir[2]
		sum += u
		nFluid++
	}
	if nFluid == 0 {
		return 0
	}
	return sum / float64(nFluid)
}

// Run iterates Step nIter times, invoking progress at
// max(1, nIter/20)-cadence checkpoints per §5.
func (s *Solver) Run(nIter int, progress func(iter, total int)) {
	checkEvery := nIter / 20
	if checkEvery < 1 {
		checkEvery = 1
	}
	for it := 1; it <= nIter; it++ {
		s.Step()
		if progress != nil && (it%checkEvery == 0 || it == nIter) {
			progress(it, nIter)
		}
	}
	io.Pf("> [lbm] completed %d iterations (tau=%.4f, omega=%.4f)\n", nIter, s.Tau, s.Omega)
}
