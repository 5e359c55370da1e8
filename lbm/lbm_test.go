// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lbm

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func smallDomain(nx, ny, nz int) (solid, inlet, outlet []bool) {
	n := nx * ny * nz
	solid = make([]bool, n)
	inlet = make([]bool, n)
	outlet = make([]bool, n)
	idx := func(i, j, k int) int { return (i*ny+j)*nz + k }
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if i == 0 || i == nx-1 || j == 0 || j == ny-1 || k == 0 || k == nz-1 {
					solid[idx(i, j, k)] = true
				}
			}
		}
	}
	return
}

func TestInvariantsHoldAfterIterations(tst *testing.T) {
	chk.PrintTitle("InvariantsHoldAfterIterations")
	nx, ny, nz := 10, 10, 10
	solid, inlet, outlet := smallDomain(nx, ny, nz)
	// a tiny inlet patch in the interior
	inlet[(5*ny+5)*nz+1] = true
	solid[(5*ny+5)*nz+1] = false

	s := New(nx, ny, nz, solid, inlet, outlet, 0.06, [3]float64{0, 0, -1e-4}, 0.02, [3]float64{0, 0, 1})
	for it := 0; it < 30; it++ {
		s.Step()
	}
	n := nx * ny * nz
	for idx := 0; idx < n; idx++ {
		if s.Rho[idx] < 1e-10 {
			tst.Errorf("rho below floor at %d: %v", idx, s.Rho[idx])
		}
		for q := 0; q < 19; q++ {
			f := s.F[q*n+idx]
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				tst.Errorf("non-finite f[%d][%d]", q, idx)
			}
		}
		if solid[idx] {
			if s.Ux[idx] != 0 || s.Uy[idx] != 0 || s.Uz[idx] != 0 {
				tst.Errorf("solid cell %d has nonzero velocity", idx)
			}
			if s.FillLevel[idx] != 0 {
				tst.Errorf("solid cell %d has nonzero fill level", idx)
			}
		}
		if inlet[idx] {
			chk.Scalar(tst, "inlet rho", 1e-5, float64(s.Rho[idx]), 1.0)
			if s.FillLevel[idx] != 1 {
				tst.Errorf("inlet cell %d fill level != 1", idx)
			}
		}
	}
}

func TestMassConservationZeroGravityNoInletOutlet(tst *testing.T) {
	chk.PrintTitle("MassConservationZeroGravityNoInletOutlet")
	nx, ny, nz := 8, 8, 8
	solid, _, _ := smallDomain(nx, ny, nz)
	noInlet := make([]bool, nx*ny*nz)
	noOutlet := make([]bool, nx*ny*nz)
	s := New(nx, ny, nz, solid, noInlet, noOutlet, 0.1, [3]float64{0, 0, 0}, 0, [3]float64{0, 0, 1})
	initial := s.SumRho()
	for it := 0; it < 100; it++ {
		s.Step()
	}
	final := s.SumRho()
	rel := math.Abs(final-initial) / initial
	if rel > 1e-4 {
		tst.Errorf("mass not conserved: rel change=%v (initial=%v final=%v)", rel, initial, final)
	}
}

func TestGravitySignCorrectness(tst *testing.T) {
	chk.PrintTitle("GravitySignCorrectness")
	nx, ny, nz := 6, 6, 20
	solid := make([]bool, nx*ny*nz)
	idx := func(i, j, k int) int { return (i*ny+j)*nz + k }
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if i == 0 || i == nx-1 || j == 0 || j == ny-1 || k == 0 || k == nz-1 {
					solid[idx(i, j, k)] = true
				}
			}
		}
	}
	inlet := make([]bool, nx*ny*nz)
	outlet := make([]bool, nx*ny*nz)
	gravityDir := [3]float64{0, 0, -1}
	s := New(nx, ny, nz, solid, inlet, outlet, 0.08, [3]float64{0, 0, -3e-4}, 0, gravityDir)

	prev := s.MeanVelocityAlongGravity(gravityDir)
	for it := 1; it <= 50; it++ {
		s.Step()
		cur := s.MeanVelocityAlongGravity(gravityDir)
		if it > 1 && cur < prev-1e-9 {
			tst.Errorf("mean u.gravity_dir decreased at iter %d: %v -> %v", it, prev, cur)
		}
		prev = cur
	}
	if prev <= 0 {
		tst.Errorf("expected positive mean u.gravity_dir after 50 iterations, got %v", prev)
	}
}

func TestUnstableTauPanics(tst *testing.T) {
	chk.PrintTitle("UnstableTauPanics")
	defer func() {
		if r := recover(); r == nil {
			tst.Errorf("expected panic for tau <= 0.5")
		}
	}()
	nx, ny, nz := 4, 4, 4
	solid := make([]bool, nx*ny*nz)
	inlet := make([]bool, nx*ny*nz)
	outlet := make([]bool, nx*ny*nz)
	New(nx, ny, nz, solid, inlet, outlet, -0.2, [3]float64{0, 0, 0}, 0, [3]float64{0, 0, 1})
}
