// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lattice holds the D3Q19 lattice constants shared by the LBM
// solver: the 19 discrete velocity directions, their weights, the
// opposite-direction table used by bounce-back, and the equilibrium
// distribution formula.
package lattice

// Q is the number of discrete velocity directions in D3Q19.
const Q = 19

// Cs2 is the lattice sound speed squared, 1/3 in D3Q19.
const Cs2 = 1.0 / 3.0

// C holds the 19 discrete velocity vectors: one rest direction, six
// axis-aligned unit vectors, and twelve face-diagonal vectors.
var C = [Q][3]int{
	{0, 0, 0},
	{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	{1, 1, 0}, {-1, -1, 0}, {1, -1, 0}, {-1, 1, 0},
	{1, 0, 1}, {-1, 0, -1}, {1, 0, -1}, {-1, 0, 1},
	{0, 1, 1}, {0, -1, -1}, {0, 1, -1}, {0, -1, 1},
}

// W holds the weight associated with each direction in C: 1/3 for rest,
// 1/18 for axial, 1/36 for diagonal.
var W = [Q]float64{
	1.0 / 3.0,
	1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0,
	1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
	1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
	1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
}

// Opp maps each direction index to the index of its opposite, used by the
// solid bounce-back boundary rule. Opp[0] = 0 (the rest direction is its
// own opposite).
var Opp = [Q]int{
	0,
	2, 1, 4, 3, 6, 5,
	8, 7, 10, 9,
	12, 11, 14, 13,
	16, 15, 18, 17,
}

// Equilibrium evaluates the D3Q19 BGK equilibrium distribution for
// direction q given density rho and velocity u (lattice units):
//
//	f_eq[q] = w_q * rho * (1 + 3(c_q.u) + 4.5(c_q.u)^2 - 1.5|u|^2)
func Equilibrium(q int, rho float64, ux, uy, uz float64) float64 {
	cu := float64(C[q][0])*ux + float64(C[q][1])*uy + float64(C[q][2])*uz
	u2 := ux*ux + uy*uy + uz*uz
	return W[q] * rho * (1 + 3*cu + 4.5*cu*cu - 1.5*u2)
}
