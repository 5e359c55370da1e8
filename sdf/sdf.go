// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sdf computes a signed distance field from a solid/fluid mask
// (spec §4.4), using the two-pass separable Felzenszwalb-Huttenlocher
// exact Euclidean distance transform (spec §9 "Distance transform").
package sdf

import (
	"math"
)

const inf = 1e20

// Field is the signed distance field in millimetres: positive inside
// fluid (distance to nearest solid), negative inside solid (negated
// distance to nearest fluid), flattened (nx,ny,nz) in C order.
type Field struct {
	Nx, Ny, Nz int
	Values     []float64
}

func (f *Field) Idx(i, j, k int) int { return (i*f.Ny+j)*f.Nz + k }

// Build computes the SDF for a solid mask of shape (nx,ny,nz), given the
// average cell size avgDxMM. sdf = dist_fluid on fluid cells, -dist_solid
// on solid cells, both distance transforms in cells before scaling.
func Build(solid []bool, nx, ny, nz int, avgDxMM float64) *Field {
	distFluid := edt(solid, nx, ny, nz)         // distance to nearest solid, measured FROM fluid cells
	distSolid := edt(invert(solid), nx, ny, nz) // distance to nearest fluid, measured FROM solid cells

	values := make([]float64, nx*ny*nz)
	for idx := range values {
		if solid[idx] {
			values[idx] = -math.Sqrt(distSolid[idx]) * avgDxMM
		} else {
			values[idx] = math.Sqrt(distFluid[idx]) * avgDxMM
		}
	}
	return &Field{Nx: nx, Ny: ny, Nz: nz, Values: values}
}

func invert(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, b := range mask {
		out[i] = !b
	}
	return out
}

// edt computes, for each cell, the squared Euclidean distance (in cell
// units) to the nearest true cell in mask, via three separable 1-D
// passes (x, then y, then z), each a lower envelope of parabolas
// (Felzenszwalb & Huttenlocher 2004).
func edt(mask []bool, nx, ny, nz int) []float64 {
	sq := make([]float64, nx*ny*nz)
	idx := func(i, j, k int) int { return (i*ny+j)*nz + k }
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if mask[idx(i, j, k)] {
					sq[idx(i, j, k)] = 0
				} else {
					sq[idx(i, j, k)] = inf
				}
			}
		}
	}

	buf := make([]float64, max3(nx, ny, nz))

	// pass along x
	for j := 0; j < ny; j++ {
		for k := 0; k < nz; k++ {
			for i := 0; i < nx; i++ {
				buf[i] = sq[idx(i, j, k)]
			}
			out := transform1D(buf[:nx])
			for i := 0; i < nx; i++ {
				sq[idx(i, j, k)] = out[i]
			}
		}
	}
	// pass along y
	for i := 0; i < nx; i++ {
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				buf[j] = sq[idx(i, j, k)]
			}
			out := transform1D(buf[:ny])
			for j := 0; j < ny; j++ {
				sq[idx(i, j, k)] = out[j]
			}
		}
	}
	// pass along z
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				buf[k] = sq[idx(i, j, k)]
			}
			out := transform1D(buf[:nz])
			for k := 0; k < nz; k++ {
				sq[idx(i, j, k)] = out[k]
			}
		}
	}
	return sq
}

// transform1D is the 1-D squared-distance lower envelope of parabolas
// rooted at each sample of f. Returns, per position p, min_q (p-q)^2 +
// f[q].
func transform1D(f []float64) []float64 {
	n := len(f)
	d := make([]float64, n)
	v := make([]int, n)     // locations of parabolas in lower envelope
	z := make([]float64, n+1) // boundaries between parabolas

	k := 0
	v[0] = 0
	z[0] = -inf
	z[1] = inf
	for q := 1; q < n; q++ {
		var s float64
		for {
			s = intersection(f, v[k], q)
			if s <= z[k] {
				k--
				if k < 0 {
					break
				}
				continue
			}
			break
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = inf
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
	return d
}

func intersection(f []float64, q1, q2 int) float64 {
	fq1, fq2 := f[q1], f[q2]
	q1f, q2f := float64(q1), float64(q2)
	return ((fq2 + q2f*q2f) - (fq1 + q1f*q1f)) / (2 * q2f - 2*q1f)
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
