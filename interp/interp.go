// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interp provides a small trilinear sampler over a regular grid,
// reused by the advector for velocity and SDF field lookups (spec §9
// "Regular-grid interpolation"). It replaces a scientific-library
// interpolator with a direct 8-corner blend.
package interp

import "math"

// Grid describes a regular 3-D grid's axis coordinates, assumed
// monotonically increasing and approximately uniformly spaced per axis.
type Grid struct {
	X, Y, Z []float64
}

func (g *Grid) Nx() int { return len(g.X) }
func (g *Grid) Ny() int { return len(g.Y) }
func (g *Grid) Nz() int { return len(g.Z) }

// locate returns the lower-corner cell index and fractional offset [0,1]
// along one axis for coordinate value v. Returns ok=false if v lies
// outside the axis range.
func locate(axis []float64, v float64) (i0 int, frac float64, ok bool) {
	n := len(axis)
	if n < 2 || v < axis[0] || v > axis[n-1] {
		return 0, 0, false
	}
	// axes are approximately uniform, so a direct estimate plus a short
	// linear correction avoids a full binary search
	dx := (axis[n-1] - axis[0]) / float64(n-1)
	i0 = int(math.Floor((v - axis[0]) / dx))
	if i0 < 0 {
		i0 = 0
	}
	if i0 > n-2 {
		i0 = n - 2
	}
	for i0 > 0 && axis[i0] > v {
		i0--
	}
	for i0 < n-2 && axis[i0+1] < v {
		i0++
	}
	span := axis[i0+1] - axis[i0]
	if span < 1e-15 {
		return i0, 0, true
	}
	frac = (v - axis[i0]) / span
	return i0, frac, true
}

// Sample performs trilinear interpolation of field (flattened (nx,ny,nz)
// in C order, x slowest) at point p. field values are float32; the result
// is float64. outside returns outside when p falls outside the grid on
// any axis — callers pass 0 for velocity components and -100 for the SDF
// per spec §4.5.
func (g *Grid) Sample(field []float32, p [3]float64, outside float64) float64 {
	i0, fx, okx := locate(g.X, p[0])
	j0, fy, oky := locate(g.Y, p[1])
	k0, fz, okz := locate(g.Z, p[2])
	if !okx || !oky || !okz {
		return outside
	}
	ny, nz := g.Ny(), g.Nz()
	at := func(i, j, k int) float64 {
		return float64(field[(i*ny+j)*nz+k])
	}
	c000 := at(i0, j0, k0)
	c100 := at(i0+1, j0, k0)
	c010 := at(i0, j0+1, k0)
	c110 := at(i0+1, j0+1, k0)
	c001 := at(i0, j0, k0+1)
	c101 := at(i0+1, j0, k0+1)
	c011 := at(i0, j0+1, k0+1)
	c111 := at(i0+1, j0+1, k0+1)

	c00 := c000*(1-fx) + c100*fx
	c10 := c010*(1-fx) + c110*fx
	c01 := c001*(1-fx) + c101*fx
	c11 := c011*(1-fx) + c111*fx

	c0 := c00*(1-fy) + c10*fy
	c1 := c01*(1-fy) + c11*fy

	return c0*(1-fz) + c1*fz
}
