// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package voxel turns a closed triangular mesh and a handful of user
// inputs (gravity direction, source point, base resolution, lattice
// viscosity) into the regular-grid Domain the LBM solver iterates on:
// solid/inlet/outlet masks, padded coordinate axes, and a gravity vector
// expressed in lattice units.
package voxel

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/flowtracer/mesh"
)

const (
	paddingMM  = 5.0
	minCells   = 32
	maxCells   = 320
	nuPhysM2S  = 1.004e-6 // kinematic viscosity of water, m^2/s
	gPhysMS2   = 9.81
	gLbmLo     = 1e-6
	gLbmHi     = 5e-4
	sourceRMin = 20.0
)

// Domain is the immutable voxel grid the LBM solver and advector operate
// on, built once by Build and never mutated afterward (the LBM's own
// per-step fields live in lbm.Solver, not here).
type Domain struct {
	Nx, Ny, Nz int
	XCoords    []float64
	YCoords    []float64
	ZCoords    []float64

	Solid  []bool // flattened nx*ny*nz, C order (x slowest)
	Inlet  []bool
	Outlet []bool

	GravityDir   [3]float64 // unit vector
	GravityLBM   [3]float64 // lattice units, magnitude in [1e-6, 5e-4]
	DxM          float64    // cell size in metres
	DxMM         float64    // cell size in millimetres (min per-axis spacing)
	SourcePointMM [3]float64

	SourceRadiusMM float64
}

// Bounds returns the domain's padded coordinate extent
// (x0,x1,y0,y1,z0,z1), used by the advector's out-of-domain respawn test.
func (d *Domain) Bounds() [6]float64 {
	return [6]float64{
		d.XCoords[0], d.XCoords[len(d.XCoords)-1],
		d.YCoords[0], d.YCoords[len(d.YCoords)-1],
		d.ZCoords[0], d.ZCoords[len(d.ZCoords)-1],
	}
}

// Idx converts a 3-D cell index into the flattened array offset.
func (d *Domain) Idx(i, j, k int) int {
	return (i*d.Ny+j)*d.Nz + k
}

// NCells returns nx*ny*nz.
func (d *Domain) NCells() int {
	return d.Nx * d.Ny * d.Nz
}

func normalize(v [3]float64) [3]float64 {
	n := la.VecNorm(v[:])
	if n < 1e-12 {
		return [3]float64{0, 0, -1}
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}
}

func dimsFromBounds(b [6]float64, baseRes int) (nx, ny, nz int) {
	xr := b[1] - b[0]
	yr := b[3] - b[2]
	zr := b[5] - b[4]
	maxRange := math.Max(xr, math.Max(yr, zr))
	if maxRange < 1e-6 {
		maxRange = 1e-6
	}
	clampDim := func(r float64) int {
		n := int(math.Round(float64(baseRes) * r / maxRange))
		return int(utl.Max(float64(minCells), utl.Min(float64(maxCells), float64(n))))
	}
	return clampDim(xr), clampDim(yr), clampDim(zr)
}

func computeGravityLBM(dir [3]float64, dxM, nuLBM float64) [3]float64 {
	dt := nuLBM * dxM * dxM / nuPhysM2S
	g := gPhysMS2 * dt * dt / dxM
	g = utl.Max(gLbmLo, utl.Min(gLbmHi, g))
	return [3]float64{dir[0] * g, dir[1] * g, dir[2] * g}
}

// Build constructs a Domain per spec §4.1: grid sizing and padding, a
// solid mask from point-in-mesh ray casting, a deterministically adjusted
// source point, an inlet selected as fluid cells near the source (falling
// back to the nearest fluid cluster if the source is unreachable), and an
// outlet selected near the lowest point of the mesh along gravity.
func Build(m *mesh.Mesh, gravity [3]float64, sourcePointMM [3]float64, baseRes int, nuLBM float64) (d *Domain, err error) {
	b := m.Bounds
	io.Pf("> [voxel] bounds: x=[%.1f,%.1f] y=[%.1f,%.1f] z=[%.1f,%.1f]\n", b[0], b[1], b[2], b[3], b[4], b[5])

	center := m.Center()
	size := [3]float64{b[1] - b[0], b[3] - b[2], b[5] - b[4]}
	maxDim := math.Max(size[0], math.Max(size[1], size[2]))

	src := clampSourcePoint(sourcePointMM, b, center, maxDim)

	nx, ny, nz := dimsFromBounds(b, baseRes)
	xCoords := utl.LinSpace(b[0]-paddingMM, b[1]+paddingMM, nx)
	yCoords := utl.LinSpace(b[2]-paddingMM, b[3]+paddingMM, ny)
	zCoords := utl.LinSpace(b[4]-paddingMM, b[5]+paddingMM, nz)

	bvh := mesh.BuildBVH(m)
	solid := make([]bool, nx*ny*nz)
	nFluid := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				p := [3]float64{xCoords[i], yCoords[j], zCoords[k]}
				idx := (i*ny+j)*nz + k
				if !bvh.PointInside(p) {
					solid[idx] = true
				} else {
					nFluid++
				}
			}
		}
	}
	io.Pf("> [voxel] grid %dx%dx%d = %d cells, fluid=%d solid=%d\n", nx, ny, nz, nx*ny*nz, nFluid, nx*ny*nz-nFluid)
	if nFluid == 0 {
		return nil, chk.Err("voxelization produced no fluid cells: mesh is not closed, or entirely fills the bounding box")
	}

	dxMM := math.Min(meanSpacing(xCoords), math.Min(meanSpacing(yCoords), meanSpacing(zCoords)))
	dxM := dxMM / 1000.0

	gravityDir := normalize(gravity)
	gravityLBM := computeGravityLBM(gravityDir, dxM, nuLBM)

	sourceRadiusMM := math.Max(sourceRMin, 10.0*dxMM)
	inlet, src, err := buildInlet(solid, xCoords, yCoords, zCoords, nx, ny, nz, src, sourceRadiusMM)
	if err != nil {
		return nil, err
	}

	outlet := buildOutlet(m, solid, xCoords, yCoords, zCoords, nx, ny, nz, gravityDir, sourceRadiusMM*1.5)

	// a cell claimed by both selections stays inlet only, so solid, inlet
	// and outlet are pairwise disjoint
	for idx := range solid {
		if inlet[idx] && outlet[idx] {
			outlet[idx] = false
		}
		if inlet[idx] || outlet[idx] {
			solid[idx] = false
		}
	}

	d = &Domain{
		Nx: nx, Ny: ny, Nz: nz,
		XCoords: xCoords, YCoords: yCoords, ZCoords: zCoords,
		Solid: solid, Inlet: inlet, Outlet: outlet,
		GravityDir: gravityDir, GravityLBM: gravityLBM,
		DxM: dxM, DxMM: dxMM,
		SourcePointMM:  src,
		SourceRadiusMM: sourceRadiusMM,
	}
	io.Pf("> [voxel] source=%v gravity_dir=%v dx=%.3fmm\n", d.SourcePointMM, d.GravityDir, d.DxMM)
	return d, nil
}

func meanSpacing(coords []float64) float64 {
	if len(coords) < 2 {
		return 1.0
	}
	return (coords[len(coords)-1] - coords[0]) / float64(len(coords)-1)
}

// clampSourcePoint implements the deterministic three-step source-clamping
// rule of §4.1: accept in-bounds points as-is; try a mesh-center offset
// (to correct a viewer that centers meshes at the origin) if that brings
// an out-of-bounds point back in; otherwise clamp with a 5% margin.
func clampSourcePoint(src [3]float64, b [6]float64, center [3]float64, maxDim float64) [3]float64 {
	inBounds := func(p [3]float64, margin float64) bool {
		return b[0]-margin <= p[0] && p[0] <= b[1]+margin &&
			b[2]-margin <= p[1] && p[1] <= b[3]+margin &&
			b[4]-margin <= p[2] && p[2] <= b[5]+margin
	}
	if inBounds(src, 0) {
		return src
	}
	centered := [3]float64{src[0] + center[0], src[1] + center[1], src[2] + center[2]}
	meshDistFromOrigin := la.VecNorm(center[:])
	if inBounds(centered, 0.1*maxDim) && meshDistFromOrigin > 0.5*maxDim {
		return clampToBounds(centered, b, 1.0)
	}
	margin := 0.05 * maxDim
	return clampToBounds(src, b, margin)
}

func clampToBounds(p [3]float64, b [6]float64, margin float64) [3]float64 {
	clamp1 := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return [3]float64{
		clamp1(p[0], b[0]+margin, b[1]-margin),
		clamp1(p[1], b[2]+margin, b[3]-margin),
		clamp1(p[2], b[4]+margin, b[5]-margin),
	}
}

// buildInlet selects fluid cells within sourceRadiusMM of src. If none
// exist, it falls back to the nearest fluid cluster (per §4.1) and
// redefines the source point as that cluster's centroid.
func buildInlet(solid []bool, xc, yc, zc []float64, nx, ny, nz int, src [3]float64, radius float64) (inlet []bool, newSrc [3]float64, err error) {
	inlet = make([]bool, len(solid))
	n := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				idx := (i*ny+j)*nz + k
				if solid[idx] {
					continue
				}
				p := [3]float64{xc[i], yc[j], zc[k]}
				if dist3(p, src) <= radius {
					inlet[idx] = true
					n++
				}
			}
		}
	}
	if n > 0 {
		return inlet, src, nil
	}

	io.Pf("> [voxel] no inlet cells within %.1fmm of source, searching nearest fluid cluster\n", radius)
	type fluidCell struct {
		idx int
		p   [3]float64
		d   float64
	}
	var fluid []fluidCell
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				idx := (i*ny+j)*nz + k
				if solid[idx] {
					continue
				}
				p := [3]float64{xc[i], yc[j], zc[k]}
				fluid = append(fluid, fluidCell{idx, p, dist3(p, src)})
			}
		}
	}
	if len(fluid) == 0 {
		return nil, src, chk.Err("no feasible inlet: domain has no fluid cells at all")
	}
	// partial selection sort for the nTarget closest cells, O(n*nTarget);
	// nTarget is max(100, 1% of the fluid cells)
	nTarget := int(0.01 * float64(len(fluid)))
	if nTarget < 100 {
		nTarget = 100
	}
	if nTarget > len(fluid) {
		nTarget = len(fluid)
	}
	for s := 0; s < nTarget; s++ {
		best := s
		for t := s + 1; t < len(fluid); t++ {
			if fluid[t].d < fluid[best].d {
				best = t
			}
		}
		fluid[s], fluid[best] = fluid[best], fluid[s]
	}
	var centroid [3]float64
	for s := 0; s < nTarget; s++ {
		inlet[fluid[s].idx] = true
		centroid[0] += fluid[s].p[0]
		centroid[1] += fluid[s].p[1]
		centroid[2] += fluid[s].p[2]
	}
	centroid[0] /= float64(nTarget)
	centroid[1] /= float64(nTarget)
	centroid[2] /= float64(nTarget)
	io.Pf("> [voxel] retargeted inlet to %d cells, new source=%v\n", nTarget, centroid)
	return inlet, centroid, nil
}

// buildOutlet selects fluid cells near the centroid of the mesh vertices
// in the lowest 10% of the projection along gravityDir.
func buildOutlet(m *mesh.Mesh, solid []bool, xc, yc, zc []float64, nx, ny, nz int, gravityDir [3]float64, radius float64) []bool {
	projs := make([]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		projs[i] = v[0]*gravityDir[0] + v[1]*gravityDir[1] + v[2]*gravityDir[2]
	}
	threshold := percentile(projs, 10)
	var low [3]float64
	nLow := 0
	for i, v := range m.Vertices {
		if projs[i] <= threshold {
			low[0] += v[0]
			low[1] += v[1]
			low[2] += v[2]
			nLow++
		}
	}
	if nLow == 0 {
		// fall back to the single lowest vertex
		best := 0
		for i := 1; i < len(projs); i++ {
			if projs[i] < projs[best] {
				best = i
			}
		}
		low = m.Vertices[best]
	} else {
		low[0] /= float64(nLow)
		low[1] /= float64(nLow)
		low[2] /= float64(nLow)
	}

	outlet := make([]bool, len(solid))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				idx := (i*ny+j)*nz + k
				if solid[idx] {
					continue
				}
				p := [3]float64{xc[i], yc[j], zc[k]}
				if dist3(p, low) <= radius {
					outlet[idx] = true
				}
			}
		}
	}
	return outlet
}

func percentile(xs []float64, pct float64) float64 {
	sorted := append([]float64(nil), xs...)
	// straightforward insertion sort of a copy
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	if len(sorted) == 0 {
		return 0
	}
	rank := pct / 100.0 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func dist3(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
