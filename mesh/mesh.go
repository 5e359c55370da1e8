// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh holds the minimal triangle-mesh representation the core
// numerical pipeline consumes: vertices, triangles, and a bounding box. A
// real mesh file parser is an external collaborator (see spec §1/§6); this
// package only models its delivery contract plus a BVH-accelerated
// point-in-mesh test that the voxelizer needs.
package mesh

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
)

// Mesh is a closed triangular surface: Vertices holds point coordinates in
// millimetres, Triangles holds vertex-index triples. Winding is not assumed.
type Mesh struct {
	Vertices  [][3]float64
	Triangles [][3]int
	Bounds    [6]float64 // x0,x1,y0,y1,z0,z1
}

// New builds a Mesh from raw vertex/triangle arrays and computes its bounds.
func New(vertices [][3]float64, triangles [][3]int) (m *Mesh, err error) {
	if len(vertices) == 0 || len(triangles) == 0 {
		return nil, chk.Err("mesh has no vertices or no triangles")
	}
	m = &Mesh{Vertices: vertices, Triangles: triangles}
	m.Bounds = [6]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, v := range vertices {
		if v[0] < m.Bounds[0] {
			m.Bounds[0] = v[0]
		}
		if v[0] > m.Bounds[1] {
			m.Bounds[1] = v[0]
		}
		if v[1] < m.Bounds[2] {
			m.Bounds[2] = v[1]
		}
		if v[1] > m.Bounds[3] {
			m.Bounds[3] = v[1]
		}
		if v[2] < m.Bounds[4] {
			m.Bounds[4] = v[2]
		}
		if v[2] > m.Bounds[5] {
			m.Bounds[5] = v[2]
		}
	}
	if m.Bounds[1]-m.Bounds[0] < 1e-9 || m.Bounds[3]-m.Bounds[2] < 1e-9 || m.Bounds[5]-m.Bounds[4] < 1e-9 {
		return nil, chk.Err("mesh is zero-volume: bounds=%v", m.Bounds)
	}
	return m, nil
}

// Center returns the midpoint of the bounding box.
func (m *Mesh) Center() [3]float64 {
	return [3]float64{
		0.5 * (m.Bounds[0] + m.Bounds[1]),
		0.5 * (m.Bounds[2] + m.Bounds[3]),
		0.5 * (m.Bounds[4] + m.Bounds[5]),
	}
}

// aabb is an axis-aligned bounding box used by the BVH.
type aabb struct {
	lo, hi [3]float64
}

func (b aabb) hit(lo, hi [3]float64) bool {
	return b.lo[0] <= hi[0] && b.hi[0] >= lo[0] &&
		b.lo[1] <= hi[1] && b.hi[1] >= lo[1] &&
		b.lo[2] <= hi[2] && b.hi[2] >= lo[2]
}

// bvhNode is one node of the median-split AABB tree over triangles.
type bvhNode struct {
	box         aabb
	left, right *bvhNode
	tris        []int // leaf triangle indices; nil on internal nodes
}

// BVH accelerates ray/triangle queries for PointInside by pruning triangles
// whose bounding box cannot intersect the query ray's y-z column.
type BVH struct {
	mesh *Mesh
	root *bvhNode
}

const bvhLeafSize = 8

// BuildBVH constructs a median-split bounding volume hierarchy over m's
// triangles, generalizing the teacher's shp package "which cell contains
// this point" idiom from per-element natural coordinates to a per-triangle
// spatial index.
func BuildBVH(m *Mesh) *BVH {
	idx := make([]int, len(m.Triangles))
	for i := range idx {
		idx[i] = i
	}
	b := &BVH{mesh: m}
	b.root = b.build(idx)
	return b
}

func (b *BVH) triBox(t int) aabb {
	tri := b.mesh.Triangles[t]
	lo := b.mesh.Vertices[tri[0]]
	hi := lo
	for _, vi := range tri[1:] {
		v := b.mesh.Vertices[vi]
		for k := 0; k < 3; k++ {
			if v[k] < lo[k] {
				lo[k] = v[k]
			}
			if v[k] > hi[k] {
				hi[k] = v[k]
			}
		}
	}
	return aabb{lo: lo, hi: hi}
}

func (b *BVH) build(idx []int) *bvhNode {
	box := b.triBox(idx[0])
	for _, t := range idx[1:] {
		tb := b.triBox(t)
		for k := 0; k < 3; k++ {
			if tb.lo[k] < box.lo[k] {
				box.lo[k] = tb.lo[k]
			}
			if tb.hi[k] > box.hi[k] {
				box.hi[k] = tb.hi[k]
			}
		}
	}
	if len(idx) <= bvhLeafSize {
		return &bvhNode{box: box, tris: idx}
	}
	// split along the box's longest axis at the median triangle centroid
	axis := 0
	ext := box.hi[0] - box.lo[0]
	for k := 1; k < 3; k++ {
		if e := box.hi[k] - box.lo[k]; e > ext {
			ext, axis = e, k
		}
	}
	centroid := func(t int) float64 {
		tb := b.triBox(t)
		return 0.5 * (tb.lo[axis] + tb.hi[axis])
	}
	sort.Slice(idx, func(i, j int) bool { return centroid(idx[i]) < centroid(idx[j]) })
	mid := len(idx) / 2
	return &bvhNode{
		box:   box,
		left:  b.build(idx[:mid]),
		right: b.build(idx[mid:]),
	}
}

// PointInside tests whether p lies inside the closed surface via an
// even-odd ray-casting parity test: a ray is cast along +x from p, and the
// number of triangle crossings is counted, pruned by the BVH. An odd count
// means p is inside.
func (b *BVH) PointInside(p [3]float64) bool {
	count := 0
	b.castRay(b.root, p, &count)
	return count%2 == 1
}

func (b *BVH) castRay(n *bvhNode, p [3]float64, count *int) {
	if n == nil {
		return
	}
	// the ray only ever increases x, so prune on the y-z column and x>=lo
	if n.box.hi[1] < p[1] || n.box.lo[1] > p[1] || n.box.hi[2] < p[2] || n.box.lo[2] > p[2] {
		return
	}
	if n.box.hi[0] < p[0] {
		return
	}
	if n.tris != nil {
		for _, t := range n.tris {
			if rayTriangleYZ(b.mesh, t, p) {
				*count++
			}
		}
		return
	}
	b.castRay(n.left, p, count)
	b.castRay(n.right, p, count)
}

// rayTriangleYZ tests whether the ray {p + t*(1,0,0) : t >= 0} crosses
// triangle t's interior, using a 2-D (y,z) point-in-triangle test and
// solving for the x-intercept only on a hit. Edge/vertex grazes are
// resolved with a half-open convention (an edge's points belong to only
// one of the two triangles sharing it) so a ray through a shared edge
// between two triangles counts exactly once.
func rayTriangleYZ(m *Mesh, t int, p [3]float64) bool {
	tri := m.Triangles[t]
	a, b, c := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
	ay, az := a[1]-p[1], a[2]-p[2]
	by, bz := b[1]-p[1], b[2]-p[2]
	cy, cz := c[1]-p[1], c[2]-p[2]

	sign := func(y0, z0, y1, z1 float64) float64 { return y0*z1 - y1*z0 }
	d1 := sign(ay, az, by, bz)
	d2 := sign(by, bz, cy, cz)
	d3 := sign(cy, cz, ay, az)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	if hasNeg && hasPos {
		return false // straddles two half-planes: outside
	}
	// a point exactly on an edge (d == 0) belongs to the triangle only when
	// that edge, walked counter-clockwise in (y,z), runs towards -z (or
	// towards +y when horizontal); the two triangles sharing an edge walk
	// it in opposite directions, so exactly one of them counts it
	owns := func(d, y0, z0, y1, z1 float64) bool {
		ey, ez := y1-y0, z1-z0
		if hasNeg {
			ey, ez = -ey, -ez
		}
		return d != 0 || ez < 0 || (ez == 0 && ey > 0)
	}
	if !owns(d1, ay, az, by, bz) || !owns(d2, by, bz, cy, cz) || !owns(d3, cy, cz, ay, az) {
		return false
	}

	// barycentric x-intercept
	area := d1 + d2 + d3
	if math.Abs(area) < 1e-15 {
		return false // degenerate triangle
	}
	u := d2 / area
	v := d3 / area
	w := d1 / area
	x := u*a[0] + v*b[0] + w*c[0]
	return x >= p[0]
}
