// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// box returns the 8 vertices and 12 triangles of an axis-aligned box.
func box(x0, x1, y0, y1, z0, z1 float64) *Mesh {
	v := [][3]float64{
		{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
		{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
	}
	tris := [][3]int{
		{0, 1, 2}, {0, 2, 3}, // bottom z0
		{4, 6, 5}, {4, 7, 6}, // top z1
		{0, 4, 5}, {0, 5, 1}, // y0
		{3, 2, 6}, {3, 6, 7}, // y1
		{0, 3, 7}, {0, 7, 4}, // x0
		{1, 5, 6}, {1, 6, 2}, // x1
	}
	m, err := New(v, tris)
	if err != nil {
		panic(err)
	}
	return m
}

func TestPointInsideBox(tst *testing.T) {
	chk.PrintTitle("PointInsideBox")
	m := box(0, 100, 0, 100, 0, 100)
	bvh := BuildBVH(m)
	inside := []([3]float64){
		{50, 50, 50}, {1, 1, 1}, {99, 99, 99},
	}
	for _, p := range inside {
		if !bvh.PointInside(p) {
			tst.Errorf("expected %v inside", p)
		}
	}
	outside := []([3]float64){
		{-1, 50, 50}, {150, 50, 50}, {50, -1, 50}, {50, 50, 150},
	}
	for _, p := range outside {
		if bvh.PointInside(p) {
			tst.Errorf("expected %v outside", p)
		}
	}
}

func TestZeroVolumeMesh(tst *testing.T) {
	chk.PrintTitle("ZeroVolumeMesh")
	v := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	_, err := New(v, [][3]int{{0, 1, 2}})
	if err == nil {
		tst.Errorf("expected zero-volume error")
	}
}

func TestBoundsAndCenter(tst *testing.T) {
	chk.PrintTitle("BoundsAndCenter")
	m := box(-10, 10, 0, 20, 5, 25)
	chk.Scalar(tst, "x0", 1e-15, m.Bounds[0], -10)
	chk.Scalar(tst, "x1", 1e-15, m.Bounds[1], 10)
	c := m.Center()
	chk.Scalar(tst, "cx", 1e-15, c[0], 0)
	chk.Scalar(tst, "cy", 1e-15, c[1], 10)
	chk.Scalar(tst, "cz", 1e-15, c[2], 15)
}
