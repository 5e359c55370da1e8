// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interp

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func linearGrid() (*Grid, []float32) {
	g := &Grid{
		X: []float64{0, 1, 2, 3},
		Y: []float64{0, 1, 2},
		Z: []float64{0, 1},
	}
	field := make([]float32, g.Nx()*g.Ny()*g.Nz())
	for i, x := range g.X {
		for j, y := range g.Y {
			for k, z := range g.Z {
				field[(i*g.Ny()+j)*g.Nz()+k] = float32(x + 2*y + 3*z)
			}
		}
	}
	return g, field
}

func TestSampleExactAtNodes(tst *testing.T) {
	chk.PrintTitle("SampleExactAtNodes")
	g, field := linearGrid()
	for _, x := range g.X {
		for _, y := range g.Y {
			for _, z := range g.Z {
				got := g.Sample(field, [3]float64{x, y, z}, -999)
				chk.Scalar(tst, "node value", 1e-5, got, x+2*y+3*z)
			}
		}
	}
}

func TestSampleMidpoint(tst *testing.T) {
	chk.PrintTitle("SampleMidpoint")
	g, field := linearGrid()
	got := g.Sample(field, [3]float64{0.5, 0.5, 0.5}, -999)
	chk.Scalar(tst, "midpoint (linear field is exact)", 1e-5, got, 0.5+2*0.5+3*0.5)
}

func TestSampleOutsideReturnsSentinel(tst *testing.T) {
	chk.PrintTitle("SampleOutsideReturnsSentinel")
	g, field := linearGrid()
	got := g.Sample(field, [3]float64{-1, 0, 0}, -100)
	chk.Scalar(tst, "outside -x", 1e-12, got, -100)
	got = g.Sample(field, [3]float64{0, 0, 5}, -100)
	chk.Scalar(tst, "outside +z", 1e-12, got, -100)
}
