// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package advect

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/flowtracer/interp"
)

func flatFields(nx, ny, nz int) (ux, uy, uz, sdf []float32) {
	n := nx * ny * nz
	ux = make([]float32, n)
	uy = make([]float32, n)
	uz = make([]float32, n)
	sdf = make([]float32, n)
	for i := range sdf {
		sdf[i] = 50 // deep fluid everywhere
	}
	return
}

func grid10() interp.Grid {
	axis := make([]float64, 21)
	for i := range axis {
		axis[i] = float64(i) * 5 // 0..100mm
	}
	return interp.Grid{X: axis, Y: axis, Z: axis}
}

func TestReproducibility(tst *testing.T) {
	chk.PrintTitle("Reproducibility")
	g := grid10()
	ux, uy, uz, sdf := flatFields(21, 21, 21)
	bounds := [6]float64{0, 100, 0, 100, 0, 100}
	src := [3]float64{50, 50, 50}
	gdir := [3]float64{0, 0, -1}

	a1 := New(g, ux, uy, uz, sdf, bounds, src, gdir, 50, 20)
	a2 := New(g, ux, uy, uz, sdf, bounds, src, gdir, 50, 20)

	out1 := make([]float32, 50*3)
	out2 := make([]float32, 50*3)
	for f := 0; f < 20; f++ {
		a1.StepFrame(f, out1)
		a2.StepFrame(f, out2)
		for i := range out1 {
			if out1[i] != out2[i] {
				tst.Fatalf("frame %d mismatch at %d: %v vs %v", f, i, out1[i], out2[i])
			}
		}
	}
}

func TestEmptyBoxParticlesFallUnderGravity(tst *testing.T) {
	chk.PrintTitle("EmptyBoxParticlesFallUnderGravity")
	g := grid10()
	ux, uy, uz, sdf := flatFields(21, 21, 21)
	bounds := [6]float64{0, 100, 0, 100, 0, 100}
	src := [3]float64{50, 50, 50}
	gdir := [3]float64{0, 0, -1}

	frames := 40
	a := New(g, ux, uy, uz, sdf, bounds, src, gdir, 200, frames)
	out := make([]float32, 200*3)
	var meanZFirst, meanZLast float64
	for f := 0; f < frames; f++ {
		a.StepFrame(f, out)
		var sumZ float64
		for i := 0; i < 200; i++ {
			sumZ += float64(out[i*3+2])
		}
		mean := sumZ / 200
		if f == 0 {
			meanZFirst = mean
		}
		if f == frames-1 {
			meanZLast = mean
		}
	}
	if meanZLast >= meanZFirst {
		tst.Errorf("expected mean z to decrease: first=%v last=%v", meanZFirst, meanZLast)
	}
}

func TestSpeedCapIsRespected(tst *testing.T) {
	chk.PrintTitle("SpeedCapIsRespected")
	g := grid10()
	ux, uy, uz, sdf := flatFields(21, 21, 21)
	// strong uniform velocity field to try to exceed the cap
	for i := range ux {
		ux[i] = 1000
	}
	bounds := [6]float64{0, 100, 0, 100, 0, 100}
	src := [3]float64{50, 50, 50}
	gdir := [3]float64{0, 0, -1}
	a := New(g, ux, uy, uz, sdf, bounds, src, gdir, 10, 30)
	out := make([]float32, 10*3)
	for f := 0; f < 30; f++ {
		a.StepFrame(f, out)
	}
	for _, p := range a.Particles() {
		speed := math.Sqrt(p.Vel[0]*p.Vel[0] + p.Vel[1]*p.Vel[1] + p.Vel[2]*p.Vel[2])
		if speed > a.K.OverallSpeedCap+1e-6 {
			tst.Errorf("speed %v exceeds cap %v", speed, a.K.OverallSpeedCap)
		}
	}
}

func TestRespawnFarOutsideDomain(tst *testing.T) {
	chk.PrintTitle("RespawnFarOutsideDomain")
	g := grid10()
	ux, uy, uz, sdf := flatFields(21, 21, 21)
	bounds := [6]float64{0, 100, 0, 100, 0, 100}
	src := [3]float64{50, 50, 50}
	gdir := [3]float64{0, 0, -1}
	a := New(g, ux, uy, uz, sdf, bounds, src, gdir, 1, 5)
	p := &a.particles[0]
	p.BirthFrame = 0
	p.Pos = [3]float64{5000, 5000, 5000} // far outside one domain extent
	p.Vel = [3]float64{0, 0, 0}
	out := make([]float32, 3)
	a.StepFrame(1, out)
	np := a.Particles()[0]
	d := math.Sqrt(math.Pow(np.Pos[0]-src[0], 2) + math.Pow(np.Pos[1]-src[1], 2) + math.Pow(np.Pos[2]-src[2], 2))
	if d > a.K.EmitRadius+1e-6 {
		tst.Errorf("expected respawn near source, got pos=%v (dist=%v)", np.Pos, d)
	}
	if np.Age != 0 {
		tst.Errorf("expected age reset to 0 after respawn, got %d", np.Age)
	}
}
