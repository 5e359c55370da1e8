// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag holds optional, opt-in diagnostic plots: a convergence
// curve (mean velocity along gravity vs. LBM iteration) and a family of
// fill-level curves across the z mid-plane. Neither is invoked by the
// core pipeline; a caller
// wires them in explicitly, e.g. from a CLI flag.
package diag

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/plt"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/flowtracer/lbm"
)

// PlotConvergence draws mean velocity along gravity against LBM
// iteration, sampled by the caller during Solver.Run via its progress
// callback. history[i] is the mean velocity recorded at checkpoint i.
func PlotConvergence(history []float64, nIter int, dirout, fname string) {
	if len(history) == 0 {
		chk.Panic("cannot plot convergence: empty history")
	}
	x := utl.LinSpace(0, float64(nIter), len(history))
	plt.Plot(x, history, "'b-', clip_on=0, color='#0397dc'")
	l := len(history) - 1
	plt.Text(x[0], history[0], io.Sf("(%g, %g)", x[0], history[0]), "ha='left', color='red', size=8")
	plt.Text(x[l], history[l], io.Sf("(%g, %g)", x[l], history[l]), "ha='right', color='red', size=8")
	plt.Gll("$iteration$", "$\\bar{u}\\cdot\\hat{g}$", "")
	plt.SaveD(dirout, fname)
}

// PlotFillSlice draws fill_level along x for every stride-th y row
// (stride max(1, ny/8)) of the mid-plane perpendicular to the z axis
// (k = nz/2), one curve per row, the same way
// the teacher overlays a family of curves for different parameter values
// rather than a true 2D contour (no contour plotter appears anywhere in
// the teacher's own plotting code, so this sticks to what it actually
// does: repeated plt.Plot calls plus a shared Gll).
func PlotFillSlice(s *lbm.Solver, nx, ny, nz int, dirout, fname string) {
	if nx == 0 || ny == 0 || nz == 0 {
		chk.Panic("cannot plot fill slice: empty domain")
	}
	k := nz / 2
	x := make([]float64, nx)
	for i := 0; i < nx; i++ {
		x[i] = float64(i)
	}
	stride := int(utl.Max(1, float64(ny)/8))
	for j := 0; j < ny; j += stride {
		row := make([]float64, nx)
		for i := 0; i < nx; i++ {
			idx := (i*ny+j)*nz + k
			row[i] = float64(s.FillLevel[idx])
		}
		plt.Plot(x, row, io.Sf("label='y=%d'", j))
	}
	plt.Gll("$x$", "$fill\\_level$", "")
	plt.SaveD(dirout, fname)
}
