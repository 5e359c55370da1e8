// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sdf

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestSignFluidVsSolid(tst *testing.T) {
	chk.PrintTitle("SignFluidVsSolid")
	nx, ny, nz := 10, 10, 10
	solid := make([]bool, nx*ny*nz)
	idx := func(i, j, k int) int { return (i*ny+j)*nz + k }
	// solid slab at i<3
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if i < 3 {
					solid[idx(i, j, k)] = true
				}
			}
		}
	}
	f := Build(solid, nx, ny, nz, 1.0)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				v := f.Values[idx(i, j, k)]
				if solid[idx(i, j, k)] && v > 0 {
					tst.Errorf("solid cell (%d,%d,%d) has positive sdf %v", i, j, k, v)
				}
				if !solid[idx(i, j, k)] && v < 0 {
					tst.Errorf("fluid cell (%d,%d,%d) has negative sdf %v", i, j, k, v)
				}
			}
		}
	}
	// distance at the fluid cell right at the boundary (i=3) should be 1
	chk.Scalar(tst, "boundary fluid cell distance", 1e-9, f.Values[idx(3, 5, 5)], 1.0)
	// distance at i=9 (farthest from the slab, nearest solid at i=2) should be 7
	chk.Scalar(tst, "far fluid cell distance", 1e-9, f.Values[idx(9, 5, 5)], 7.0)
}

func TestLipschitzOne(tst *testing.T) {
	chk.PrintTitle("LipschitzOne")
	nx, ny, nz := 8, 8, 8
	solid := make([]bool, nx*ny*nz)
	idx := func(i, j, k int) int { return (i*ny+j)*nz + k }
	solid[idx(4, 4, 4)] = true
	f := Build(solid, nx, ny, nz, 1.0)
	for i := 0; i < nx-1; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				a := f.Values[idx(i, j, k)]
				b := f.Values[idx(i+1, j, k)]
				if math.Abs(a-b) > 1.0+1e-9 {
					tst.Errorf("not Lipschitz-1 along x at (%d,%d,%d): %v vs %v", i, j, k, a, b)
				}
			}
		}
	}
}
