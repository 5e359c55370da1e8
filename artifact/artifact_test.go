// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func sampleArchive() *Archive {
	nx, ny, nz := 3, 4, 5
	n := nx * ny * nz
	solid := make([]uint8, n)
	fill := make([]float32, n)
	for i := range fill {
		fill[i] = float32(i) * 0.1
		if i%7 == 0 {
			solid[i] = 1
		}
	}
	frames := 2
	particles := 6
	traj := make([]float32, frames*particles*3)
	for i := range traj {
		traj[i] = float32(i)
	}
	return &Archive{
		XCoords:    []float32{0, 1, 2},
		YCoords:    []float32{0, 1, 2, 3},
		ZCoords:    []float32{0, 1, 2, 3, 4},
		Frames:     traj,
		NFrames:    frames,
		NParticles: particles,
		Solid:      solid,
		Nx:         nx,
		Ny:         ny,
		Nz:         nz,
		FillLevel:  fill,
	}
}

func TestWriteReadRoundTrip(tst *testing.T) {
	chk.PrintTitle("WriteReadRoundTrip")
	dir := tst.TempDir()
	path := filepath.Join(dir, "run.artifact")
	want := sampleArchive()

	if err := Write(path, want); err != nil {
		tst.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		tst.Fatalf("Read failed: %v", err)
	}

	if got.Nx != want.Nx || got.Ny != want.Ny || got.Nz != want.Nz {
		tst.Fatalf("dims mismatch: got (%d,%d,%d) want (%d,%d,%d)", got.Nx, got.Ny, got.Nz, want.Nx, want.Ny, want.Nz)
	}
	if got.NFrames != want.NFrames || got.NParticles != want.NParticles {
		tst.Fatalf("frame/particle count mismatch: got (%d,%d) want (%d,%d)", got.NFrames, got.NParticles, want.NFrames, want.NParticles)
	}
	for i := range want.XCoords {
		if got.XCoords[i] != want.XCoords[i] {
			tst.Errorf("x_coords[%d]: got %v want %v", i, got.XCoords[i], want.XCoords[i])
		}
	}
	for i := range want.FillLevel {
		if got.FillLevel[i] != want.FillLevel[i] {
			tst.Errorf("fill_level[%d]: got %v want %v", i, got.FillLevel[i], want.FillLevel[i])
		}
	}
	for i := range want.Solid {
		if got.Solid[i] != want.Solid[i] {
			tst.Errorf("solid[%d]: got %v want %v", i, got.Solid[i], want.Solid[i])
		}
	}
	for i := range want.Frames {
		if got.Frames[i] != want.Frames[i] {
			tst.Errorf("frames[%d]: got %v want %v", i, got.Frames[i], want.Frames[i])
		}
	}
}

func TestWriteIsAtomicNoTempLeftBehind(tst *testing.T) {
	chk.PrintTitle("WriteIsAtomicNoTempLeftBehind")
	dir := tst.TempDir()
	path := filepath.Join(dir, "run.artifact")
	if err := Write(path, sampleArchive()); err != nil {
		tst.Fatalf("Write failed: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, ".artifact-*.tmp"))
	if err != nil {
		tst.Fatalf("glob failed: %v", err)
	}
	if len(matches) != 0 {
		tst.Errorf("expected no leftover temp files, found %v", matches)
	}
}

func TestReadMissingFileErrors(tst *testing.T) {
	chk.PrintTitle("ReadMissingFileErrors")
	_, err := Read(filepath.Join(tst.TempDir(), "missing.artifact"))
	if err == nil {
		tst.Fatalf("expected error reading missing file")
	}
}
