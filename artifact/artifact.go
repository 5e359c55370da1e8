// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package artifact writes and reads the output artifact of §6: a
// compressed archive of named arrays (coordinate axes, the particle
// trajectory tensor, the solid mask, and the final fill level). No
// library in the teacher or the rest of the pack implements "compressed
// named multi-dimensional arrays", so the wire format here is built from
// scratch on top of archive/tar + compress/gzip, following the teacher's
// own atomic write-then-rename idiom for result files.
package artifact

import (
	"archive/tar"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"

	gchk "github.com/cpmech/gosl/chk"
	gio "github.com/cpmech/gosl/io"
)

// Header describes one named array's shape and element type.
type Header struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"` // "f32" or "u8"
}

// Archive is the in-memory form of the output artifact of §6.
type Archive struct {
	XCoords    []float32 // (nx,)
	YCoords    []float32 // (ny,)
	ZCoords    []float32 // (nz,)
	Frames     []float32 // (F,N,3) flattened
	NFrames    int
	NParticles int
	Solid      []uint8 // (nx,ny,nz) flattened
	Nx, Ny, Nz int
	FillLevel  []float32 // (nx,ny,nz) flattened
}

const headerFileName = "_header.json"

// Write serializes a to path atomically: it is written to a temporary
// path in the same directory first, then renamed into place, so a
// failure mid-write never leaves a partial artifact (§7).
func Write(path string, a *Archive) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return gchk.Err("cannot create temp artifact file in %q: %v", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	headers := []Header{
		{Name: "x_coords", Shape: []int{len(a.XCoords)}, Dtype: "f32"},
		{Name: "y_coords", Shape: []int{len(a.YCoords)}, Dtype: "f32"},
		{Name: "z_coords", Shape: []int{len(a.ZCoords)}, Dtype: "f32"},
		{Name: "frames", Shape: []int{a.NFrames, a.NParticles, 3}, Dtype: "f32"},
		{Name: "solid", Shape: []int{a.Nx, a.Ny, a.Nz}, Dtype: "u8"},
		{Name: "fill_level", Shape: []int{a.Nx, a.Ny, a.Nz}, Dtype: "f32"},
	}
	hdrBytes, err := json.Marshal(headers)
	if err != nil {
		tw.Close()
		gz.Close()
		tmp.Close()
		return gchk.Err("cannot marshal artifact header: %v", err)
	}
	if err = writeEntry(tw, headerFileName, hdrBytes); err != nil {
		tw.Close()
		gz.Close()
		tmp.Close()
		return err
	}
	if err = writeEntry(tw, "x_coords", f32Bytes(a.XCoords)); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}
	if err = writeEntry(tw, "y_coords", f32Bytes(a.YCoords)); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}
	if err = writeEntry(tw, "z_coords", f32Bytes(a.ZCoords)); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}
	if err = writeEntry(tw, "frames", f32Bytes(a.Frames)); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}
	if err = writeEntry(tw, "solid", a.Solid); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}
	if err = writeEntry(tw, "fill_level", f32Bytes(a.FillLevel)); err != nil {
		return closeAndReturn(tw, gz, tmp, err)
	}

	if err = tw.Close(); err != nil {
		tmp.Close()
		return gchk.Err("cannot close tar writer: %v", err)
	}
	if err = gz.Close(); err != nil {
		tmp.Close()
		return gchk.Err("cannot close gzip writer: %v", err)
	}
	if err = tmp.Close(); err != nil {
		return gchk.Err("cannot close temp artifact file: %v", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return gchk.Err("cannot rename %q to %q: %v", tmpPath, path, err)
	}
	gio.Pf("> [artifact] wrote %q\n", path)
	return nil
}

func closeAndReturn(tw *tar.Writer, gz *gzip.Writer, tmp *os.File, err error) error {
	tw.Close()
	gz.Close()
	tmp.Close()
	return err
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0644}
	if err := tw.WriteHeader(hdr); err != nil {
		return gchk.Err("cannot write tar header for %q: %v", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return gchk.Err("cannot write tar entry %q: %v", name, err)
	}
	return nil
}

func f32Bytes(xs []float32) []byte {
	out := make([]byte, 4*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(x))
	}
	return out
}

// Read loads an Archive previously written by Write.
func Read(path string) (a *Archive, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gchk.Err("cannot open artifact %q: %v", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, gchk.Err("cannot open gzip stream in %q: %v", path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	a = &Archive{}
	var headers []Header
	raw := map[string][]byte{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, gchk.Err("cannot read tar entry in %q: %v", path, err)
		}
		buf := make([]byte, hdr.Size)
		if _, err := io.ReadFull(tr, buf); err != nil {
			return nil, gchk.Err("cannot read tar entry %q in %q: %v", hdr.Name, path, err)
		}
		if hdr.Name == headerFileName {
			if err := json.Unmarshal(buf, &headers); err != nil {
				return nil, gchk.Err("cannot parse artifact header in %q: %v", path, err)
			}
			continue
		}
		raw[hdr.Name] = buf
	}

	for _, h := range headers {
		switch h.Name {
		case "x_coords":
			a.XCoords = bytesToF32(raw["x_coords"])
		case "y_coords":
			a.YCoords = bytesToF32(raw["y_coords"])
		case "z_coords":
			a.ZCoords = bytesToF32(raw["z_coords"])
		case "frames":
			a.Frames = bytesToF32(raw["frames"])
			a.NFrames, a.NParticles = h.Shape[0], h.Shape[1]
		case "solid":
			a.Solid = raw["solid"]
			a.Nx, a.Ny, a.Nz = h.Shape[0], h.Shape[1], h.Shape[2]
		case "fill_level":
			a.FillLevel = bytesToF32(raw["fill_level"])
		}
	}
	return a, nil
}

func bytesToF32(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
