// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cpmech/gosl/chk"
)

// LoadFixture reads the minimal ASCII mesh fixture format used by this
// repository's own tests and the orchestrator's mesh-path contract: a
// line with "nv nt" (vertex and triangle counts), followed by nv lines of
// "x y z", followed by nt lines of "i j k" (0-based vertex indices). This
// is infrastructure for testing the core end-to-end; it never parses a
// real STL/OBJ file — that parser is an external collaborator (§1).
func LoadFixture(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, chk.Err("cannot open mesh fixture %q: %v", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !sc.Scan() {
		return nil, chk.Err("mesh fixture %q is empty", path)
	}
	var nv, nt int
	if _, err := fmt.Sscanf(sc.Text(), "%d %d", &nv, &nt); err != nil {
		return nil, chk.Err("mesh fixture %q: bad header %q: %v", path, sc.Text(), err)
	}

	vertices := make([][3]float64, nv)
	for i := 0; i < nv; i++ {
		if !sc.Scan() {
			return nil, chk.Err("mesh fixture %q: expected %d vertices, ran out at %d", path, nv, i)
		}
		var x, y, z float64
		if _, err := fmt.Sscanf(sc.Text(), "%g %g %g", &x, &y, &z); err != nil {
			return nil, chk.Err("mesh fixture %q: bad vertex line %q: %v", path, sc.Text(), err)
		}
		vertices[i] = [3]float64{x, y, z}
	}

	triangles := make([][3]int, nt)
	for i := 0; i < nt; i++ {
		if !sc.Scan() {
			return nil, chk.Err("mesh fixture %q: expected %d triangles, ran out at %d", path, nt, i)
		}
		var a, b, c int
		if _, err := fmt.Sscanf(sc.Text(), "%d %d %d", &a, &b, &c); err != nil {
			return nil, chk.Err("mesh fixture %q: bad triangle line %q: %v", path, sc.Text(), err)
		}
		triangles[i] = [3]int{a, b, c}
	}

	return New(vertices, triangles)
}
