// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/cpmech/flowtracer/sim"
)

func main() {

	verbose := true

	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	if mpi.Rank() == 0 {
		io.PfWhite("\nflowtracer -- gravity-driven fluid tracer simulator\n\n")
		io.Pf("Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n\n")
	}

	batch := flag.String("batch", "", "path to a JSON array of run requests, one per rank assignment")
	meshPath := flag.String("mesh", "", "mesh fixture path (single-run mode)")
	quality := flag.String("quality", "medium", "quality tier: low, medium, high")
	flowGPH := flag.Float64("flow", 60, "flow rate in gallons per hour")
	gx := flag.Float64("gx", 0, "gravity x component")
	gy := flag.Float64("gy", 0, "gravity y component")
	gz := flag.Float64("gz", -9.81, "gravity z component")
	sx := flag.Float64("sx", 0, "source point x (mm)")
	sy := flag.Float64("sy", 0, "source point y (mm)")
	sz := flag.Float64("sz", 0, "source point z (mm)")
	out := flag.String("out", "", "output artifact path")
	flag.Parse()

	var requests []sim.Request
	if *batch != "" {
		requests = loadBatch(*batch)
	} else {
		if *meshPath == "" {
			chk.Panic("Please provide -mesh or -batch\n")
		}
		requests = []sim.Request{{
			MeshPath:      *meshPath,
			Gravity:       [3]float64{*gx, *gy, *gz},
			SourcePointMM: [3]float64{*sx, *sy, *sz},
			FlowGPH:       *flowGPH,
			Quality:       *quality,
			OutputPath:    *out,
		}}
	}

	// disjoint processes with disjoint state: each rank claims the
	// requests at indices congruent to its own rank modulo the number of
	// ranks, never sharing a request or touching another rank's output.
	nproc := 1
	rank := 0
	if mpi.IsOn() {
		nproc = mpi.Size()
		rank = mpi.Rank()
	}

	p := &sim.Pipeline{Progress: func(s sim.State, prog float64, msg string) {
		if verbose {
			io.Pf("[rank %d] %-8s %5.1f%%  %s\n", rank, s, prog*100, msg)
		}
	}}

	for i, req := range requests {
		if i%nproc != rank {
			continue
		}
		_, rec := p.Run(context.Background(), req)
		if rec != nil {
			io.PfRed("[rank %d] run %q failed (%s): %s\n", rank, req.RunID, rec.Kind, rec.Message)
		}
	}
}

func loadBatch(path string) []sim.Request {
	buf, err := io.ReadFile(path)
	if err != nil {
		chk.Panic("cannot read batch manifest %q: %v", path, err)
	}
	var requests []sim.Request
	if err := json.Unmarshal(buf, &requests); err != nil {
		chk.Panic("cannot parse batch manifest %q: %v", path, err)
	}
	return requests
}
