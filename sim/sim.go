// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim orchestrates the full pipeline (spec §2): voxelize, solve,
// build the SDF, advect, and persist, driving a progress callback at
// coarse checkpoints (§5/§6) and propagating the layered error taxonomy
// of §7 into a RunRecord.
package sim

import (
	"context"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/google/uuid"

	"github.com/cpmech/flowtracer/advect"
	"github.com/cpmech/flowtracer/artifact"
	"github.com/cpmech/flowtracer/interp"
	"github.com/cpmech/flowtracer/lbm"
	"github.com/cpmech/flowtracer/mesh"
	"github.com/cpmech/flowtracer/sdf"
	"github.com/cpmech/flowtracer/voxel"
)

// State is the progress-callback state enumeration of §6.
type State string

const (
	StateQueued  State = "queued"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// ErrKind classifies a failure per the layered taxonomy of §7.
type ErrKind string

const (
	ErrBadInput       ErrKind = "bad_input"
	ErrDomainBuild    ErrKind = "domain_construction_failure"
	ErrSolverUnstable ErrKind = "solver_instability"
	ErrResource       ErrKind = "resource_exhaustion"
)

// Request is the external request contract of §6, provided by the
// orchestrator's caller. Fields carry JSON tags (mirroring the teacher's
// own inp.Simulation convention); cmd/flowtracer decodes its batch
// manifest into Requests through them.
type Request struct {
	RunID         string     `json:"run_id"`
	MeshPath      string     `json:"mesh_path"`
	Gravity       [3]float64 `json:"gravity"`
	SourcePointMM [3]float64 `json:"source_point_mm"`
	FlowGPH       float64    `json:"flow_gph"`
	Quality       string     `json:"quality"`

	// OutputPath, when non-empty, tells Run to write the compressed
	// output artifact atomically before reporting StateDone (§7 "Success
	// writes the artifact atomically"). Left empty, Run only returns
	// Result and the caller is responsible for persisting it.
	OutputPath string `json:"output_path"`

	// Mesh, when non-nil, supplies an already-parsed mesh directly,
	// bypassing MeshPath. The real mesh file parser is an external
	// collaborator (§1); this lets tests and callers that already have a
	// parsed mesh skip the in-repo ASCII fixture loader.
	Mesh *mesh.Mesh `json:"-"`
}

// RunRecord captures the error-kind + message + diagnostic trace
// propagation of §7.
type RunRecord struct {
	Kind    ErrKind
	Message string
	Trace   string
}

// QualityParams is one row of the fixed quality-tier table of §6.
type QualityParams struct {
	BaseRes    int
	Iterations int
	Frames     int
	Particles  int
	NuLBM      float64
}

// QualityTiers is the fixed table of §6.
var QualityTiers = map[string]QualityParams{
	"low":    {BaseRes: 128, Iterations: 800, Frames: 300, Particles: 15000, NuLBM: 0.08},
	"medium": {BaseRes: 192, Iterations: 1500, Frames: 450, Particles: 40000, NuLBM: 0.06},
	"high":   {BaseRes: 256, Iterations: 3000, Frames: 600, Particles: 80000, NuLBM: 0.05},
}

const (
	inletAreaRadiusM = 0.010
	nuPhysM2S        = 1.004e-6
	gphToM3S         = 3.785411784e-3 / 3600.0
)

// InletSpeedLBM derives the lattice-unit inlet speed from a physical flow
// rate, per §6 "Inlet speed derivation".
func InletSpeedLBM(flowGPH, nuLBM, dxM float64) float64 {
	q := flowGPH * gphToM3S
	area := math.Pi * inletAreaRadiusM * inletAreaRadiusM
	uPhys := q / area
	dt := nuLBM * dxM * dxM / nuPhysM2S
	uLBM := uPhys * dt / dxM
	if uLBM < 0.001 {
		uLBM = 0.001
	}
	if uLBM > 0.08 {
		uLBM = 0.08
	}
	return uLBM
}

// ProgressFunc matches §6's progress callback contract.
type ProgressFunc func(state State, progress float64, message string)

// Pipeline drives voxelize -> LBM -> SDF -> advect -> persist for one
// Request, per §2's linear stage sequencing.
type Pipeline struct {
	Progress ProgressFunc
}

// Result bundles everything Run produces; Domain/Solver/Advector are
// exposed for diagnostics (package diag) and tests.
type Result struct {
	Domain   *voxel.Domain
	Solver   *lbm.Solver
	SDF      *sdf.Field
	Advector *advect.Advector
	Frames   []float32 // (F,N,3) flattened
}

// Run executes the full pipeline for req, reporting checkpoints to
// p.Progress and returning a non-nil RunRecord (with state already
// reported as StateError) on any failure. No partial artifact is ever
// written: the artifact is only written, atomically, after every stage
// has succeeded and only when req.OutputPath is set.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, rec *RunRecord) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	report := func(s State, prog float64, msg string) {
		if p.Progress != nil {
			p.Progress(s, prog, msg)
		}
	}
	fail := func(kind ErrKind, format string, args ...interface{}) (*Result, *RunRecord) {
		msg := io.Sf(format, args...)
		report(StateError, 1.0, msg)
		return nil, &RunRecord{Kind: kind, Message: msg}
	}

	report(StateRunning, 0.01, "loading mesh")
	qp, ok := QualityTiers[req.Quality]
	if !ok {
		return fail(ErrBadInput, "unrecognized quality tier %q", req.Quality)
	}

	m := req.Mesh
	var err error
	if m == nil {
		m, err = loadMeshFile(req.MeshPath)
		if err != nil {
			return fail(ErrBadInput, "cannot load mesh %q: %v", req.MeshPath, err)
		}
	}

	if ctx != nil && ctx.Err() != nil {
		return fail(ErrBadInput, "cancelled before voxelization: %v", ctx.Err())
	}

	report(StateRunning, 0.05, "voxelizing")
	dom, err := voxel.Build(m, req.Gravity, req.SourcePointMM, qp.BaseRes, qp.NuLBM)
	if err != nil {
		return fail(ErrDomainBuild, "voxelization failed: %v", err)
	}

	need := estimateBytes(dom.Nx, dom.Ny, dom.Nz, qp.Particles, qp.Frames)
	if need > maxBudgetBytes {
		return fail(ErrResource, "grid %dx%dx%d with %d particles over %d frames needs ~%d bytes, exceeds budget", dom.Nx, dom.Ny, dom.Nz, qp.Particles, qp.Frames, need)
	}

	report(StateRunning, 0.12, "initializing LBM")
	uIn := InletSpeedLBM(req.FlowGPH, qp.NuLBM, dom.DxM)
	solver := lbm.New(dom.Nx, dom.Ny, dom.Nz, dom.Solid, dom.Inlet, dom.Outlet, qp.NuLBM, dom.GravityLBM, uIn, dom.GravityDir)

	if ctx != nil && ctx.Err() != nil {
		return fail(ErrBadInput, "cancelled before LBM run: %v", ctx.Err())
	}

	solver.Run(qp.Iterations, func(iter, total int) {
		report(StateRunning, 0.12+0.58*float64(iter)/float64(total), io.Sf("LBM iteration %d/%d", iter, total))
	})

	report(StateRunning, 0.72, "building signed distance field")
	spacing := func(c []float64) float64 { return (c[len(c)-1] - c[0]) / float64(len(c)-1) }
	avgDxMM := (spacing(dom.XCoords) + spacing(dom.YCoords) + spacing(dom.ZCoords)) / 3.0
	field := sdf.Build(dom.Solid, dom.Nx, dom.Ny, dom.Nz, avgDxMM)

	if ctx != nil && ctx.Err() != nil {
		return fail(ErrBadInput, "cancelled before advection: %v", ctx.Err())
	}

	report(StateRunning, 0.78, "advecting particles")
	grid := interp.Grid{X: dom.XCoords, Y: dom.YCoords, Z: dom.ZCoords}
	adv := advect.New(grid, solver.Ux, solver.Uy, solver.Uz, float32SDF(field.Values), dom.Bounds(), dom.SourcePointMM, dom.GravityDir, qp.Particles, qp.Frames)
	frames := make([]float32, qp.Frames*qp.Particles*3)
	for f := 0; f < qp.Frames; f++ {
		adv.StepFrame(f, frames[f*qp.Particles*3:(f+1)*qp.Particles*3])
	}

	report(StateRunning, 0.95, "result ready")

	result := &Result{Domain: dom, Solver: solver, SDF: field, Advector: adv, Frames: frames}

	if req.OutputPath != "" {
		report(StateRunning, 0.97, "writing artifact")
		if err := artifact.Write(req.OutputPath, toArchive(result, qp)); err != nil {
			return fail(ErrResource, "cannot write artifact: %v", err)
		}
	}

	report(StateDone, 1.0, "done")
	return result, nil
}

// toArchive assembles the §6 output artifact's named arrays from a Result.
func toArchive(res *Result, qp QualityParams) *artifact.Archive {
	dom := res.Domain
	n := dom.Nx * dom.Ny * dom.Nz
	solid := make([]uint8, n)
	for i, b := range dom.Solid {
		if b {
			solid[i] = 1
		}
	}
	return &artifact.Archive{
		XCoords:    f64to32(dom.XCoords),
		YCoords:    f64to32(dom.YCoords),
		ZCoords:    f64to32(dom.ZCoords),
		Frames:     res.Frames,
		NFrames:    qp.Frames,
		NParticles: qp.Particles,
		Solid:      solid,
		Nx:         dom.Nx,
		Ny:         dom.Ny,
		Nz:         dom.Nz,
		FillLevel:  res.Solver.FillLevel,
	}
}

func f64to32(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = float32(x)
	}
	return out
}

func float32SDF(vals []float64) []float32 {
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

const maxBudgetBytes = int64(8) << 30 // 8 GiB, a conservative single-process ceiling

func estimateBytes(nx, ny, nz, nParticles, frames int) int64 {
	n := int64(nx) * int64(ny) * int64(nz)
	distBytes := int64(19) * n * 4 * 2 // double-buffered f
	macroBytes := n * 4 * 5            // rho, ux, uy, uz, fill
	particleBytes := int64(frames) * int64(nParticles) * 3 * 4
	return distBytes + macroBytes + particleBytes
}

// loadMeshFile loads the tiny ASCII fixture format documented in
// mesh/fixture.go. It is infrastructure for testing the core end-to-end,
// never a real STL/OBJ parser (§1).
func loadMeshFile(path string) (*mesh.Mesh, error) {
	if path == "" {
		return nil, chk.Err("empty mesh path")
	}
	return mesh.LoadFixture(path)
}
