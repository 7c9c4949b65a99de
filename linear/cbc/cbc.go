// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cbc solves linear models with the COIN-OR CBC command line solver.
//
// The model is written to a temporary directory in LP format with obfuscated names,
// CBC is run on it, and its solution file is mapped back to variable indices.
package cbc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/mipsched/mipsched/linear"
)

// ErrNotFound is returned when the CBC binary cannot be located.
var ErrNotFound = errors.New("cbc binary not found")

const (
	modelFile    = "model.lp"
	startFile    = "start.sol"
	solutionFile = "out.sol"
)

// Solver runs the CBC binary. The zero value is not usable; call New.
type Solver struct {
	path      string
	workDir   string
	keepFiles bool
}

// Option configures a Solver.
type Option func(*Solver)

// WithPath sets the CBC binary. Bare names are looked up in PATH.
func WithPath(path string) Option {
	return func(s *Solver) {
		s.path = path
	}
}

// WithWorkDir sets the parent of the per-solve temporary directories. The default is
// os.TempDir().
func WithWorkDir(dir string) Option {
	return func(s *Solver) {
		s.workDir = dir
	}
}

// WithKeepFiles leaves the model and solution files on disk after the solve.
func WithKeepFiles(keep bool) Option {
	return func(s *Solver) {
		s.keepFiles = keep
	}
}

// New returns a CBC solver.
func New(opts ...Option) *Solver {
	s := &Solver{path: "cbc"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ linear.Solver = (*Solver)(nil)

// args returns the CBC command line for a solve in the current directory.
func args(params linear.Parameters, withStart bool) []string {
	a := []string{modelFile}
	if withStart {
		a = append(a, "mips", startFile)
	}
	if params.TimeLimit > 0 {
		a = append(a, "sec", strconv.FormatFloat(params.TimeLimit.Seconds(), 'g', -1, 64))
	}
	if params.RelativeGap > 0 {
		a = append(a, "ratio", strconv.FormatFloat(params.RelativeGap, 'g', -1, 64))
	}
	if params.Threads > 0 {
		a = append(a, "threads", strconv.Itoa(params.Threads))
	}
	return append(a, "solve", "solu", solutionFile)
}

// Solve writes `m` to disk, runs CBC on it and reads back the solution.
//
// A model that cannot be expressed in LP format yields a response with status
// ModelInvalid rather than an error. Errors are reserved for failures to run CBC.
func (s *Solver) Solve(ctx context.Context, m *linear.ModelData, params linear.Parameters) (*linear.Response, error) {
	bin, err := exec.LookPath(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	lp, err := linear.ExportModelAsLpFormat(m, linear.ExportOptions{Obfuscate: true})
	if err != nil {
		log.Warningf("model %q cannot be exported: %v", m.Name, err)
		return &linear.Response{Status: linear.ModelInvalid}, nil
	}

	dir := filepath.Join(s.workDir, "cbc-"+uuid.NewString())
	if s.workDir == "" {
		dir = filepath.Join(os.TempDir(), "cbc-"+uuid.NewString())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	if s.keepFiles {
		log.Infof("keeping CBC files in %s", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	if err := os.WriteFile(filepath.Join(dir, modelFile), []byte(lp), 0o644); err != nil {
		return nil, fmt.Errorf("writing model: %w", err)
	}
	withStart := m.Hint != nil && len(m.Hint.Vars) > 0
	if withStart {
		if err := os.WriteFile(filepath.Join(dir, startFile), formatStart(m.Hint), 0o644); err != nil {
			return nil, fmt.Errorf("writing MIP start: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, bin, args(params, withStart)...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	start := time.Now()
	runErr := cmd.Run()
	wall := time.Since(start)
	if log.V(2) {
		log.Infof("cbc output:\n%s", out.String())
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if runErr != nil {
		return nil, fmt.Errorf("running %s: %w\n%s", bin, runErr, out.String())
	}

	f, err := os.Open(filepath.Join(dir, solutionFile))
	if err != nil {
		return nil, fmt.Errorf("reading solution: %w", err)
	}
	defer f.Close()
	resp, err := parseSolution(f, len(m.Variables))
	if err != nil {
		return nil, err
	}
	resp.WallTime = wall
	if resp.Status.HasSolution() {
		resp.ObjectiveValue = linear.ObjectiveValue(m, resp.Values)
	}
	if resp.Status == linear.Infeasible && params.ComputeInfeasibleSubset {
		resp.InfeasibleSubset = linear.TriviallyInfeasible(m)
	}
	log.V(1).Infof("cbc finished model %q with status %v in %v", m.Name, resp.Status, wall)
	return resp, nil
}
