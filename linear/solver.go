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

package linear

import (
	"context"
	"fmt"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	// NotSolved means the solver has not run.
	NotSolved Status = iota
	// Optimal means the returned solution is proven optimal.
	Optimal
	// Feasible means a solution was found but a limit stopped the search before
	// optimality was proven. The objective value is an upper bound for minimization.
	Feasible
	// Infeasible means the model has no solution.
	Infeasible
	// Unbounded means the objective can be improved indefinitely.
	Unbounded
	// ModelInvalid means the model could not be handed to the solver.
	ModelInvalid
	// Unknown means the solver stopped without a solution and without a proof.
	Unknown
)

var statusNames = map[Status]string{
	NotSolved:    "NOT_SOLVED",
	Optimal:      "OPTIMAL",
	Feasible:     "FEASIBLE",
	Infeasible:   "INFEASIBLE",
	Unbounded:    "UNBOUNDED",
	ModelInvalid: "MODEL_INVALID",
	Unknown:      "UNKNOWN",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether a response with this status carries variable values.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Parameters are the solver settings shared by all adapters.
type Parameters struct {
	// TimeLimit bounds the wall time of the solve. Zero means no limit.
	TimeLimit time.Duration
	// RelativeGap stops the search once the relative MIP gap is reached. Zero keeps the
	// solver default.
	RelativeGap float64
	// ComputeInfeasibleSubset asks for a conflicting set of constraints when the model is
	// infeasible.
	ComputeInfeasibleSubset bool
	// Threads is the number of solver threads. Zero keeps the solver default.
	Threads int
}

// Response is the result of a solve.
type Response struct {
	Status         Status
	ObjectiveValue float64
	// Values holds one value per variable, indexed by VarIndex. It is empty when the
	// status carries no solution.
	Values []float64
	// InfeasibleSubset holds the names of conflicting constraints, when available.
	InfeasibleSubset []string
	WallTime         time.Duration
}

// Solver solves a model.
type Solver interface {
	Solve(ctx context.Context, m *ModelData, params Parameters) (*Response, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, m *ModelData, params Parameters) (*Response, error)

// Solve calls f(ctx, m, params).
func (f SolverFunc) Solve(ctx context.Context, m *ModelData, params Parameters) (*Response, error) {
	return f(ctx, m, params)
}

// SolutionValue returns the value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) float64 {
	return la.evaluate(r.Values)
}

// SolutionBooleanValue returns whether the value of `v` in the response exceeds `tol`.
func SolutionBooleanValue(r *Response, v Var, tol float64) bool {
	return v.evaluate(r.Values) > tol
}
