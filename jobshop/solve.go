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

package jobshop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/golang/glog"

	"github.com/mipsched/mipsched/linear"
)

// ErrInfeasible is returned when the solver proves that no schedule exists.
var ErrInfeasible = errors.New("instance is infeasible")

// InfeasibleError carries the conflicting constraints reported for an infeasible model.
type InfeasibleError struct {
	// Subset holds constraint names, empty when no subset is known.
	Subset []string
}

func (e *InfeasibleError) Error() string {
	if len(e.Subset) == 0 {
		return ErrInfeasible.Error()
	}
	return fmt.Sprintf("%v: conflicting constraints: %s", ErrInfeasible, strings.Join(e.Subset, ", "))
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}

// Solve solves `m` with `solver` and extracts the schedule.
//
// A solve stopped by a limit with an incumbent is returned with Schedule.Optimal set to
// false; its objective is only an upper bound. An infeasible model yields an
// *InfeasibleError. When the solver gives no conflicting subset, rows that cannot be
// satisfied on their own, such as the assignment row of an unsupported task, are
// reported instead.
func Solve(ctx context.Context, m *Model, solver linear.Solver, params linear.Parameters, opts ExtractOptions) (*Schedule, error) {
	data, err := m.Data()
	if err != nil {
		return nil, err
	}
	if log.V(1) {
		if fp, err := linear.Fingerprint(data); err == nil {
			log.Infof("solving model %016x with %d variables and %d constraints, time limit %v",
				fp, len(data.Variables), len(data.Constraints), params.TimeLimit)
		}
	}

	resp, err := solver.Solve(ctx, data, params)
	if err != nil {
		return nil, fmt.Errorf("solving job-shop model: %w", err)
	}
	switch resp.Status {
	case linear.Optimal:
	case linear.Feasible:
		log.Warningf("solver stopped before proving optimality, objective %v is an upper bound", resp.ObjectiveValue)
	case linear.Infeasible:
		subset := resp.InfeasibleSubset
		if len(subset) == 0 {
			subset = linear.TriviallyInfeasible(data)
		}
		return nil, &InfeasibleError{Subset: subset}
	default:
		return nil, fmt.Errorf("%w: solver status %v", ErrNoSolution, resp.Status)
	}
	return Extract(m, resp, opts)
}
