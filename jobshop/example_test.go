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

package jobshop_test

import (
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/linear"
)

func ExampleNewModel() {
	x := jobshop.NewJob("X", 4, 2, 3)
	y := jobshop.NewJob("Y", 10, 4)
	inst := &jobshop.Instance{
		Jobs: []*jobshop.Job{x, y},
		Machines: []*jobshop.Machine{
			{ID: "M1", Cost: 1, Supported: []*jobshop.Task{x.Tasks[0], y.Tasks[0]}, SetupTimes: map[*jobshop.Job]float64{x: 1, y: 2}},
			{ID: "M2", Cost: 2, Supported: []*jobshop.Task{x.Tasks[1], y.Tasks[0]}, SetupTimes: map[*jobshop.Job]float64{y: 1}},
		},
	}

	m, err := jobshop.NewModel(inst, jobshop.Options{Objective: jobshop.MinMakespan})
	if err != nil {
		log.Exitf("NewModel returned with unexpected error %v", err)
	}
	data, err := m.Data()
	if err != nil {
		log.Exitf("Data returned with unexpected error %v", err)
	}
	fmt.Printf("variables: %d\n", len(data.Variables))
	fmt.Printf("constraints: %d\n", len(data.Constraints))
	fmt.Printf("big-M: %v\n", m.BigM())

	// Solve the model with the greedy plan standing in for a solver.
	plan, err := jobshop.GreedyPlan(inst)
	if err != nil {
		log.Exitf("GreedyPlan returned with unexpected error %v", err)
	}
	values, err := m.Values(plan)
	if err != nil {
		log.Exitf("Values returned with unexpected error %v", err)
	}
	solver := linear.SolverFunc(func(_ context.Context, md *linear.ModelData, _ linear.Parameters) (*linear.Response, error) {
		return &linear.Response{Status: linear.Optimal, Values: values, ObjectiveValue: linear.ObjectiveValue(md, values)}, nil
	})
	s, err := jobshop.Solve(context.Background(), m, solver, linear.Parameters{}, jobshop.DefaultExtractOptions)
	if err != nil {
		log.Exitf("Solve returned with unexpected error %v", err)
	}
	for _, ms := range s.Machines {
		for _, slot := range ms.Slots {
			fmt.Printf("%s r%d: %v [%v, %v]\n", ms.Machine.ID, slot.Rank, slot.Task, slot.Start, slot.End)
		}
	}
	fmt.Printf("makespan: %v\n", s.Makespan)
	// Output:
	// variables: 19
	// constraints: 45
	// big-M: 15
	// M1 r0: X_1 [0, 2]
	// M2 r0: Y_1 [0, 4]
	// M2 r1: X_2 [4, 7]
	// makespan: 7
}
