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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mipsched/mipsched/linear"
)

// planResponse returns an optimal response holding the greedy plan of the small instance.
func planResponse(t *testing.T) (*Instance, *Model, *linear.Response) {
	t.Helper()
	inst := smallInstance()
	m, data := mustModel(t, inst, Options{})
	plan, err := GreedyPlan(inst)
	if err != nil {
		t.Fatalf("GreedyPlan() returned with unexpected error %v", err)
	}
	values, err := m.Values(plan)
	if err != nil {
		t.Fatalf("Values() returned with unexpected error %v", err)
	}
	return inst, m, &linear.Response{Status: linear.Optimal, Values: values, ObjectiveValue: linear.ObjectiveValue(data, values)}
}

func TestExtract(t *testing.T) {
	inst, m, resp := planResponse(t)
	x, y := inst.Jobs[0], inst.Jobs[1]
	m1, m2 := inst.Machines[0], inst.Machines[1]
	x1 := Slot{Task: x.Tasks[0], Machine: m1, Rank: 0, Start: 0, End: 2}
	x2 := Slot{Task: x.Tasks[1], Machine: m2, Rank: 1, Start: 4, End: 7}
	y1 := Slot{Task: y.Tasks[0], Machine: m2, Rank: 0, Start: 0, End: 4}

	got, err := Extract(m, resp, DefaultExtractOptions)
	if err != nil {
		t.Fatalf("Extract() returned with unexpected error %v", err)
	}
	want := &Schedule{
		Status:    linear.Optimal,
		Optimal:   true,
		Objective: resp.ObjectiveValue,
		LatestEnd: 7,
		Makespan:  7,
		Machines: []MachineSchedule{
			{Machine: m1, Slots: []Slot{x1}},
			{Machine: m2, Slots: []Slot{y1, x2}},
		},
		Jobs: []JobSchedule{
			{Job: x, Slots: []Slot{x1, x2}, Completion: 7, Delay: 3, ModelDelay: 3},
			{Job: y, Slots: []Slot{y1}, Completion: 4},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() returned with unexpected diff (-want+got):\n%s", diff)
	}

	again, err := Extract(m, resp, DefaultExtractOptions)
	if err != nil {
		t.Fatalf("Extract() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("second Extract() returned with unexpected diff (-first+second):\n%s", diff)
	}
}

func TestExtract_Rounding(t *testing.T) {
	inst, m, resp := planResponse(t)
	c := Candidate{Task: inst.Jobs[0].Tasks[1], Machine: inst.Machines[1], Rank: 1}
	start, _ := m.Start(c)
	assign, _ := m.Assign(c)
	resp.Values[start.Index()] = 4.0000001
	resp.Values[assign.Index()] = 0.9999

	s, err := Extract(m, resp, ExtractOptions{Granularity: 1})
	if err != nil {
		t.Fatalf("Extract() returned with unexpected error %v", err)
	}
	if got, want := s.Jobs[0].Slots[1].Start, 4.0; got != want {
		t.Errorf("start of X_2 = %v, want %v", got, want)
	}
}

func TestExtract_FractionalDurations(t *testing.T) {
	j := NewJob("J", 10, 1.99, 1)
	mc := &Machine{ID: "M", Cost: 1, Supported: j.Tasks}
	inst := &Instance{Jobs: []*Job{j}, Machines: []*Machine{mc}}
	m, data := mustModel(t, inst, Options{})
	plan := &Plan{Slots: []Slot{
		{Task: j.Tasks[0], Machine: mc, Rank: 0, Start: 0.5, End: 2.49},
		{Task: j.Tasks[1], Machine: mc, Rank: 1, Start: 2.49, End: 3.49},
	}}
	values, err := m.Values(plan)
	if err != nil {
		t.Fatalf("Values() returned with unexpected error %v", err)
	}
	if v := linear.Violations(data, values, 1e-9); len(v) != 0 {
		t.Fatalf("plan violates the model: %v", v)
	}

	resp := &linear.Response{Status: linear.Optimal, Values: values, ObjectiveValue: linear.ObjectiveValue(data, values)}
	s, err := Extract(m, resp, DefaultExtractOptions)
	if err != nil {
		t.Fatalf("Extract() returned with unexpected error %v", err)
	}
	got := []float64{s.Jobs[0].Slots[0].Start, s.Jobs[0].Slots[1].Start}
	if diff := cmp.Diff([]float64{1, 2}, got); diff != "" {
		t.Errorf("reported starts returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestExtract_Inconsistency(t *testing.T) {
	testCases := []struct {
		name     string
		edit     func(inst *Instance, m *Model, values []float64)
		wantTask func(inst *Instance) *Task
	}{
		{
			name: "NoCandidate",
			edit: func(inst *Instance, m *Model, values []float64) {
				v, _ := m.Assign(Candidate{inst.Jobs[0].Tasks[0], inst.Machines[0], 0})
				values[v.Index()] = 0.4
			},
			wantTask: func(inst *Instance) *Task { return inst.Jobs[0].Tasks[0] },
		},
		{
			name: "SeveralCandidates",
			edit: func(inst *Instance, m *Model, values []float64) {
				v, _ := m.Assign(Candidate{inst.Jobs[0].Tasks[0], inst.Machines[0], 1})
				values[v.Index()] = 0.6
			},
			wantTask: func(inst *Instance) *Task { return inst.Jobs[0].Tasks[0] },
		},
		{
			name: "RankCollision",
			edit: func(inst *Instance, m *Model, values []float64) {
				y1 := inst.Jobs[1].Tasks[0]
				old, _ := m.Assign(Candidate{y1, inst.Machines[1], 0})
				moved, _ := m.Assign(Candidate{y1, inst.Machines[0], 0})
				values[old.Index()], values[moved.Index()] = 0, 1
			},
			wantTask: func(inst *Instance) *Task { return inst.Jobs[1].Tasks[0] },
		},
		{
			name: "PrecedenceViolated",
			edit: func(inst *Instance, m *Model, values []float64) {
				v, _ := m.Start(Candidate{inst.Jobs[0].Tasks[1], inst.Machines[1], 1})
				values[v.Index()] = 1
			},
			wantTask: func(inst *Instance) *Task { return inst.Jobs[0].Tasks[1] },
		},
		{
			name: "MachineOverlap",
			edit: func(inst *Instance, m *Model, values []float64) {
				v, _ := m.Start(Candidate{inst.Jobs[1].Tasks[0], inst.Machines[1], 0})
				values[v.Index()] = 2
			},
			wantTask: func(inst *Instance) *Task { return inst.Jobs[0].Tasks[1] },
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			inst, m, resp := planResponse(t)
			test.edit(inst, m, resp.Values)

			_, err := Extract(m, resp, DefaultExtractOptions)
			if !errors.Is(err, ErrModelInconsistency) {
				t.Fatalf("Extract() err = %v, want %v", err, ErrModelInconsistency)
			}
			var ie *InconsistencyError
			if !errors.As(err, &ie) {
				t.Fatalf("Extract() err = %T, want *InconsistencyError", err)
			}
			if got, want := ie.Task, test.wantTask(inst); got != want {
				t.Errorf("Task = %v, want %v", got, want)
			}
		})
	}
}

func TestExtract_NoSolution(t *testing.T) {
	_, m, _ := planResponse(t)
	testCases := []struct {
		name string
		resp *linear.Response
	}{
		{name: "Nil"},
		{name: "Infeasible", resp: &linear.Response{Status: linear.Infeasible}},
		{name: "NoValues", resp: &linear.Response{Status: linear.Optimal}},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Extract(m, test.resp, DefaultExtractOptions); !errors.Is(err, ErrNoSolution) {
				t.Errorf("Extract() err = %v, want %v", err, ErrNoSolution)
			}
		})
	}
}
