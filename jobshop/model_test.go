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
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mipsched/mipsched/linear"
)

// smallInstance has two jobs sharing two machines:
//
//	X: steps of 2 and 3, due at 4; Y: one step of 4, due at 10.
//	M1 (cost 1) runs X_1 and Y_1; M2 (cost 2) runs X_2 and Y_1.
func smallInstance() *Instance {
	x := NewJob("X", 4, 2, 3)
	y := NewJob("Y", 10, 4)
	m1 := &Machine{ID: "M1", Cost: 1, Supported: []*Task{x.Tasks[0], y.Tasks[0]}, SetupTimes: map[*Job]float64{x: 1, y: 2}}
	m2 := &Machine{ID: "M2", Cost: 2, Supported: []*Task{x.Tasks[1], y.Tasks[0]}, SetupTimes: map[*Job]float64{x: 0, y: 1}}
	return &Instance{Jobs: []*Job{x, y}, Machines: []*Machine{m1, m2}}
}

func mustModel(t *testing.T, inst *Instance, opts Options) (*Model, *linear.ModelData) {
	t.Helper()
	m, err := NewModel(inst, opts)
	if err != nil {
		t.Fatalf("NewModel() returned with unexpected error %v", err)
	}
	data, err := m.Data()
	if err != nil {
		t.Fatalf("Data() returned with unexpected error %v", err)
	}
	return m, data
}

func rowByName(t *testing.T, data *linear.ModelData, name string) *linear.RowData {
	t.Helper()
	for _, row := range data.Constraints {
		if row.Name == name {
			return row
		}
	}
	t.Fatalf("no constraint named %q", name)
	return nil
}

func countRows(data *linear.ModelData, prefix string) int {
	n := 0
	for _, row := range data.Constraints {
		if strings.HasPrefix(row.Name, prefix) {
			n++
		}
	}
	return n
}

func TestBigM(t *testing.T) {
	if got, want := BigM(smallInstance()), 15.0; got != want {
		t.Errorf("BigM() = %v, want %v", got, want)
	}
}

func TestNewModel_Structure(t *testing.T) {
	m, data := mustModel(t, smallInstance(), Options{})

	if got, want := len(data.Variables), 19; got != want {
		t.Errorf("len(Variables) = %d, want %d", got, want)
	}
	testCases := []struct {
		prefix string
		want   int
	}{
		{prefix: "assignment_", want: 3},
		{prefix: "rank_exclusive_", want: 4},
		{prefix: "precedence_", want: 2},
		{prefix: "start_lb_", want: 8},
		{prefix: "start_ub_", want: 8},
		{prefix: "sequence_", want: 4},
		{prefix: "tardiness_", want: 6},
		{prefix: "makespan_", want: 8},
		{prefix: "rank_contiguous_", want: 2},
	}
	for _, test := range testCases {
		if got := countRows(data, test.prefix); got != test.want {
			t.Errorf("rows named %s* = %d, want %d", test.prefix, got, test.want)
		}
	}
	if got, want := len(data.Constraints), 45; got != want {
		t.Errorf("len(Constraints) = %d, want %d", got, want)
	}
	for _, mc := range m.Instance().Machines {
		if got, want := m.Ranks(mc), 2; got != want {
			t.Errorf("Ranks(%s) = %d, want %d", mc.ID, got, want)
		}
	}
}

func TestNewModel_Rows(t *testing.T) {
	inst := smallInstance()
	m, data := mustModel(t, inst, Options{})
	x, y := inst.Jobs[0], inst.Jobs[1]
	m1 := inst.Machines[0]
	idx := func(v linear.Var, ok bool) linear.VarIndex {
		t.Helper()
		if !ok {
			t.Fatal("missing candidate variable")
		}
		return v.Index()
	}
	cur := Candidate{Task: y.Tasks[0], Machine: m1, Rank: 1}
	prev := Candidate{Task: x.Tasks[0], Machine: m1, Rank: 0}
	inf := math.Inf(1)

	testCases := []struct {
		name string
		want *linear.RowData
	}{
		{
			// Y follows X on M1: duration of X_1 plus the setup of Y on M1.
			name: "sequence_Y_1_M1_r1_after_X_1",
			want: &linear.RowData{
				Vars:   []linear.VarIndex{idx(m.Start(cur)), idx(m.Assign(cur)), idx(m.Start(prev)), idx(m.Assign(prev))},
				Coeffs: []float64{1, -15, -1, -4},
				Lower:  -15,
				Upper:  inf,
			},
		},
		{
			name: "start_lb_X_2_M2_r1",
			want: &linear.RowData{
				Vars:   []linear.VarIndex{idx(m.Start(Candidate{x.Tasks[1], inst.Machines[1], 1})), idx(m.Assign(Candidate{x.Tasks[1], inst.Machines[1], 1}))},
				Coeffs: []float64{1, -2},
				Lower:  0,
				Upper:  inf,
			},
		},
		{
			name: "start_ub_X_1_M1_r0",
			want: &linear.RowData{
				Vars:   []linear.VarIndex{idx(m.Start(prev)), idx(m.Assign(prev))},
				Coeffs: []float64{1, -15},
				Lower:  math.Inf(-1),
				Upper:  0,
			},
		},
		{
			name: "tardiness_X_2_M2_r0",
			want: &linear.RowData{
				Vars:   []linear.VarIndex{idx(m.Delay(x)), idx(m.Start(Candidate{x.Tasks[1], inst.Machines[1], 0}))},
				Coeffs: []float64{1, -1},
				Lower:  -1,
				Upper:  inf,
			},
		},
		{
			name: "precedence_cumulative_X_1_X_2",
			want: &linear.RowData{
				Vars: []linear.VarIndex{
					idx(m.Start(Candidate{x.Tasks[1], inst.Machines[1], 0})),
					idx(m.Start(Candidate{x.Tasks[1], inst.Machines[1], 1})),
				},
				Coeffs: []float64{1, 1},
				Lower:  2,
				Upper:  inf,
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			test.want.Name = test.name
			if diff := cmp.Diff(test.want, rowByName(t, data, test.name)); diff != "" {
				t.Errorf("row returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestNewModel_RanksOption(t *testing.T) {
	m, data := mustModel(t, smallInstance(), Options{Ranks: 1})
	for _, mc := range m.Instance().Machines {
		if got, want := m.Ranks(mc), 1; got != want {
			t.Errorf("Ranks(%s) = %d, want %d", mc.ID, got, want)
		}
	}
	if got := countRows(data, "sequence_"); got != 0 {
		t.Errorf("rows named sequence_* = %d, want 0", got)
	}
}

func TestNewModel_Errors(t *testing.T) {
	gap := smallInstance()
	gap.Jobs[0].Tasks[1].Step = 3
	negative := smallInstance()
	negative.Machines[0].SetupTimes[negative.Jobs[1]] = -1
	duplicate := smallInstance()
	duplicate.Machines[1].ID = "M1"

	testCases := []struct {
		name    string
		inst    *Instance
		opts    Options
		wantErr error
	}{
		{name: "StepGap", inst: gap, wantErr: ErrInvalidInstance},
		{name: "NegativeSetup", inst: negative, wantErr: ErrInvalidInstance},
		{name: "DuplicateMachine", inst: duplicate, wantErr: ErrInvalidInstance},
		{name: "NegativeRanks", inst: smallInstance(), opts: Options{Ranks: -1}},
		{name: "NaNBigM", inst: smallInstance(), opts: Options{BigM: math.NaN()}},
		{name: "UnknownObjective", inst: smallInstance(), opts: Options{Objective: ObjectiveKind(9)}},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewModel(test.inst, test.opts)
			if err == nil {
				t.Fatal("NewModel() returned no error")
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("NewModel() err = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestNewModel_UnsupportedTask(t *testing.T) {
	inst := smallInstance()
	z := NewJob("Z", 10, 1, 2)
	inst.Jobs = append(inst.Jobs, z)
	inst.Machines[0].Supported = append(inst.Machines[0].Supported, z.Tasks[0])

	m, data := mustModel(t, inst, Options{})
	if got := m.Candidates(z.Tasks[1]); len(got) != 0 {
		t.Errorf("Candidates(Z_2) = %v, want none", got)
	}
	row := rowByName(t, data, "assignment_Z_2")
	if len(row.Vars) != 0 || row.Lower != 1 || row.Upper != 1 {
		t.Errorf("assignment_Z_2 = %+v, want 0 = 1", row)
	}
}

func TestFixAssignment(t *testing.T) {
	inst := smallInstance()
	m, _ := mustModel(t, inst, Options{})
	c := Candidate{Task: inst.Jobs[1].Tasks[0], Machine: inst.Machines[0], Rank: 0}

	ct, err := m.FixAssignment(c)
	if err != nil {
		t.Fatalf("FixAssignment() returned with unexpected error %v", err)
	}
	if got, want := ct.Name(), "fix_Y_1_M1_r0"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
	if got, want := ct.Bounds(), linear.Point(1); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}

	bad := Candidate{Task: inst.Jobs[0].Tasks[1], Machine: inst.Machines[0], Rank: 0}
	if _, err := m.FixAssignment(bad); !errors.Is(err, ErrNotACandidate) {
		t.Errorf("FixAssignment(%v) err = %v, want %v", bad, err, ErrNotACandidate)
	}
}

func TestGreedyPlan(t *testing.T) {
	inst := smallInstance()
	plan, err := GreedyPlan(inst)
	if err != nil {
		t.Fatalf("GreedyPlan() returned with unexpected error %v", err)
	}
	x, y := inst.Jobs[0], inst.Jobs[1]
	m1, m2 := inst.Machines[0], inst.Machines[1]
	want := &Plan{Slots: []Slot{
		{Task: x.Tasks[0], Machine: m1, Rank: 0, Start: 0, End: 2},
		{Task: y.Tasks[0], Machine: m2, Rank: 0, Start: 0, End: 4},
		{Task: x.Tasks[1], Machine: m2, Rank: 1, Start: 4, End: 7},
	}}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("GreedyPlan() returned with unexpected diff (-want+got):\n%s", diff)
	}

	m, data := mustModel(t, inst, Options{})
	values, err := m.Values(plan)
	if err != nil {
		t.Fatalf("Values() returned with unexpected error %v", err)
	}
	if v := linear.Violations(data, values, 1e-9); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
	delay, ok := m.Delay(x)
	if !ok {
		t.Fatal("Delay(X) not found")
	}
	if got, want := values[delay.Index()], 3.0; got != want {
		t.Errorf("delay of X = %v, want %v", got, want)
	}
	if got, want := values[m.LatestEnd().Index()], 7.0; got != want {
		t.Errorf("latest end = %v, want %v", got, want)
	}

	if err := m.SetHint(plan); err != nil {
		t.Fatalf("SetHint() returned with unexpected error %v", err)
	}
	if got, want := len(data.Hint.Vars), len(data.Variables); got != want {
		t.Errorf("len(Hint.Vars) = %d, want %d", got, want)
	}
}

func TestGreedyPlan_UnsupportedTask(t *testing.T) {
	inst := smallInstance()
	inst.Machines[1].Supported = inst.Machines[1].Supported[1:]

	_, err := GreedyPlan(inst)
	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("GreedyPlan() err = %v, want *InfeasibleError", err)
	}
	if diff := cmp.Diff([]string{"assignment_X_2"}, infeasible.Subset); diff != "" {
		t.Errorf("Subset returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestValues_Errors(t *testing.T) {
	inst := smallInstance()
	m, _ := mustModel(t, inst, Options{})
	x := inst.Jobs[0]

	testCases := []struct {
		name string
		plan *Plan
	}{
		{
			name: "NotACandidate",
			plan: &Plan{Slots: []Slot{{Task: x.Tasks[1], Machine: inst.Machines[0], Rank: 0}}},
		},
		{
			name: "Incomplete",
			plan: &Plan{Slots: []Slot{{Task: x.Tasks[0], Machine: inst.Machines[0], Rank: 0, End: 2}}},
		},
		{
			name: "Duplicate",
			plan: &Plan{Slots: []Slot{
				{Task: x.Tasks[0], Machine: inst.Machines[0], Rank: 0, End: 2},
				{Task: x.Tasks[0], Machine: inst.Machines[0], Rank: 1, End: 2},
			}},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if _, err := m.Values(test.plan); err == nil {
				t.Error("Values() returned no error")
			}
		})
	}
}

func TestDelay_UnknownJob(t *testing.T) {
	m, _ := mustModel(t, smallInstance(), Options{})
	if _, ok := m.Delay(NewJob("Z", 1, 1)); ok {
		t.Error("Delay() found a variable for a job outside the instance")
	}
}
