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

package cbc

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mipsched/mipsched/linear"
)

func TestParseSolution(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		numVars int
		want    *linear.Response
	}{
		{
			name: "Optimal",
			file: `Optimal - objective value 12.00000000
      0 V0                       4                       2
      2 V2                       1                       0
      0 C0                       5                       0
`,
			numVars: 3,
			want:    &linear.Response{Status: linear.Optimal, Values: []float64{4, 0, 1}},
		},
		{
			name: "StoppedWithSolution",
			file: `Stopped on time - objective value 30.00000000
      1 V1                     2.5                       0
`,
			numVars: 2,
			want:    &linear.Response{Status: linear.Feasible, Values: []float64{0, 2.5}},
		},
		{
			name:    "StoppedWithoutSolution",
			file:    "Stopped on time (no integer solution - continuous used) - objective value 3.5\n",
			numVars: 2,
			want:    &linear.Response{Status: linear.Unknown},
		},
		{
			name: "Infeasible",
			file: `Infeasible - objective value 0.00000000
**    0 C0                       0                       1
`,
			numVars: 1,
			want:    &linear.Response{Status: linear.Infeasible},
		},
		{
			name:    "IntegerInfeasible",
			file:    "Integer infeasible - objective value 0.00000000\n",
			numVars: 1,
			want:    &linear.Response{Status: linear.Infeasible},
		},
		{
			name:    "Unbounded",
			file:    "Unbounded - objective value 0\n",
			numVars: 1,
			want:    &linear.Response{Status: linear.Unbounded},
		},
		{
			name: "FlaggedColumn",
			file: `Optimal - objective value 1
**    0 V0                       1                       0
`,
			numVars: 1,
			want:    &linear.Response{Status: linear.Optimal, Values: []float64{1}},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseSolution(strings.NewReader(test.file), test.numVars)
			if err != nil {
				t.Fatalf("parseSolution() returned with unexpected error %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("parseSolution() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestParseSolution_Errors(t *testing.T) {
	testCases := []struct {
		name string
		file string
	}{
		{name: "Empty", file: ""},
		{name: "UnknownColumn", file: "Optimal - objective value 1\n 0 V7 1 0\n"},
		{name: "ShortRow", file: "Optimal - objective value 1\n 0 V0\n"},
		{name: "BadValue", file: "Optimal - objective value 1\n 0 V0 one 0\n"},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if _, err := parseSolution(strings.NewReader(test.file), 1); !errors.Is(err, ErrMalformedSolution) {
				t.Errorf("parseSolution() err = %v, want %v", err, ErrMalformedSolution)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	testCases := []struct {
		name      string
		params    linear.Parameters
		withStart bool
		want      []string
	}{
		{
			name: "Defaults",
			want: []string{"model.lp", "solve", "solu", "out.sol"},
		},
		{
			name:      "AllSet",
			params:    linear.Parameters{TimeLimit: 90 * time.Second, RelativeGap: 0.5, Threads: 4},
			withStart: true,
			want: []string{
				"model.lp", "mips", "start.sol", "sec", "90", "ratio", "0.5", "threads", "4",
				"solve", "solu", "out.sol",
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.want, args(test.params, test.withStart)); diff != "" {
				t.Errorf("args() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestFormatStart(t *testing.T) {
	got := string(formatStart(&linear.PartialAssignment{Vars: []linear.VarIndex{0, 3}, Values: []float64{1, 2.5}}))
	want := "Feasible - objective value 0\n      0 V0 1 0\n      1 V3 2.5 0\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("formatStart() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestSolve_NotFound(t *testing.T) {
	s := New(WithPath("cbc-binary-that-does-not-exist"))
	_, err := s.Solve(context.Background(), &linear.ModelData{}, linear.Parameters{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Solve() err = %v, want %v", err, ErrNotFound)
	}
}

func TestSolve(t *testing.T) {
	if _, err := exec.LookPath("cbc"); err != nil {
		t.Skip("cbc is not installed")
	}
	b := linear.NewBuilder("knapsack")
	weights := []float64{3, 4, 5}
	profits := []float64{4, 5, 7}
	capacity := linear.NewLinearExpr()
	profit := linear.NewLinearExpr()
	var items []linear.Var
	for i := range weights {
		x := b.NewBinaryVar()
		items = append(items, x)
		capacity.AddTerm(x, weights[i])
		profit.AddTerm(x, profits[i])
	}
	b.AddConstraint(capacity, linear.LessOrEqual, 8)
	b.Maximize(profit)
	m, err := b.Model()
	if err != nil {
		t.Fatalf("Model() returned with unexpected error %v", err)
	}

	resp, err := New(WithWorkDir(t.TempDir())).Solve(context.Background(), m, linear.Parameters{TimeLimit: 10 * time.Second})
	if err != nil {
		t.Fatalf("Solve() returned with unexpected error %v", err)
	}
	if got, want := resp.Status, linear.Optimal; got != want {
		t.Fatalf("Status = %v, want %v", got, want)
	}
	if got, want := resp.ObjectiveValue, 11.0; got != want {
		t.Errorf("ObjectiveValue = %v, want %v", got, want)
	}
	if !linear.SolutionBooleanValue(resp, items[0], 0.5) || !linear.SolutionBooleanValue(resp, items[2], 0.5) {
		t.Errorf("Values = %v, want items 0 and 2 selected", resp.Values)
	}
}
