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

package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/linear"
)

// testSchedule is the schedule of job X (steps 2 and 3, due 4) and job Y (step 4,
// due 10) on machines M1 and M2.
func testSchedule() *jobshop.Schedule {
	x := jobshop.NewJob("X", 4, 2, 3)
	y := jobshop.NewJob("Y", 10, 4)
	m1 := &jobshop.Machine{ID: "M1", Cost: 1}
	m2 := &jobshop.Machine{ID: "M2", Cost: 2}
	x1 := jobshop.Slot{Task: x.Tasks[0], Machine: m1, Rank: 0, Start: 0, End: 2}
	y1 := jobshop.Slot{Task: y.Tasks[0], Machine: m2, Rank: 0, Start: 0, End: 4}
	x2 := jobshop.Slot{Task: x.Tasks[1], Machine: m2, Rank: 1, Start: 4, End: 7}
	return &jobshop.Schedule{
		Status:    linear.Optimal,
		Optimal:   true,
		Objective: 7,
		LatestEnd: 7,
		Makespan:  7,
		Machines: []jobshop.MachineSchedule{
			{Machine: m1, Slots: []jobshop.Slot{x1}},
			{Machine: m2, Slots: []jobshop.Slot{y1, x2}},
		},
		Jobs: []jobshop.JobSchedule{
			{Job: x, Slots: []jobshop.Slot{x1, x2}, Completion: 7, Delay: 3, ModelDelay: 3},
			{Job: y, Slots: []jobshop.Slot{y1}, Completion: 4},
		},
	}
}

func TestProto(t *testing.T) {
	slot := func(task, job string, step int, machine string, rank int, start, end float64) map[string]any {
		return map[string]any{"task": task, "job": job, "step": step, "machine": machine, "rank": rank, "start": start, "end": end}
	}
	x1 := slot("X_1", "X", 1, "M1", 0, 0, 2)
	y1 := slot("Y_1", "Y", 1, "M2", 0, 0, 4)
	x2 := slot("X_2", "X", 2, "M2", 1, 4, 7)
	want, err := structpb.NewStruct(map[string]any{
		"status":     "OPTIMAL",
		"optimal":    true,
		"objective":  7,
		"latest_end": 7,
		"makespan":   7,
		"machines": []any{
			map[string]any{"machine": "M1", "cost": 1, "slots": []any{x1}},
			map[string]any{"machine": "M2", "cost": 2, "slots": []any{y1, x2}},
		},
		"jobs": []any{
			map[string]any{"job": "X", "due_date": 4, "completion": 7, "delay": 3, "model_delay": 3, "slots": []any{x1, x2}},
			map[string]any{"job": "Y", "due_date": 10, "completion": 4, "delay": 0, "model_delay": 0, "slots": []any{y1}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Proto(testSchedule())
	if err != nil {
		t.Fatalf("Proto() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("Proto() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testSchedule()); err != nil {
		t.Fatalf("WriteJSON() returned with unexpected error %v", err)
	}
	got := &structpb.Struct{}
	if err := protojson.Unmarshal(buf.Bytes(), got); err != nil {
		t.Fatalf("protojson.Unmarshal() returned with unexpected error %v", err)
	}
	want, err := Proto(testSchedule())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
		t.Errorf("WriteJSON() round trip returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, testSchedule()); err != nil {
		t.Fatalf("WriteTable() returned with unexpected error %v", err)
	}
	out := buf.String()
	for _, want := range []string{"OPTIMAL", "makespan 7", "Machines", "Jobs", "X_2", "M1 > M2", "Completion"} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteTable() output is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "not proven optimal") {
		t.Errorf("WriteTable() flags an optimal schedule:\n%s", out)
	}
}

func TestWriteTable_Feasible(t *testing.T) {
	s := testSchedule()
	s.Status, s.Optimal = linear.Feasible, false
	var buf bytes.Buffer
	if err := WriteTable(&buf, s); err != nil {
		t.Fatalf("WriteTable() returned with unexpected error %v", err)
	}
	if !strings.Contains(buf.String(), "not proven optimal") {
		t.Errorf("WriteTable() does not flag a feasible schedule:\n%s", buf.String())
	}
}

func TestNilSchedule(t *testing.T) {
	if _, err := Proto(nil); !errors.Is(err, ErrNilSchedule) {
		t.Errorf("Proto(nil) err = %v, want %v", err, ErrNilSchedule)
	}
	if err := WriteJSON(&bytes.Buffer{}, nil); !errors.Is(err, ErrNilSchedule) {
		t.Errorf("WriteJSON(nil) err = %v, want %v", err, ErrNilSchedule)
	}
	if err := WriteTable(&bytes.Buffer{}, nil); !errors.Is(err, ErrNilSchedule) {
		t.Errorf("WriteTable(nil) err = %v, want %v", err, ErrNilSchedule)
	}
}
