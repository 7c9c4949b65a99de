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
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mipsched/mipsched/linear"
)

var (
	// ErrModelInconsistency is returned when solver values do not describe a schedule,
	// which points to an undersized big-M or to solver tolerances.
	ErrModelInconsistency = errors.New("model inconsistency")
	// ErrNoSolution is returned when a response carries no variable values.
	ErrNoSolution = errors.New("no solution")
)

// InconsistencyError describes the task whose solver values could not be interpreted.
type InconsistencyError struct {
	Task *Task
	// Selected lists the candidates of Task whose assignment cleared the tolerance.
	Selected []Candidate
	Reason   string
}

func (e *InconsistencyError) Error() string {
	names := make([]string, len(e.Selected))
	for i, c := range e.Selected {
		names[i] = c.String()
	}
	return fmt.Sprintf("%v: task %v: %s [%s]", ErrModelInconsistency, e.Task, e.Reason, strings.Join(names, " "))
}

func (e *InconsistencyError) Unwrap() error {
	return ErrModelInconsistency
}

// ExtractOptions configure the interpretation of solver values.
type ExtractOptions struct {
	// Tolerance is the rounding tolerance: an assignment is selected when its value
	// exceeds it, and precedence is checked up to it. Zero means 0.5.
	Tolerance float64
	// Granularity is the time unit reported starts are rounded to. Checks always use the
	// solver values. Zero keeps raw values.
	Granularity float64
}

// DefaultExtractOptions round to whole time units.
var DefaultExtractOptions = ExtractOptions{Tolerance: 0.5, Granularity: 1}

// Slot is a task placed on a machine.
type Slot struct {
	Task    *Task
	Machine *Machine
	Rank    int
	Start   float64
	End     float64
}

// MachineSchedule lists the slots of a machine by rank.
type MachineSchedule struct {
	Machine *Machine
	Slots   []Slot
}

// JobSchedule lists the slots of a job by step.
type JobSchedule struct {
	Job        *Job
	Slots      []Slot
	Completion float64
	// Delay is max(0, Completion - due date).
	Delay float64
	// ModelDelay is the value of the delay variable, at least Delay up to the tolerance.
	ModelDelay float64
}

// Schedule is the interpreted solution of a model.
type Schedule struct {
	Status linear.Status
	// Optimal is false when the solver stopped on a limit with an incumbent.
	Optimal   bool
	Objective float64
	LatestEnd float64
	Makespan  float64
	Machines  []MachineSchedule
	Jobs      []JobSchedule
}

func roundTo(v, granularity float64) float64 {
	if granularity <= 0 {
		return v
	}
	return math.Round(v/granularity) * granularity
}

// Extract interprets the response of a solve of `m`. Every task must have exactly one
// candidate whose assignment exceeds the tolerance, no two tasks may share a machine
// rank, and the solver starts must respect job precedence and machine changeovers up to
// the tolerance. Extract does not modify its inputs and returns equal schedules for equal
// inputs.
func Extract(m *Model, resp *linear.Response, opts ExtractOptions) (*Schedule, error) {
	if resp == nil || !resp.Status.HasSolution() || len(resp.Values) == 0 {
		return nil, ErrNoSolution
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultExtractOptions.Tolerance
	}

	placed := make(map[*Task]Slot)
	// raw holds the unrounded solver starts; the checks run on them.
	raw := make(map[*Task]float64)
	used := make(map[slotKey]*Task)
	for _, t := range m.inst.Tasks() {
		var selected []Candidate
		for _, c := range m.byTask[t] {
			if linear.SolutionBooleanValue(resp, m.vars[c].assign, tol) {
				selected = append(selected, c)
			}
		}
		switch len(selected) {
		case 0:
			return nil, &InconsistencyError{Task: t, Reason: "no candidate selected"}
		case 1:
		default:
			return nil, &InconsistencyError{Task: t, Selected: selected, Reason: "several candidates selected"}
		}
		c := selected[0]
		k := slotKey{c.Machine, c.Rank}
		if other, ok := used[k]; ok {
			return nil, &InconsistencyError{Task: t, Selected: selected, Reason: fmt.Sprintf("rank already used by %v", other)}
		}
		used[k] = t
		raw[t] = linear.SolutionValue(resp, m.vars[c].start)
		start := roundTo(raw[t], opts.Granularity)
		placed[t] = Slot{Task: t, Machine: c.Machine, Rank: c.Rank, Start: start, End: start + t.Duration}
	}

	s := &Schedule{
		Status:    resp.Status,
		Optimal:   resp.Status == linear.Optimal,
		Objective: resp.ObjectiveValue,
		LatestEnd: linear.SolutionValue(resp, m.latestEnd),
	}
	for _, j := range m.inst.Jobs {
		js := JobSchedule{Job: j, ModelDelay: linear.SolutionValue(resp, m.delay[j])}
		for _, t := range j.Tasks {
			slot := placed[t]
			if p := t.Predecessor(); p != nil && raw[t] < raw[p]+p.Duration-tol {
				return nil, &InconsistencyError{
					Task:   t,
					Reason: fmt.Sprintf("starts at %v before %v ends at %v", raw[t], p, raw[p]+p.Duration),
				}
			}
			js.Slots = append(js.Slots, slot)
		}
		js.Completion = js.Slots[len(js.Slots)-1].End
		js.Delay = math.Max(0, js.Completion-j.DueDate)
		s.Makespan = math.Max(s.Makespan, js.Completion)
		s.Jobs = append(s.Jobs, js)
	}

	for _, mc := range m.inst.Machines {
		ms := MachineSchedule{Machine: mc}
		for _, t := range mc.Supported {
			if slot, ok := placed[t]; ok && slot.Machine == mc {
				ms.Slots = append(ms.Slots, slot)
			}
		}
		sort.Slice(ms.Slots, func(a, b int) bool { return ms.Slots[a].Rank < ms.Slots[b].Rank })
		for i := 1; i < len(ms.Slots); i++ {
			prev, cur := ms.Slots[i-1], ms.Slots[i]
			co := changeoverTo(mc, prev.Task, cur.Task)
			if raw[cur.Task] < raw[prev.Task]+co.gap-tol {
				return nil, &InconsistencyError{
					Task:   cur.Task,
					Reason: fmt.Sprintf("starts at %v on %s before %v is done with changeover at %v", raw[cur.Task], mc.ID, prev.Task, raw[prev.Task]+co.gap),
				}
			}
		}
		s.Machines = append(s.Machines, ms)
	}
	return s, nil
}
