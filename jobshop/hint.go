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
	"fmt"
	"math"

	"github.com/mipsched/mipsched/linear"
)

// Plan is a placement of every task of an instance.
type Plan struct {
	Slots []Slot
}

// Makespan returns the latest end of the plan.
func (p *Plan) Makespan() float64 {
	var end float64
	for _, s := range p.Slots {
		end = math.Max(end, s.End)
	}
	return end
}

type machineState struct {
	free float64
	last *Job
	rank int
}

// GreedyPlan list-schedules the instance: among the next unscheduled step of every job,
// it repeatedly places the task on the machine where it ends earliest, paying the setup
// time when the machine switches jobs. Ranks are filled in order on each machine.
//
// The plan is a valid assignment of the formulation with enough ranks and big-M at least
// BigM(inst). A task without a supporting machine yields an *InfeasibleError.
func GreedyPlan(inst *Instance) (*Plan, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	states := make(map[*Machine]*machineState, len(inst.Machines))
	for _, mc := range inst.Machines {
		states[mc] = &machineState{}
	}
	next := make(map[*Job]int, len(inst.Jobs))
	ready := make(map[*Job]float64, len(inst.Jobs))

	plan := &Plan{}
	for remaining := len(inst.Tasks()); remaining > 0; remaining-- {
		var best Slot
		found := false
		for _, j := range inst.Jobs {
			if next[j] >= len(j.Tasks) {
				continue
			}
			t := j.Tasks[next[j]]
			machines := inst.SupportingMachines(t)
			if len(machines) == 0 {
				return nil, &InfeasibleError{Subset: []string{fmt.Sprintf("assignment_%v", t)}}
			}
			for _, mc := range machines {
				st := states[mc]
				start := st.free
				if st.last != nil && st.last != j {
					start += mc.SetupTime(j)
				}
				start = math.Max(start, ready[j])
				if end := start + t.Duration; !found || end < best.End {
					best = Slot{Task: t, Machine: mc, Rank: st.rank, Start: start, End: end}
					found = true
				}
			}
		}
		st := states[best.Machine]
		st.free, st.last = best.End, best.Task.Job
		st.rank++
		ready[best.Task.Job] = best.End
		next[best.Task.Job]++
		plan.Slots = append(plan.Slots, best)
	}
	return plan, nil
}

// assignment returns the value of every model variable for the plan, keyed by variable.
func (m *Model) assignment(plan *Plan) (map[linear.Var]float64, error) {
	values := make(map[linear.Var]float64)
	for _, c := range m.cands {
		v := m.vars[c]
		values[v.assign] = 0
		values[v.start] = 0
	}
	ends := make(map[*Task]float64, len(plan.Slots))
	for _, s := range plan.Slots {
		c := Candidate{Task: s.Task, Machine: s.Machine, Rank: s.Rank}
		v, ok := m.vars[c]
		if !ok {
			return nil, fmt.Errorf("plan slot %v: %w", c, ErrNotACandidate)
		}
		if _, dup := ends[s.Task]; dup {
			return nil, fmt.Errorf("plan places task %v twice", s.Task)
		}
		ends[s.Task] = s.End
		values[v.assign] = 1
		values[v.start] = s.Start
	}
	for _, t := range m.inst.Tasks() {
		if _, ok := ends[t]; !ok {
			return nil, fmt.Errorf("plan does not place task %v", t)
		}
	}
	for _, j := range m.inst.Jobs {
		values[m.delay[j]] = math.Max(0, ends[j.LastTask()]-j.DueDate)
	}
	values[m.latestEnd] = plan.Makespan()
	return values, nil
}

// Values returns the full variable vector of the plan, indexed by linear.VarIndex.
func (m *Model) Values(plan *Plan) ([]float64, error) {
	assignment, err := m.assignment(plan)
	if err != nil {
		return nil, err
	}
	values := make([]float64, m.b.NumVariables())
	for v, val := range assignment {
		values[v.Index()] = val
	}
	return values, nil
}

// SetHint hands the plan to the solver as a starting solution.
func (m *Model) SetHint(plan *Plan) error {
	assignment, err := m.assignment(plan)
	if err != nil {
		return err
	}
	m.b.SetHint(&linear.Hint{Values: assignment})
	return nil
}
