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

	log "github.com/golang/glog"

	"github.com/mipsched/mipsched/linear"
)

// ErrNotACandidate is returned when a (task, machine, rank) triple has no variables in
// the model.
var ErrNotACandidate = errors.New("not a candidate")

// Options configure the formulation.
type Options struct {
	// Ranks bounds the number of ranks of each machine. Zero means the total number of
	// tasks. A machine never gets more ranks than it supports tasks.
	Ranks int
	// BigM replaces the derived constant when positive. Values below BigM(inst) cut off
	// valid schedules.
	BigM float64
	// Objective selects the objective installed by NewModel.
	Objective ObjectiveKind
	// Weights are the tie-break weights of MinWeightedMakespan. Zero weights are derived
	// with TieBreakWeights.
	Weights Weights
}

// Candidate is a possible placement of a task on a machine at a rank.
type Candidate struct {
	Task    *Task
	Machine *Machine
	Rank    int
}

func (c Candidate) String() string {
	return fmt.Sprintf("%v_%s_r%d", c.Task, c.Machine.ID, c.Rank)
}

type candidateVars struct {
	assign linear.Var
	start  linear.Var
}

type slotKey struct {
	machine *Machine
	rank    int
}

// changeover is the minimum distance between the start of `prev` and the start of the
// task that follows it on a machine.
type changeover struct {
	prev *Task
	gap  float64
}

func changeoverTo(m *Machine, prev, next *Task) changeover {
	gap := prev.Duration
	if prev.Job != next.Job {
		gap += m.SetupTime(next.Job)
	}
	return changeover{prev: prev, gap: gap}
}

// Model is the mixed-integer formulation of an instance.
type Model struct {
	inst         *Instance
	bigM         float64
	b            *linear.Builder
	cands        []Candidate
	vars         map[Candidate]candidateVars
	byTask       map[*Task][]Candidate
	bySlot       map[slotKey][]Candidate
	machineRanks map[*Machine]int
	delay        map[*Job]linear.Var
	latestEnd    linear.Var
	objective    ObjectiveKind
	weights      Weights
}

// NewModel validates the instance and builds its formulation with the objective
// selected in `opts`.
func NewModel(inst *Instance, opts Options) (*Model, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if opts.Ranks < 0 {
		return nil, fmt.Errorf("ranks must be non-negative, got %d", opts.Ranks)
	}
	if math.IsNaN(opts.BigM) || opts.BigM < 0 || math.IsInf(opts.BigM, 0) {
		return nil, fmt.Errorf("big-M override must be finite and non-negative, got %v", opts.BigM)
	}

	m := &Model{
		inst:         inst,
		bigM:         opts.BigM,
		b:            linear.NewBuilder("jobshop"),
		vars:         make(map[Candidate]candidateVars),
		byTask:       make(map[*Task][]Candidate),
		bySlot:       make(map[slotKey][]Candidate),
		machineRanks: make(map[*Machine]int, len(inst.Machines)),
		delay:        make(map[*Job]linear.Var, len(inst.Jobs)),
	}
	if m.bigM == 0 {
		m.bigM = BigM(inst)
	}
	ranks := opts.Ranks
	if ranks == 0 {
		ranks = len(inst.Tasks())
	}
	for _, mc := range inst.Machines {
		m.machineRanks[mc] = min(ranks, len(mc.Supported))
	}

	m.addVariables()
	m.addAssignment()
	m.addRankExclusivity()
	m.addPrecedence()
	m.addStartLinking()
	m.addSequencing()
	m.addTardiness()
	m.addMakespan()
	m.addRankContiguity()
	if err := m.SetObjective(opts.Objective, opts.Weights); err != nil {
		return nil, err
	}

	data, err := m.b.Model()
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("built job-shop model: %d variables, %d constraints, big-M %v", len(data.Variables), len(data.Constraints), m.bigM)
	return m, nil
}

func (m *Model) addVariables() {
	for _, t := range m.inst.Tasks() {
		for _, mc := range m.inst.SupportingMachines(t) {
			for r := 0; r < m.machineRanks[mc]; r++ {
				c := Candidate{Task: t, Machine: mc, Rank: r}
				m.vars[c] = candidateVars{
					assign: m.b.NewBinaryVar().WithName("assign_" + c.String()),
					start:  m.b.NewContinuousVar(0, math.Inf(1)).WithName("start_" + c.String()),
				}
				m.cands = append(m.cands, c)
				m.byTask[t] = append(m.byTask[t], c)
				k := slotKey{mc, r}
				m.bySlot[k] = append(m.bySlot[k], c)
			}
		}
	}
	for _, j := range m.inst.Jobs {
		m.delay[j] = m.b.NewContinuousVar(0, math.Inf(1)).WithName("delay_" + j.ID)
	}
	m.latestEnd = m.b.NewContinuousVar(0, math.Inf(1)).WithName("latest_end")
}

func (m *Model) assignSum(cands []Candidate) *linear.LinearExpr {
	e := linear.NewLinearExpr()
	for _, c := range cands {
		e.Add(m.vars[c].assign)
	}
	return e
}

// addAssignment places every task exactly once. A task without candidates yields the
// row `0 = 1`.
func (m *Model) addAssignment() {
	for _, t := range m.inst.Tasks() {
		m.b.AddConstraint(m.assignSum(m.byTask[t]), linear.Equal, 1).WithName(fmt.Sprintf("assignment_%v", t))
	}
}

func (m *Model) addRankExclusivity() {
	for _, mc := range m.inst.Machines {
		for r := 0; r < m.machineRanks[mc]; r++ {
			m.b.AddConstraint(m.assignSum(m.bySlot[slotKey{mc, r}]), linear.LessOrEqual, 1).
				WithName(fmt.Sprintf("rank_exclusive_%s_r%d", mc.ID, r))
		}
	}
}

// addPrecedence orders consecutive steps of a job on their aggregated start times, plus
// the cumulative duration bound that tightens the relaxation.
func (m *Model) addPrecedence() {
	for _, j := range m.inst.Jobs {
		for _, succ := range j.Tasks[1:] {
			pred := succ.Predecessor()
			m.b.AddGreaterOrEqual(m.StartOf(succ), m.StartOf(pred).AddConstant(pred.Duration)).
				WithName(fmt.Sprintf("precedence_%v_%v", pred, succ))
			m.b.AddConstraint(m.StartOf(succ), linear.GreaterOrEqual, succ.DurationBefore()).
				WithName(fmt.Sprintf("precedence_cumulative_%v_%v", pred, succ))
		}
	}
}

// addStartLinking bounds each candidate start by the earlier steps of its job when
// assigned, and forces it to zero otherwise.
func (m *Model) addStartLinking() {
	for _, c := range m.cands {
		v := m.vars[c]
		m.b.AddGreaterOrEqual(v.start, linear.NewLinearExpr().AddTerm(v.assign, c.Task.DurationBefore())).
			WithName("start_lb_" + c.String())
		m.b.AddLessOrEqual(v.start, linear.NewLinearExpr().AddTerm(v.assign, m.bigM)).
			WithName("start_ub_" + c.String())
	}
}

// addSequencing links every candidate at rank r > 0 to every other task's candidate at
// rank r-1 on the same machine:
//
//	start[t,r] + M*(1 - assign[t,r]) >= start[t1,r-1] + assign[t1,r-1]*(duration[t1] + setup)
//
// The row only binds when both candidates are assigned.
func (m *Model) addSequencing() {
	for _, mc := range m.inst.Machines {
		for r := 1; r < m.machineRanks[mc]; r++ {
			for _, c := range m.bySlot[slotKey{mc, r}] {
				cur := m.vars[c]
				lhs := linear.NewLinearExpr().Add(cur.start).AddTerm(cur.assign, -m.bigM).AddConstant(m.bigM)
				for _, p := range m.bySlot[slotKey{mc, r - 1}] {
					if p.Task == c.Task {
						continue
					}
					co := changeoverTo(mc, p.Task, c.Task)
					prev := m.vars[p]
					rhs := linear.NewLinearExpr().Add(prev.start).AddTerm(prev.assign, co.gap)
					m.b.AddGreaterOrEqual(lhs, rhs).WithName(fmt.Sprintf("sequence_%v_after_%v", c, co.prev))
				}
			}
		}
	}
}

// addTardiness lower-bounds the delay of each job by every candidate of its last task.
// Unassigned candidates have a zero start and yield `delay >= duration - due`, which the
// true completion already implies.
func (m *Model) addTardiness() {
	for _, j := range m.inst.Jobs {
		last := j.LastTask()
		for _, c := range m.byTask[last] {
			end := linear.NewLinearExpr().Add(m.vars[c].start).AddConstant(last.Duration - j.DueDate)
			m.b.AddGreaterOrEqual(m.delay[j], end).WithName("tardiness_" + c.String())
		}
	}
}

func (m *Model) addMakespan() {
	for _, c := range m.cands {
		end := linear.NewLinearExpr().Add(m.vars[c].start).AddConstant(c.Task.Duration)
		m.b.AddGreaterOrEqual(m.latestEnd, end).WithName("makespan_" + c.String())
	}
}

// addRankContiguity only allows rank r on a machine when rank r-1 is used. Sequencing
// rows only link adjacent ranks, so the rows are needed for a gap-free rank order.
func (m *Model) addRankContiguity() {
	for _, mc := range m.inst.Machines {
		for r := 1; r < m.machineRanks[mc]; r++ {
			m.b.AddLessOrEqual(m.assignSum(m.bySlot[slotKey{mc, r}]), m.assignSum(m.bySlot[slotKey{mc, r - 1}])).
				WithName(fmt.Sprintf("rank_contiguous_%s_r%d", mc.ID, r))
		}
	}
}

// FixAssignment pins a candidate to 1. It is a debugging aid to check why a given
// placement is not chosen.
func (m *Model) FixAssignment(c Candidate) (linear.Constraint, error) {
	v, ok := m.vars[c]
	if !ok {
		return linear.Constraint{}, fmt.Errorf("fixing %v: %w", c, ErrNotACandidate)
	}
	return m.b.AddConstraint(v.assign, linear.Equal, 1).WithName("fix_" + c.String()), nil
}

// Instance returns the instance the model was built from.
func (m *Model) Instance() *Instance {
	return m.inst
}

// BigM returns the constant used in the guarded rows.
func (m *Model) BigM() float64 {
	return m.bigM
}

// Ranks returns the number of ranks of machine `mc`.
func (m *Model) Ranks(mc *Machine) int {
	return m.machineRanks[mc]
}

// Candidates returns the placements of `t`, machine by machine in rank order.
func (m *Model) Candidates(t *Task) []Candidate {
	return m.byTask[t]
}

// Assign returns the binary variable of candidate `c`.
func (m *Model) Assign(c Candidate) (linear.Var, bool) {
	v, ok := m.vars[c]
	return v.assign, ok
}

// Start returns the start variable of candidate `c`.
func (m *Model) Start(c Candidate) (linear.Var, bool) {
	v, ok := m.vars[c]
	return v.start, ok
}

// StartOf returns the aggregated start of `t`, the sum of its candidate starts.
func (m *Model) StartOf(t *Task) *linear.LinearExpr {
	e := linear.NewLinearExpr()
	for _, c := range m.byTask[t] {
		e.Add(m.vars[c].start)
	}
	return e
}

// Delay returns the tardiness variable of job `j`.
func (m *Model) Delay(j *Job) (linear.Var, bool) {
	v, ok := m.delay[j]
	return v, ok
}

// LatestEnd returns the makespan variable.
func (m *Model) LatestEnd() linear.Var {
	return m.latestEnd
}

// Data returns the model handed to a solver.
func (m *Model) Data() (*linear.ModelData, error) {
	return m.b.Model()
}
