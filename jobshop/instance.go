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

// Package jobshop formulates the flexible job-shop scheduling problem as a mixed-integer
// program and turns solver output back into a schedule.
//
// Tasks are assigned to a machine and to a rank, an ordinal slot on that machine.
// Consecutive ranks on a machine are sequenced with big-M guarded constraints that
// account for the setup time of switching between jobs. Job tardiness and the makespan
// are tracked by continuous variables pushed down by the objective.
//
// All durations, due dates and setup times are non-negative. The start and delay rows
// rely on unassigned candidates having a start of zero, which only holds under that
// assumption.
package jobshop

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInstance is returned when problem data violates the instance invariants.
var ErrInvalidInstance = errors.New("invalid instance")

// Job is an ordered sequence of tasks with a due date.
type Job struct {
	ID      string
	DueDate float64
	// Tasks are ordered by step, starting at step 1.
	Tasks []*Task
}

// Task is one processing step of a job.
type Task struct {
	Job      *Job
	Step     int
	Duration float64
}

// Machine processes the tasks it supports. SetupTimes holds the time needed to
// reconfigure the machine for a task of the given job after a task of another job.
type Machine struct {
	ID         string
	Cost       float64
	Supported  []*Task
	SetupTimes map[*Job]float64
}

// Instance is a complete scheduling problem.
type Instance struct {
	Jobs     []*Job
	Machines []*Machine
}

// NewJob creates a job whose tasks have the given durations, in step order.
func NewJob(id string, dueDate float64, durations ...float64) *Job {
	j := &Job{ID: id, DueDate: dueDate}
	for i, d := range durations {
		j.Tasks = append(j.Tasks, &Task{Job: j, Step: i + 1, Duration: d})
	}
	return j
}

// LastTask returns the task with the highest step, or nil for an empty job.
func (j *Job) LastTask() *Task {
	if len(j.Tasks) == 0 {
		return nil
	}
	return j.Tasks[len(j.Tasks)-1]
}

func (t *Task) String() string {
	return fmt.Sprintf("%s_%d", t.Job.ID, t.Step)
}

// Predecessor returns the previous step of the same job, or nil for the first step.
func (t *Task) Predecessor() *Task {
	if t.Step <= 1 {
		return nil
	}
	return t.Job.Tasks[t.Step-2]
}

// DurationBefore returns the total duration of the earlier steps of the job, a lower
// bound on the start of the task.
func (t *Task) DurationBefore() float64 {
	var d float64
	for _, p := range t.Job.Tasks[:t.Step-1] {
		d += p.Duration
	}
	return d
}

// CanProcess reports whether the machine supports the task.
func (m *Machine) CanProcess(t *Task) bool {
	for _, s := range m.Supported {
		if s == t {
			return true
		}
	}
	return false
}

// SetupTime returns the time needed before a task of job `j` when the machine
// previously processed a task of another job.
func (m *Machine) SetupTime(j *Job) float64 {
	return m.SetupTimes[j]
}

// MaxSetupTime returns the largest setup time of the machine.
func (m *Machine) MaxSetupTime() float64 {
	var s float64
	for _, v := range m.SetupTimes {
		s = math.Max(s, v)
	}
	return s
}

// Tasks returns all tasks of the instance, job by job in step order.
func (inst *Instance) Tasks() []*Task {
	var tasks []*Task
	for _, j := range inst.Jobs {
		tasks = append(tasks, j.Tasks...)
	}
	return tasks
}

// TasksAtSteps returns the tasks of every job whose step is one of `steps`.
func (inst *Instance) TasksAtSteps(steps ...int) []*Task {
	var tasks []*Task
	for _, t := range inst.Tasks() {
		for _, s := range steps {
			if t.Step == s {
				tasks = append(tasks, t)
				break
			}
		}
	}
	return tasks
}

// SupportingMachines returns the machines able to process `t`, in instance order.
func (inst *Instance) SupportingMachines(t *Task) []*Machine {
	var ms []*Machine
	for _, m := range inst.Machines {
		if m.CanProcess(t) {
			ms = append(ms, m)
		}
	}
	return ms
}

// Validate checks the instance invariants: unique identifiers, contiguous steps
// starting at 1, positive durations and non-negative due dates, costs and setup times.
// A task without a supporting machine is valid; the formulation reports it as
// infeasible.
func (inst *Instance) Validate() error {
	jobs := make(map[*Job]bool, len(inst.Jobs))
	ids := make(map[string]bool, len(inst.Jobs))
	for _, j := range inst.Jobs {
		if ids[j.ID] {
			return fmt.Errorf("%w: duplicate job %q", ErrInvalidInstance, j.ID)
		}
		ids[j.ID] = true
		jobs[j] = true
		if len(j.Tasks) == 0 {
			return fmt.Errorf("%w: job %q has no tasks", ErrInvalidInstance, j.ID)
		}
		if !isNonNegative(j.DueDate) {
			return fmt.Errorf("%w: job %q has due date %v", ErrInvalidInstance, j.ID, j.DueDate)
		}
		for i, t := range j.Tasks {
			if t.Job != j || t.Step != i+1 {
				return fmt.Errorf("%w: task %d of job %q has step %d, want %d", ErrInvalidInstance, i, j.ID, t.Step, i+1)
			}
			if !(t.Duration > 0) || math.IsInf(t.Duration, 0) {
				return fmt.Errorf("%w: task %v has duration %v", ErrInvalidInstance, t, t.Duration)
			}
		}
	}

	ids = make(map[string]bool, len(inst.Machines))
	for _, m := range inst.Machines {
		if ids[m.ID] {
			return fmt.Errorf("%w: duplicate machine %q", ErrInvalidInstance, m.ID)
		}
		ids[m.ID] = true
		if math.IsNaN(m.Cost) || math.IsInf(m.Cost, 0) {
			return fmt.Errorf("%w: machine %q has cost %v", ErrInvalidInstance, m.ID, m.Cost)
		}
		supported := make(map[*Task]bool, len(m.Supported))
		for _, t := range m.Supported {
			if !jobs[t.Job] {
				return fmt.Errorf("%w: machine %q supports task %v of an unknown job", ErrInvalidInstance, m.ID, t)
			}
			if supported[t] {
				return fmt.Errorf("%w: machine %q lists task %v twice", ErrInvalidInstance, m.ID, t)
			}
			supported[t] = true
		}
		for j, s := range m.SetupTimes {
			if !jobs[j] {
				return fmt.Errorf("%w: machine %q has a setup time for an unknown job", ErrInvalidInstance, m.ID)
			}
			if !isNonNegative(s) {
				return fmt.Errorf("%w: machine %q has setup time %v for job %q", ErrInvalidInstance, m.ID, s, j.ID)
			}
		}
	}
	return nil
}

func isNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
