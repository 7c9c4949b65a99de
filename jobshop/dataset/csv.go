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

// Package dataset loads job-shop instances from CSV tables and YAML files.
//
// A CSV instance is a directory with three tables:
//
//	jobs.csv      job_id,due_date
//	tasks.csv     job_id,step,duration
//	machines.csv  machine_id,cost,supported_steps,setup_times
//
// supported_steps lists step numbers separated by `|`; setup_times lists `job=time`
// pairs separated by `|`. A machine supports the listed steps of every job.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/mipsched/mipsched/jobshop"
)

// ErrInvalidData is returned when a table or file cannot be turned into an instance.
var ErrInvalidData = errors.New("invalid instance data")

// Table file names.
const (
	JobsFile     = "jobs.csv"
	TasksFile    = "tasks.csv"
	MachinesFile = "machines.csv"
)

var validate = validator.New()

type jobRow struct {
	ID      string  `yaml:"id" validate:"required"`
	DueDate float64 `yaml:"due_date" validate:"gte=0"`
}

type taskRow struct {
	JobID    string  `validate:"required"`
	Step     int     `validate:"gte=1"`
	Duration float64 `validate:"gt=0"`
}

type machineRow struct {
	ID         string             `yaml:"id" validate:"required"`
	Cost       float64            `yaml:"cost"`
	Steps      []int              `yaml:"steps" validate:"dive,gte=1"`
	SetupTimes map[string]float64 `yaml:"setup_times" validate:"dive,keys,required,endkeys,gte=0"`
}

// validateRow checks the struct tags of a row and reports the failing fields.
func validateRow(row any) error {
	err := validate.Struct(row)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]string, len(ve))
	for i, e := range ve {
		fields[i] = fmt.Sprintf("%s failed %q", e.Field(), e.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(fields, ", "))
}

// table is a CSV file whose columns are addressed by header name.
type table struct {
	name    string
	columns map[string]int
	records [][]string
}

func readTable(fsys fs.FS, name string, required ...string) (*table, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTable(f, name, required...)
}

func parseTable(r io.Reader, name string, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidData, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: missing header", ErrInvalidData, name)
	}
	t := &table{name: name, columns: make(map[string]int), records: records[1:]}
	for i, h := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := t.columns[c]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrInvalidData, name, c)
		}
	}
	return t, nil
}

// rows calls fn for every record; line numbers count the header as line 1.
func (t *table) rows(fn func(line int, get func(string) string) error) error {
	for i, rec := range t.records {
		get := func(col string) string {
			j, ok := t.columns[col]
			if !ok || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		if err := fn(i+2, get); err != nil {
			return fmt.Errorf("%s line %d: %w", t.name, i+2, err)
		}
	}
	return nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidData, field, s)
	}
	return v, nil
}

func parseJobs(t *table) ([]jobRow, error) {
	var out []jobRow
	err := t.rows(func(_ int, get func(string) string) error {
		due, err := parseFloat(get("due_date"), "due_date")
		if err != nil {
			return err
		}
		row := jobRow{ID: get("job_id"), DueDate: due}
		if err := validateRow(row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

func parseTasks(t *table) ([]taskRow, error) {
	var out []taskRow
	err := t.rows(func(_ int, get func(string) string) error {
		step, err := strconv.Atoi(get("step"))
		if err != nil {
			return fmt.Errorf("%w: step %q is not an integer", ErrInvalidData, get("step"))
		}
		d, err := parseFloat(get("duration"), "duration")
		if err != nil {
			return err
		}
		row := taskRow{JobID: get("job_id"), Step: step, Duration: d}
		if err := validateRow(row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMachines(t *table) ([]machineRow, error) {
	var out []machineRow
	err := t.rows(func(_ int, get func(string) string) error {
		cost, err := parseFloat(get("cost"), "cost")
		if err != nil {
			return err
		}
		row := machineRow{ID: get("machine_id"), Cost: cost, SetupTimes: make(map[string]float64)}
		for _, s := range splitList(get("supported_steps")) {
			step, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%w: supported step %q is not an integer", ErrInvalidData, s)
			}
			row.Steps = append(row.Steps, step)
		}
		for _, pair := range splitList(get("setup_times")) {
			job, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("%w: setup time %q is not job=time", ErrInvalidData, pair)
			}
			st, err := parseFloat(strings.TrimSpace(v), "setup time")
			if err != nil {
				return err
			}
			row.SetupTimes[strings.TrimSpace(job)] = st
		}
		if err := validateRow(row); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// LoadFS reads the three tables of an instance from `fsys` concurrently and assembles
// the instance.
func LoadFS(ctx context.Context, fsys fs.FS) (*jobshop.Instance, error) {
	var (
		jobs     []jobRow
		tasks    []taskRow
		machines []machineRow
	)
	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, columns []string, parse func(*table) error) func() error {
		return func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := readTable(fsys, name, columns...)
			if err != nil {
				return err
			}
			return parse(t)
		}
	}
	g.Go(load(JobsFile, []string{"job_id", "due_date"}, func(t *table) (err error) {
		jobs, err = parseJobs(t)
		return err
	}))
	g.Go(load(TasksFile, []string{"job_id", "step", "duration"}, func(t *table) (err error) {
		tasks, err = parseTasks(t)
		return err
	}))
	g.Go(load(MachinesFile, []string{"machine_id", "cost", "supported_steps", "setup_times"}, func(t *table) (err error) {
		machines, err = parseMachines(t)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inst, err := assemble(jobs, tasks, machines)
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("loaded instance with %d jobs, %d tasks and %d machines", len(inst.Jobs), len(inst.Tasks()), len(inst.Machines))
	return inst, nil
}

// assemble links the rows into an instance and validates it.
func assemble(jobs []jobRow, tasks []taskRow, machines []machineRow) (*jobshop.Instance, error) {
	inst := &jobshop.Instance{}
	byID := make(map[string]*jobshop.Job, len(jobs))
	for _, r := range jobs {
		if _, ok := byID[r.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate job %q", ErrInvalidData, r.ID)
		}
		j := &jobshop.Job{ID: r.ID, DueDate: r.DueDate}
		byID[r.ID] = j
		inst.Jobs = append(inst.Jobs, j)
	}

	steps := make(map[*jobshop.Job]map[int]float64)
	for _, r := range tasks {
		j, ok := byID[r.JobID]
		if !ok {
			return nil, fmt.Errorf("%w: task of unknown job %q", ErrInvalidData, r.JobID)
		}
		if steps[j] == nil {
			steps[j] = make(map[int]float64)
		}
		if _, dup := steps[j][r.Step]; dup {
			return nil, fmt.Errorf("%w: job %q has step %d twice", ErrInvalidData, r.JobID, r.Step)
		}
		steps[j][r.Step] = r.Duration
	}
	for _, j := range inst.Jobs {
		for s := 1; s <= len(steps[j]); s++ {
			d, ok := steps[j][s]
			if !ok {
				return nil, fmt.Errorf("%w: job %q is missing step %d", ErrInvalidData, j.ID, s)
			}
			j.Tasks = append(j.Tasks, &jobshop.Task{Job: j, Step: s, Duration: d})
		}
	}

	for _, r := range machines {
		mc := &jobshop.Machine{
			ID:         r.ID,
			Cost:       r.Cost,
			Supported:  inst.TasksAtSteps(r.Steps...),
			SetupTimes: make(map[*jobshop.Job]float64, len(r.SetupTimes)),
		}
		for id, st := range r.SetupTimes {
			j, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: machine %q has a setup time for unknown job %q", ErrInvalidData, r.ID, id)
			}
			mc.SetupTimes[j] = st
		}
		inst.Machines = append(inst.Machines, mc)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}
