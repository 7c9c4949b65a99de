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

// Package report renders job-shop schedules as terminal tables and as JSON.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mipsched/mipsched/jobshop"
)

// ErrNilSchedule is returned when there is nothing to report.
var ErrNilSchedule = errors.New("nil schedule")

// Colors.
var (
	Iris  = lipgloss.Color("#8B5CF6")
	Slate = lipgloss.Color("#667085")
	Green = lipgloss.Color("#22A06B")
	Red   = lipgloss.Color("#D93025")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(Iris)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	lateStyle   = cellStyle.Foreground(Red)
	onTimeStyle = cellStyle.Foreground(Green)
	borderStyle = lipgloss.NewStyle().Foreground(Slate)
)

func slotProto(s jobshop.Slot) map[string]any {
	return map[string]any{
		"task":    s.Task.String(),
		"job":     s.Task.Job.ID,
		"step":    s.Task.Step,
		"machine": s.Machine.ID,
		"rank":    s.Rank,
		"start":   s.Start,
		"end":     s.End,
	}
}

func slotsProto(slots []jobshop.Slot) []any {
	out := make([]any, len(slots))
	for i, s := range slots {
		out[i] = slotProto(s)
	}
	return out
}

// Proto returns the schedule as a struct proto with one entry per machine and per job.
func Proto(s *jobshop.Schedule) (*structpb.Struct, error) {
	if s == nil {
		return nil, ErrNilSchedule
	}
	machines := make([]any, len(s.Machines))
	for i, ms := range s.Machines {
		machines[i] = map[string]any{
			"machine": ms.Machine.ID,
			"cost":    ms.Machine.Cost,
			"slots":   slotsProto(ms.Slots),
		}
	}
	jobs := make([]any, len(s.Jobs))
	for i, js := range s.Jobs {
		jobs[i] = map[string]any{
			"job":         js.Job.ID,
			"due_date":    js.Job.DueDate,
			"completion":  js.Completion,
			"delay":       js.Delay,
			"model_delay": js.ModelDelay,
			"slots":       slotsProto(js.Slots),
		}
	}
	st, err := structpb.NewStruct(map[string]any{
		"status":     s.Status.String(),
		"optimal":    s.Optimal,
		"objective":  s.Objective,
		"latest_end": s.LatestEnd,
		"makespan":   s.Makespan,
		"machines":   machines,
		"jobs":       jobs,
	})
	if err != nil {
		return nil, fmt.Errorf("converting schedule to proto failed: %w", err)
	}
	return st, nil
}

// WriteJSON writes the proto form of the schedule as indented JSON.
func WriteJSON(w io.Writer, s *jobshop.Schedule) error {
	st, err := Proto(s)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// MachineTable lists the slots of every machine in rank order.
func MachineTable(s *jobshop.Schedule) *table.Table {
	t := newTable("Machine", "Rank", "Task", "Start", "End")
	for _, ms := range s.Machines {
		for _, slot := range ms.Slots {
			t.Row(ms.Machine.ID, strconv.Itoa(slot.Rank), slot.Task.String(), num(slot.Start), num(slot.End))
		}
	}
	return t
}

// JobTable lists every job with its completion and delay. Late jobs are highlighted.
func JobTable(s *jobshop.Schedule) *table.Table {
	late := make(map[int]bool)
	t := newTable("Job", "Route", "Due", "Completion", "Delay")
	for i, js := range s.Jobs {
		route := ""
		for k, slot := range js.Slots {
			if k > 0 {
				route += " > "
			}
			route += slot.Machine.ID
		}
		late[i] = js.Delay > 0
		t.Row(js.Job.ID, route, num(js.Job.DueDate), num(js.Completion), num(js.Delay))
	}
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 4 && late[row]:
			return lateStyle
		case col == 4:
			return onTimeStyle
		}
		return cellStyle
	})
}

// WriteTable writes a summary line followed by the machine and job tables.
func WriteTable(w io.Writer, s *jobshop.Schedule) error {
	if s == nil {
		return ErrNilSchedule
	}
	summary := fmt.Sprintf("%s  objective %s  makespan %s", s.Status, num(s.Objective), num(s.Makespan))
	if !s.Optimal {
		summary += "  (not proven optimal)"
	}
	out := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(summary),
		"",
		titleStyle.Render("Machines"),
		MachineTable(s).Render(),
		"",
		titleStyle.Render("Jobs"),
		JobTable(s).Render(),
	)
	_, err := fmt.Fprintln(w, out)
	return err
}
