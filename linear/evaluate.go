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

package linear

import (
	"fmt"
	"math"
)

// ViolationKind tells which part of the model a Violation refers to.
type ViolationKind int

const (
	// RowViolation is a constraint whose activity lies outside its bounds.
	RowViolation ViolationKind = iota
	// BoundViolation is a variable value outside the variable bounds.
	BoundViolation
	// IntegralityViolation is a fractional value of an integer or binary variable.
	IntegralityViolation
)

// Violation describes one unsatisfied part of a model under given values.
type Violation struct {
	Kind     ViolationKind
	Name     string
	Activity float64
	Bounds   Interval
	Amount   float64
}

func (v Violation) String() string {
	switch v.Kind {
	case BoundViolation:
		return fmt.Sprintf("variable %s = %g outside %v", v.Name, v.Activity, v.Bounds)
	case IntegralityViolation:
		return fmt.Sprintf("variable %s = %g is not integral", v.Name, v.Activity)
	}
	return fmt.Sprintf("constraint %s activity %g outside %v by %g", v.Name, v.Activity, v.Bounds, v.Amount)
}

// RowActivity returns the activity of `row` under the given values.
func RowActivity(row *RowData, values []float64) float64 {
	var a float64
	for i, ind := range row.Vars {
		a += row.Coeffs[i] * valueAt(values, ind)
	}
	return a
}

// ObjectiveValue returns the objective of `m` under the given values.
func ObjectiveValue(m *ModelData, values []float64) float64 {
	o := m.Objective.Offset
	for i, ind := range m.Objective.Vars {
		o += m.Objective.Coeffs[i] * valueAt(values, ind)
	}
	return o
}

func varLabel(m *ModelData, ind int) string {
	if n := m.Variables[ind].Name; n != "" {
		return n
	}
	return fmt.Sprintf("var_%d", ind)
}

func rowLabel(m *ModelData, ind int) string {
	if n := m.Constraints[ind].Name; n != "" {
		return n
	}
	return fmt.Sprintf("ct_%d", ind)
}

// Violations evaluates every bound, integrality requirement and row of `m` under the
// given values and returns those violated by more than `tol`. Missing values are zero.
func Violations(m *ModelData, values []float64, tol float64) []Violation {
	var out []Violation
	for i, vd := range m.Variables {
		val := valueAt(values, VarIndex(i))
		b := Interval{vd.Lower, vd.Upper}
		if d := b.Violation(val); d > tol {
			out = append(out, Violation{Kind: BoundViolation, Name: varLabel(m, i), Activity: val, Bounds: b, Amount: d})
		}
		if vd.Type != Continuous {
			if d := math.Abs(val - math.Round(val)); d > tol {
				out = append(out, Violation{Kind: IntegralityViolation, Name: varLabel(m, i), Activity: val, Bounds: b, Amount: d})
			}
		}
	}
	for i, row := range m.Constraints {
		a := RowActivity(row, values)
		b := Interval{row.Lower, row.Upper}
		if d := b.Violation(a); d > tol {
			out = append(out, Violation{Kind: RowViolation, Name: rowLabel(m, i), Activity: a, Bounds: b, Amount: d})
		}
	}
	return out
}

// TriviallyInfeasible returns the names of rows that no assignment can satisfy on their
// own: rows without variables whose bounds exclude zero, and rows with empty bounds.
func TriviallyInfeasible(m *ModelData) []string {
	var names []string
	for i, row := range m.Constraints {
		b := Interval{row.Lower, row.Upper}
		if b.IsEmpty() || (len(row.Vars) == 0 && !b.Contains(0, 0)) {
			names = append(names, rowLabel(m, i))
		}
	}
	return names
}
