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
	"strings"

	log "github.com/golang/glog"

	"github.com/mipsched/mipsched/linear"
)

// ObjectiveKind selects one of the interchangeable objectives. All of them are minimized.
type ObjectiveKind int

const (
	// MinWeightedMakespan minimizes the makespan, breaking ties in favour of cheap
	// machines, early steps and early starts.
	MinWeightedMakespan ObjectiveKind = iota
	// MinMakespan minimizes the makespan alone.
	MinMakespan
	// MinTotalDelay minimizes the sum of job delays.
	MinTotalDelay
	// MinStartSum minimizes the sum of all start times.
	MinStartSum
)

var objectiveNames = []string{
	MinWeightedMakespan: "weighted-makespan",
	MinMakespan:         "makespan",
	MinTotalDelay:       "total-delay",
	MinStartSum:         "start-sum",
}

func (k ObjectiveKind) String() string {
	if k >= 0 && int(k) < len(objectiveNames) {
		return objectiveNames[k]
	}
	return fmt.Sprintf("ObjectiveKind(%d)", int(k))
}

// ParseObjectiveKind returns the kind named `s`, as printed by ObjectiveKind.String.
func ParseObjectiveKind(s string) (ObjectiveKind, error) {
	for k, n := range objectiveNames {
		if strings.EqualFold(s, n) {
			return ObjectiveKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown objective %q, want one of %s", s, strings.Join(objectiveNames, ", "))
}

// Weights are the tie-break coefficients of MinWeightedMakespan.
type Weights struct {
	// Assignment multiplies `assign * (machine cost + step)`.
	Assignment float64
	// Start multiplies every start time.
	Start float64
}

// CanonicalWeights are the historical tie-break weights. On instances with a big-M
// above a few units they can outweigh a unit of makespan.
var CanonicalWeights = Weights{Assignment: 0.001, Start: 0.01}

// maxTieBreak returns upper bounds of the two secondary sums of MinWeightedMakespan:
// the assignment sum and the start sum. Only one candidate per task is assigned and
// starts are at most big-M.
func maxTieBreak(inst *Instance, bigM float64) (assign, start float64) {
	for _, t := range inst.Tasks() {
		var worst float64
		for _, mc := range inst.SupportingMachines(t) {
			worst = math.Max(worst, math.Abs(mc.Cost+float64(t.Step)))
		}
		assign += worst
		start += bigM
	}
	return assign, start
}

// TieBreakWeights returns weights that keep the whole secondary term of
// MinWeightedMakespan below half a time unit, so it cannot change which makespan is
// optimal on instances with integral data.
func TieBreakWeights(inst *Instance, bigM float64) Weights {
	assign, start := maxTieBreak(inst, bigM)
	var w Weights
	if assign > 0 {
		w.Assignment = 0.25 / assign
	}
	if start > 0 {
		w.Start = 0.25 / start
	}
	return w
}

// SetObjective replaces the objective of the model. Negative weights are rejected. Zero
// weights are derived with
// TieBreakWeights; explicit weights that may perturb the optimal makespan are kept and logged.
func (m *Model) SetObjective(kind ObjectiveKind, w Weights) error {
	if w.Assignment < 0 || w.Start < 0 || math.IsNaN(w.Assignment) || math.IsNaN(w.Start) {
		return fmt.Errorf("tie-break weights must be non-negative, got %+v", w)
	}
	obj := linear.NewLinearExpr()
	switch kind {
	case MinStartSum:
		for _, c := range m.cands {
			obj.Add(m.vars[c].start)
		}
	case MinTotalDelay:
		for _, j := range m.inst.Jobs {
			obj.Add(m.delay[j])
		}
	case MinMakespan:
		obj.Add(m.latestEnd)
	case MinWeightedMakespan:
		if w == (Weights{}) {
			w = TieBreakWeights(m.inst, m.bigM)
		} else if assign, start := maxTieBreak(m.inst, m.bigM); w.Assignment*assign+w.Start*start >= 0.5 {
			log.Warningf("tie-break weights %+v can add up to %v to the objective and change the optimal makespan",
				w, w.Assignment*assign+w.Start*start)
		}
		obj.Add(m.latestEnd)
		for _, c := range m.cands {
			v := m.vars[c]
			obj.AddTerm(v.assign, (c.Machine.Cost+float64(c.Task.Step))*w.Assignment)
			obj.AddTerm(v.start, w.Start)
		}
	default:
		return fmt.Errorf("unknown objective %v", kind)
	}
	m.b.Minimize(obj)
	m.objective, m.weights = kind, w
	return nil
}

// Objective returns the active objective and, for MinWeightedMakespan, its weights.
func (m *Model) Objective() (ObjectiveKind, Weights) {
	return m.objective, m.weights
}
