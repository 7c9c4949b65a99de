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

package dataset

import "github.com/mipsched/mipsched/jobshop"

// Canonical returns the reference instance: four jobs of four steps due at 40, and four
// machines of escalating cost with overlapping step support. Every machine needs 4 time
// units to switch to job A, 2 for B, 3 for C and none for D.
func Canonical() *jobshop.Instance {
	a := jobshop.NewJob("A", 40, 4, 3, 4, 2)
	b := jobshop.NewJob("B", 40, 4, 6, 4, 3)
	c := jobshop.NewJob("C", 40, 3, 4, 3, 3)
	d := jobshop.NewJob("D", 40, 4, 8, 2, 8)
	inst := &jobshop.Instance{Jobs: []*jobshop.Job{a, b, c, d}}

	machine := func(id string, cost float64, steps ...int) *jobshop.Machine {
		return &jobshop.Machine{
			ID:         id,
			Cost:       cost,
			Supported:  inst.TasksAtSteps(steps...),
			SetupTimes: map[*jobshop.Job]float64{a: 4, b: 2, c: 3, d: 0},
		}
	}
	inst.Machines = []*jobshop.Machine{
		machine("A", 1, 1, 2),
		machine("B", 2, 1, 2, 3),
		machine("C", 3, 2, 3, 4),
		machine("D", 4, 3, 4),
	}
	return inst
}
