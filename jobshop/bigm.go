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

import "math"

// BigM returns the constant guarding the disjunctive rows of the formulation.
//
// Walking back from the last task of a schedule without unforced idle time, every
// instant is covered by the processing or the incoming setup of a distinct task. The
// makespan is therefore at most the sum over tasks of the duration plus the largest
// setup of the task's job on a machine able to process it. The sequencing rows add one
// more setup on top of a completion time, so the largest setup time is added once more,
// plus one to keep the guard strict.
//
// A smaller value cuts off valid schedules without any error being raised.
func BigM(inst *Instance) float64 {
	var sum, maxSetup float64
	for _, m := range inst.Machines {
		maxSetup = math.Max(maxSetup, m.MaxSetupTime())
	}
	for _, t := range inst.Tasks() {
		var s float64
		for _, m := range inst.SupportingMachines(t) {
			s = math.Max(s, m.SetupTime(t.Job))
		}
		sum += t.Duration + s
	}
	return sum + maxSetup + 1
}
