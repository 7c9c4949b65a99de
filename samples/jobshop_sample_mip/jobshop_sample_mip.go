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

// The jobshop_sample_mip command solves the four-job reference instance with CBC and
// prints the schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"

	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/jobshop/dataset"
	"github.com/mipsched/mipsched/jobshop/report"
	"github.com/mipsched/mipsched/linear"
	"github.com/mipsched/mipsched/linear/cbc"
)

var timeLimit = flag.Duration("time_limit", 120*time.Second, "CBC time limit")

func jobshopSampleMip() error {
	inst := dataset.Canonical()
	model, err := jobshop.NewModel(inst, jobshop.Options{})
	if err != nil {
		return fmt.Errorf("failed to build the model: %w", err)
	}

	// Start CBC from a list schedule.
	plan, err := jobshop.GreedyPlan(inst)
	if err != nil {
		return fmt.Errorf("failed to build a starting plan: %w", err)
	}
	if err := model.SetHint(plan); err != nil {
		return fmt.Errorf("failed to set the hint: %w", err)
	}
	fmt.Printf("Starting plan makespan: %v\n", plan.Makespan())

	params := linear.Parameters{TimeLimit: *timeLimit, ComputeInfeasibleSubset: true}
	schedule, err := jobshop.Solve(context.Background(), model, cbc.New(), params, jobshop.DefaultExtractOptions)
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	return report.WriteTable(os.Stdout, schedule)
}

func main() {
	flag.Parse()
	defer log.Flush()
	if err := jobshopSampleMip(); err != nil {
		log.Exitf("jobshopSampleMip returned with error: %v", err)
	}
}
