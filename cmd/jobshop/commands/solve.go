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

package commands

import (
	"errors"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/jobshop/report"
)

func (c *CLI) newSolveCmd() *cobra.Command {
	var (
		mf        modelFlags
		timeLimit time.Duration
		gap       float64
		threads   int
		iis       bool
		cbcPath   string
		keepFiles bool
		hint      bool
		format    string
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve an instance and print the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q, want table or json", format)
			}
			cfg, err := mf.loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("time-limit") {
				cfg.TimeLimit = timeLimit
			}
			if flags.Changed("gap") {
				cfg.RelativeGap = gap
			}
			if flags.Changed("threads") {
				cfg.Threads = threads
			}
			if flags.Changed("infeasible-subset") {
				cfg.ComputeInfeasibleSubset = iis
			}
			if flags.Changed("cbc") {
				cfg.Solver.Path = cbcPath
			}
			if flags.Changed("keep-files") {
				cfg.Solver.KeepFiles = keepFiles
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			m, err := mf.buildModel(ctx, cfg)
			if err != nil {
				return err
			}
			if hint {
				plan, err := jobshop.GreedyPlan(m.Instance())
				if err == nil {
					err = m.SetHint(plan)
				}
				if err != nil {
					log.Warningf("no starting plan: %v", err)
				} else {
					log.V(1).Infof("starting plan with makespan %v", plan.Makespan())
				}
			}

			s, err := jobshop.Solve(ctx, m, c.newSolver(cfg), cfg.Parameters(), cfg.ExtractOptions())
			if err != nil {
				var ie *jobshop.InfeasibleError
				if errors.As(err, &ie) {
					for _, name := range ie.Subset {
						fmt.Fprintf(cmd.ErrOrStderr(), "conflicting constraint: %s\n", name)
					}
				}
				return err
			}
			if format == "json" {
				return report.WriteJSON(cmd.OutOrStdout(), s)
			}
			return report.WriteTable(cmd.OutOrStdout(), s)
		},
	}
	mf.register(cmd)
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "Solver time limit")
	cmd.Flags().Float64Var(&gap, "gap", 0, "Relative MIP gap at which to stop")
	cmd.Flags().IntVar(&threads, "threads", 0, "Solver threads")
	cmd.Flags().BoolVar(&iis, "infeasible-subset", false, "Report conflicting constraints of an infeasible instance")
	cmd.Flags().StringVar(&cbcPath, "cbc", "", "CBC binary")
	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Keep the CBC model and solution files")
	cmd.Flags().BoolVar(&hint, "hint", false, "Start the solver from a greedy list schedule")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}
