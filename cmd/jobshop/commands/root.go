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

// Package commands implements the jobshop command line.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mipsched/mipsched/config"
	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/jobshop/dataset"
	"github.com/mipsched/mipsched/linear"
)

// ErrNoInstance is returned when neither an instance path nor --canonical is given.
var ErrNoInstance = errors.New("no instance given: pass --instance or --canonical")

// SolverFactory returns the solver for a configuration.
type SolverFactory func(*config.Config) linear.Solver

// DefaultSolverFactory runs CBC as configured.
func DefaultSolverFactory(c *config.Config) linear.Solver {
	return c.NewSolver()
}

// CLI is the jobshop command tree.
type CLI struct {
	newSolver SolverFactory
	rootCmd   *cobra.Command
}

// New returns the command tree. A nil factory selects DefaultSolverFactory.
func New(newSolver SolverFactory) *CLI {
	if newSolver == nil {
		newSolver = DefaultSolverFactory
	}
	rootCmd := &cobra.Command{
		Use:           "jobshop",
		Short:         "Schedule flexible job shops with a mixed-integer program",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// glog reads its flags from the standard flag set, which cobra fills in.
			return flag.CommandLine.Parse(nil)
		},
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	c := &CLI{newSolver: newSolver, rootCmd: rootCmd}
	rootCmd.AddCommand(c.newSolveCmd())
	rootCmd.AddCommand(c.newExportCmd())
	rootCmd.AddCommand(c.newVersionCmd())
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// modelFlags are the flags shared by the commands that build a model.
type modelFlags struct {
	instance   string
	canonical  bool
	configPath string
	objective  string
	ranks      int
	bigM       float64
	weights    config.Weights
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.instance, "instance", "i", "", "Instance YAML file or directory of CSV tables")
	cmd.Flags().BoolVar(&f.canonical, "canonical", false, "Use the built-in four-job reference instance")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Settings file; flags override its values")
	cmd.Flags().StringVar(&f.objective, "objective", "", "Objective: weighted-makespan, makespan, total-delay or start-sum")
	cmd.Flags().IntVar(&f.ranks, "ranks", 0, "Ranks per machine; 0 allows one per supported task")
	cmd.Flags().Float64Var(&f.bigM, "big-m", 0, "Override the derived big-M constant")
	cmd.Flags().Float64Var(&f.weights.Assignment, "weight-assignment", 0, "Tie-break weight of machine cost and step; 0 derives it")
	cmd.Flags().Float64Var(&f.weights.Start, "weight-start", 0, "Tie-break weight of start times; 0 derives it")
	cmd.MarkFlagsMutuallyExclusive("instance", "canonical")
}

// loadConfig reads the settings file, if any, and applies the flags that were set.
func (f *modelFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("objective") {
		cfg.Objective = f.objective
	}
	if flags.Changed("ranks") {
		cfg.Ranks = f.ranks
	}
	if flags.Changed("big-m") {
		cfg.BigM = f.bigM
	}
	if flags.Changed("weight-assignment") {
		cfg.Weights.Assignment = f.weights.Assignment
	}
	if flags.Changed("weight-start") {
		cfg.Weights.Start = f.weights.Start
	}
	return cfg, nil
}

func (f *modelFlags) loadInstance(ctx context.Context) (*jobshop.Instance, error) {
	switch {
	case f.canonical:
		return dataset.Canonical(), nil
	case f.instance != "":
		return dataset.Load(ctx, f.instance)
	}
	return nil, ErrNoInstance
}

// buildModel loads the instance and builds its model as configured.
func (f *modelFlags) buildModel(ctx context.Context, cfg *config.Config) (*jobshop.Model, error) {
	inst, err := f.loadInstance(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ModelOptions()
	if err != nil {
		return nil, err
	}
	m, err := jobshop.NewModel(inst, opts)
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	return m, nil
}
