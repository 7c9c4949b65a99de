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

// Package config holds the settings of a job-shop solve. Settings are read from a YAML
// file such as
//
//	objective: weighted-makespan
//	time_limit: 2m
//	relative_gap: 0.01
//	ranks: 6
//	weights:
//	  assignment: 0.001
//	  start: 0.0001
//	solver:
//	  path: /usr/local/bin/cbc
//	  keep_files: true
//
// and fields missing from the file keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mipsched/mipsched/jobshop"
	"github.com/mipsched/mipsched/linear"
	"github.com/mipsched/mipsched/linear/cbc"
)

// ErrInvalidConfig is returned for settings that fail validation.
var ErrInvalidConfig = errors.New("invalid config")

// Solver locates the CBC binary.
type Solver struct {
	Path string `yaml:"path" validate:"required"`
	// KeepFiles leaves the LP and solution files of every run on disk.
	KeepFiles bool   `yaml:"keep_files"`
	WorkDir   string `yaml:"work_dir"`
}

// Weights are the tie-break weights of the weighted-makespan objective. Zero weights are
// derived from the instance.
type Weights struct {
	Assignment float64 `yaml:"assignment" validate:"gte=0"`
	Start      float64 `yaml:"start" validate:"gte=0"`
}

// Config is the full set of solve settings.
type Config struct {
	Objective               string        `yaml:"objective" validate:"objective"`
	Weights                 Weights       `yaml:"weights"`
	TimeLimit               time.Duration `yaml:"time_limit" validate:"gte=0"`
	RelativeGap             float64       `yaml:"relative_gap" validate:"gte=0,lte=1"`
	ComputeInfeasibleSubset bool          `yaml:"compute_infeasible_subset"`
	Threads                 int           `yaml:"threads" validate:"gte=0"`
	Ranks                   int           `yaml:"ranks" validate:"gte=0"`
	BigM                    float64       `yaml:"big_m" validate:"gte=0"`
	Tolerance               float64       `yaml:"tolerance" validate:"gt=0,lt=1"`
	Granularity             float64       `yaml:"granularity" validate:"gte=0"`
	Solver                  Solver        `yaml:"solver"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("objective", func(fl validator.FieldLevel) bool {
		_, err := jobshop.ParseObjectiveKind(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Objective:   jobshop.MinWeightedMakespan.String(),
		TimeLimit:   120 * time.Second,
		Tolerance:   jobshop.DefaultExtractOptions.Tolerance,
		Granularity: jobshop.DefaultExtractOptions.Granularity,
		Solver:      Solver{Path: "cbc"},
	}
}

// Parse decodes YAML settings over the defaults. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document keeps the defaults.
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the settings file at `path`.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]string, len(ve))
	for i, e := range ve {
		fields[i] = fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
}

// ObjectiveKind returns the parsed objective.
func (c *Config) ObjectiveKind() (jobshop.ObjectiveKind, error) {
	return jobshop.ParseObjectiveKind(c.Objective)
}

// ModelOptions returns the formulation options.
func (c *Config) ModelOptions() (jobshop.Options, error) {
	kind, err := c.ObjectiveKind()
	if err != nil {
		return jobshop.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return jobshop.Options{
		Ranks:     c.Ranks,
		BigM:      c.BigM,
		Objective: kind,
		Weights:   jobshop.Weights{Assignment: c.Weights.Assignment, Start: c.Weights.Start},
	}, nil
}

// Parameters returns the solver parameters.
func (c *Config) Parameters() linear.Parameters {
	return linear.Parameters{
		TimeLimit:               c.TimeLimit,
		RelativeGap:             c.RelativeGap,
		ComputeInfeasibleSubset: c.ComputeInfeasibleSubset,
		Threads:                 c.Threads,
	}
}

// ExtractOptions returns the solution interpretation options.
func (c *Config) ExtractOptions() jobshop.ExtractOptions {
	return jobshop.ExtractOptions{Tolerance: c.Tolerance, Granularity: c.Granularity}
}

// NewSolver returns the CBC adapter described by the solver settings.
func (c *Config) NewSolver() *cbc.Solver {
	return cbc.New(
		cbc.WithPath(c.Solver.Path),
		cbc.WithWorkDir(c.Solver.WorkDir),
		cbc.WithKeepFiles(c.Solver.KeepFiles),
	)
}
