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

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mipsched/mipsched/jobshop"
)

// yamlJob is a job of an instance file. Its tasks are given by their durations in step
// order.
type yamlJob struct {
	jobRow    `yaml:",inline"`
	Durations []float64 `yaml:"durations" validate:"min=1,dive,gt=0"`
}

// instanceFile is the YAML form of an instance:
//
//	jobs:
//	  - id: A
//	    due_date: 40
//	    durations: [4, 3, 4, 2]
//	machines:
//	  - id: M1
//	    cost: 1
//	    steps: [1, 2]
//	    setup_times: {A: 4}
type instanceFile struct {
	Jobs     []yamlJob    `yaml:"jobs" validate:"min=1,dive"`
	Machines []machineRow `yaml:"machines" validate:"dive"`
}

// DecodeYAML reads an instance file. Unknown fields are rejected.
func DecodeYAML(r io.Reader) (*jobshop.Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc instanceFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if err := validateRow(doc); err != nil {
		return nil, err
	}

	jobs := make([]jobRow, len(doc.Jobs))
	var tasks []taskRow
	for i, j := range doc.Jobs {
		jobs[i] = j.jobRow
		for s, d := range j.Durations {
			tasks = append(tasks, taskRow{JobID: j.ID, Step: s + 1, Duration: d})
		}
	}
	return assemble(jobs, tasks, doc.Machines)
}

// Load reads an instance from `path`: a YAML file when it ends in .yaml or .yml, a
// directory of CSV tables otherwise.
func Load(ctx context.Context, path string) (*jobshop.Instance, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		inst, err := DecodeYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return inst, nil
	}
	inst, err := LoadFS(ctx, os.DirFS(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}
