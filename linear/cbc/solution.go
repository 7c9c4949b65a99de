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

package cbc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mipsched/mipsched/linear"
)

// ErrMalformedSolution is returned when the CBC solution file cannot be parsed.
var ErrMalformedSolution = errors.New("malformed cbc solution")

// parseStatus maps the first line of a CBC solution file to a status.
func parseStatus(line string) linear.Status {
	head, _, _ := strings.Cut(line, " - ")
	head = strings.TrimSpace(head)
	switch {
	case head == "Optimal":
		return linear.Optimal
	case head == "Infeasible", strings.HasPrefix(head, "Integer infeasible"):
		return linear.Infeasible
	case head == "Unbounded", strings.HasPrefix(head, "Integer unbounded"):
		return linear.Unbounded
	case strings.HasPrefix(head, "Stopped"):
		if strings.Contains(head, "no integer solution") {
			return linear.Unknown
		}
		return linear.Feasible
	}
	return linear.Unknown
}

// parseSolution reads a solution file written by the CBC `solu` command for a model
// exported with obfuscated names. Rows look like `index name value reduced`, optionally
// prefixed with `**` when CBC flags them. Variables absent from the file are zero.
func parseSolution(r io.Reader, numVars int) (*linear.Response, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSolution, err)
		}
		return nil, fmt.Errorf("%w: empty file", ErrMalformedSolution)
	}
	resp := &linear.Response{Status: parseStatus(sc.Text())}
	values := make([]float64, numVars)

	for sc.Scan() {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: short row %q", ErrMalformedSolution, sc.Text())
		}
		name := fields[1]
		if !strings.HasPrefix(name, "V") {
			// Row activities of `C<i>` constraints.
			continue
		}
		ind, err := strconv.Atoi(name[1:])
		if err != nil || ind < 0 || ind >= numVars {
			return nil, fmt.Errorf("%w: unknown column %q", ErrMalformedSolution, name)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value of %s: %v", ErrMalformedSolution, name, err)
		}
		values[ind] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSolution, err)
	}
	if resp.Status.HasSolution() {
		resp.Values = values
	}
	return resp, nil
}

// formatStart writes a hint in the solution file layout CBC reads with `mips`.
func formatStart(h *linear.PartialAssignment) []byte {
	var buf bytes.Buffer
	buf.WriteString("Feasible - objective value 0\n")
	for i, ind := range h.Vars {
		fmt.Fprintf(&buf, "%7d %s %s 0\n", i, linear.ObfuscatedVarName(ind), strconv.FormatFloat(h.Values[i], 'g', -1, 64))
	}
	return buf.Bytes()
}
