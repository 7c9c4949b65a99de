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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidModel is returned when a model cannot be exported.
var ErrInvalidModel = errors.New("invalid model")

// termsPerLine keeps LP lines well under the 510 character limit of common readers.
const termsPerLine = 8

// ExportOptions groups all options for exporting models to text formats.
type ExportOptions struct {
	// Obfuscate replaces variable names with `V<index>` and constraint names with
	// `C<index>`. Solver adapters use it to map results back by index.
	Obfuscate bool
}

// ObfuscatedVarName returns the exported name of variable `ind` under ExportOptions.Obfuscate.
func ObfuscatedVarName(ind VarIndex) string {
	return "V" + strconv.Itoa(int(ind))
}

// ObfuscatedConstraintName returns the exported name of constraint `ind` under
// ExportOptions.Obfuscate.
func ObfuscatedConstraintName(ind ConstrIndex) string {
	return "C" + strconv.Itoa(int(ind))
}

// lpName maps an arbitrary name onto the LP identifier alphabet.
func lpName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case strings.ContainsRune("!\"#$%&()/,;?@_`'{}|~", r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	n := sb.String()
	if n == "" || (n[0] >= '0' && n[0] <= '9') || n[0] == 'e' || n[0] == 'E' {
		n = "_" + n
	}
	return n
}

type lpNamer struct {
	m         *ModelData
	obfuscate bool
	vars      []string
}

func newLpNamer(m *ModelData, obfuscate bool) (*lpNamer, error) {
	n := &lpNamer{m: m, obfuscate: obfuscate, vars: make([]string, len(m.Variables))}
	seen := make(map[string]int, len(m.Variables))
	for i, vd := range m.Variables {
		name := ObfuscatedVarName(VarIndex(i))
		if !obfuscate && vd.Name != "" {
			name = lpName(vd.Name)
		}
		if j, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: variables %d and %d both export as %q", ErrInvalidModel, j, i, name)
		}
		seen[name] = i
		n.vars[i] = name
	}
	return n, nil
}

func (n *lpNamer) row(i int) string {
	if n.obfuscate || n.m.Constraints[i].Name == "" {
		return ObfuscatedConstraintName(ConstrIndex(i))
	}
	return lpName(n.m.Constraints[i].Name)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (n *lpNamer) writeTerms(sb *strings.Builder, inds []VarIndex, coeffs []float64) {
	if len(inds) == 0 {
		// Readers need at least one term per row: anchor empty rows on the first column.
		fmt.Fprintf(sb, " 0 %s", n.vars[0])
		return
	}
	for i, ind := range inds {
		c := coeffs[i]
		if i > 0 && i%termsPerLine == 0 {
			sb.WriteString("\n  ")
		}
		switch {
		case c < 0:
			fmt.Fprintf(sb, " - %s %s", formatNumber(-c), n.vars[ind])
		case i == 0:
			fmt.Fprintf(sb, " %s %s", formatNumber(c), n.vars[ind])
		default:
			fmt.Fprintf(sb, " + %s %s", formatNumber(c), n.vars[ind])
		}
	}
}

// ExportModelAsLpFormat outputs the model as a string in CPLEX LP format.
//
// Ranged rows are split into a `_lo` and a `_hi` row. The objective offset is not
// exported; callers recompute the objective from the returned values.
//
// Usage:
//
//	modelStr, err := ExportModelAsLpFormat(model, ExportOptions{Obfuscate: true})
func ExportModelAsLpFormat(m *ModelData, opts ExportOptions) (string, error) {
	if m == nil || len(m.Variables) == 0 {
		return "", fmt.Errorf("%w: a model needs at least one variable to be exported as LP format", ErrInvalidModel)
	}
	for i, vd := range m.Variables {
		if math.IsNaN(vd.Lower) || math.IsNaN(vd.Upper) {
			return "", fmt.Errorf("%w: variable %d has NaN bounds", ErrInvalidModel, i)
		}
	}
	n, err := newLpNamer(m, opts.Obfuscate)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if m.Name != "" && !opts.Obfuscate {
		fmt.Fprintf(&sb, "\\ Model: %s\n", m.Name)
	}
	if m.Objective.Sense == Maximize {
		sb.WriteString("Maximize\n")
	} else {
		sb.WriteString("Minimize\n")
	}
	sb.WriteString(" obj:")
	n.writeTerms(&sb, m.Objective.Vars, m.Objective.Coeffs)
	sb.WriteString("\nSubject To\n")

	for i, row := range m.Constraints {
		if math.IsNaN(row.Lower) || math.IsNaN(row.Upper) {
			return "", fmt.Errorf("%w: constraint %d has NaN bounds", ErrInvalidModel, i)
		}
		name := n.row(i)
		lowerInf, upperInf := math.IsInf(row.Lower, -1), math.IsInf(row.Upper, 1)
		switch {
		case lowerInf && upperInf:
			continue
		case row.Lower == row.Upper:
			n.writeRow(&sb, name, row, "=", row.Lower)
		case lowerInf:
			n.writeRow(&sb, name, row, "<=", row.Upper)
		case upperInf:
			n.writeRow(&sb, name, row, ">=", row.Lower)
		default:
			n.writeRow(&sb, name+"_lo", row, ">=", row.Lower)
			n.writeRow(&sb, name+"_hi", row, "<=", row.Upper)
		}
	}

	sb.WriteString("Bounds\n")
	for i, vd := range m.Variables {
		if vd.Type == Binary && vd.Lower == 0 && vd.Upper == 1 {
			continue
		}
		name := n.vars[i]
		lowerInf, upperInf := math.IsInf(vd.Lower, -1), math.IsInf(vd.Upper, 1)
		switch {
		case lowerInf && upperInf:
			fmt.Fprintf(&sb, " %s free\n", name)
		case vd.Lower == vd.Upper:
			fmt.Fprintf(&sb, " %s = %s\n", name, formatNumber(vd.Lower))
		case upperInf:
			fmt.Fprintf(&sb, " %s >= %s\n", name, formatNumber(vd.Lower))
		case lowerInf:
			fmt.Fprintf(&sb, " -inf <= %s <= %s\n", name, formatNumber(vd.Upper))
		default:
			fmt.Fprintf(&sb, " %s <= %s <= %s\n", formatNumber(vd.Lower), name, formatNumber(vd.Upper))
		}
	}

	n.writeSection(&sb, "Generals", Integer)
	n.writeSection(&sb, "Binaries", Binary)
	sb.WriteString("End\n")
	return sb.String(), nil
}

func (n *lpNamer) writeRow(sb *strings.Builder, name string, row *RowData, op string, rhs float64) {
	fmt.Fprintf(sb, " %s:", name)
	n.writeTerms(sb, row.Vars, row.Coeffs)
	fmt.Fprintf(sb, " %s %s\n", op, formatNumber(rhs))
}

func (n *lpNamer) writeSection(sb *strings.Builder, title string, t VarType) {
	var names []string
	for i, vd := range n.m.Variables {
		if vd.Type == t {
			names = append(names, n.vars[i])
		}
	}
	if len(names) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for i := 0; i < len(names); i += termsPerLine {
		end := min(i+termsPerLine, len(names))
		fmt.Fprintf(sb, " %s\n", strings.Join(names[i:end], " "))
	}
}
