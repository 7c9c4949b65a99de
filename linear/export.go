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
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// protoBound encodes a bound as a number, or as "inf"/"-inf" since JSON numbers
// cannot carry infinities.
func protoBound(v float64) any {
	if math.IsInf(v, 0) {
		return formatBound(v)
	}
	return v
}

func protoTerms(inds []VarIndex, coeffs []float64) []any {
	terms := make([]any, 0, len(inds))
	for i, ind := range inds {
		terms = append(terms, map[string]any{"var": int64(ind), "coeff": coeffs[i]})
	}
	return terms
}

// ExportModelAsProto returns the model as a google.protobuf.Struct, suitable for
// shipping to remote solver services.
func ExportModelAsProto(m *ModelData) (*structpb.Struct, error) {
	vars := make([]any, 0, len(m.Variables))
	for _, vd := range m.Variables {
		vars = append(vars, map[string]any{
			"name":  vd.Name,
			"lower": protoBound(vd.Lower),
			"upper": protoBound(vd.Upper),
			"type":  vd.Type.String(),
		})
	}
	rows := make([]any, 0, len(m.Constraints))
	for _, row := range m.Constraints {
		rows = append(rows, map[string]any{
			"name":  row.Name,
			"lower": protoBound(row.Lower),
			"upper": protoBound(row.Upper),
			"terms": protoTerms(row.Vars, row.Coeffs),
		})
	}
	fields := map[string]any{
		"name":        m.Name,
		"variables":   vars,
		"constraints": rows,
		"objective": map[string]any{
			"sense":  m.Objective.Sense.String(),
			"offset": m.Objective.Offset,
			"terms":  protoTerms(m.Objective.Vars, m.Objective.Coeffs),
		},
	}
	if m.Hint != nil {
		hint := make([]any, 0, len(m.Hint.Vars))
		for i, ind := range m.Hint.Vars {
			hint = append(hint, map[string]any{"var": int64(ind), "value": m.Hint.Values[i]})
		}
		fields["hint"] = hint
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("converting model %q to proto failed: %w", m.Name, err)
	}
	return s, nil
}

// ExportModelAsJSON returns the proto form of the model in its JSON encoding.
func ExportModelAsJSON(m *ModelData) ([]byte, error) {
	s, err := ExportModelAsProto(m)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
}

// Fingerprint returns a hash of the model structure. Names do not contribute, so two
// models that only differ in naming share a fingerprint.
func Fingerprint(m *ModelData) (uint64, error) {
	lp, err := ExportModelAsLpFormat(m, ExportOptions{Obfuscate: true})
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64String(lp), nil
}
