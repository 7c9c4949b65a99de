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
	"strconv"
)

// Interval stores the closed interval `[Lower,Upper]`. Infinite bounds represent an
// unbounded side. If `Lower` is greater than `Upper`, the interval is considered empty.
type Interval struct {
	Lower float64
	Upper float64
}

// NewInterval creates the interval `[lb,ub]`.
func NewInterval(lb, ub float64) Interval {
	return Interval{lb, ub}
}

// Point creates the singleton interval `[v,v]`.
func Point(v float64) Interval {
	return Interval{v, v}
}

// FullInterval returns `[-inf,+inf]`.
func FullInterval() Interval {
	return Interval{math.Inf(-1), math.Inf(1)}
}

// offsetBound adds `delta` to a finite bound. Infinite bounds stay infinite.
func offsetBound(v, delta float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return v + delta
}

// Offset adds an offset to both bounds of the interval. Infinite bounds are left as they
// are since they represent an unbounded side.
func (i Interval) Offset(delta float64) Interval {
	return Interval{offsetBound(i.Lower, delta), offsetBound(i.Upper, delta)}
}

// IsEmpty reports whether no value lies in the interval.
func (i Interval) IsEmpty() bool {
	return i.Lower > i.Upper
}

// Intersect returns the intersection of the two intervals.
func (i Interval) Intersect(o Interval) Interval {
	return Interval{math.Max(i.Lower, o.Lower), math.Min(i.Upper, o.Upper)}
}

// Violation returns how far `v` lies outside the interval, 0 if it lies inside.
func (i Interval) Violation(v float64) float64 {
	switch {
	case v < i.Lower:
		return i.Lower - v
	case v > i.Upper:
		return v - i.Upper
	}
	return 0
}

// Contains reports whether `v` lies in the interval widened by `tol` on both sides.
func (i Interval) Contains(v, tol float64) bool {
	return i.Violation(v) <= tol
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s,%s]", formatBound(i.Lower), formatBound(i.Upper))
}
