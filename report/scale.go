// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package report

const (
	DefaultJumpThreshold   = 50.0
	DefaultFallbackQuarter = "2022-q4"
)

// Point is one quarter of a chart series. A nil Value marks a quarter
// without data.
type Point struct {
	Quarter string   `json:"quarter"`
	Value   *float64 `json:"value"`
}

// ScaleCorrector undoes the switch from reporting value in thousands of
// dollars to whole dollars. Walking from the most recent quarter back, the
// first quarter whose total is more than JumpThreshold times smaller than
// the following quarter is taken as the last quarter reported in thousands.
// When no such drop exists FallbackQuarter is used. Every quarter up to and
// including the transition is multiplied by 1000.
//
// A real collapse in portfolio value larger than the threshold is
// indistinguishable from the unit change and will be scaled as well.
type ScaleCorrector struct {
	JumpThreshold   float64
	FallbackQuarter string
}

func NewScaleCorrector() ScaleCorrector {
	return ScaleCorrector{
		JumpThreshold:   DefaultJumpThreshold,
		FallbackQuarter: DefaultFallbackQuarter,
	}
}

// Transition returns the last quarter reported in thousands. points must be
// in ascending quarter order; points without a value are ignored.
func (corrector ScaleCorrector) Transition(points []Point) string {
	observed := make([]Point, 0, len(points))
	for idx := len(points) - 1; idx >= 0; idx-- {
		if points[idx].Value != nil {
			observed = append(observed, points[idx])
		}
	}

	for idx := 1; idx < len(observed); idx++ {
		older := *observed[idx].Value
		if older <= 0 {
			continue
		}
		if *observed[idx-1].Value/older > corrector.JumpThreshold {
			return observed[idx].Quarter
		}
	}

	return corrector.FallbackQuarter
}

// Correct returns a scaled copy of points and the transition quarter used
func (corrector ScaleCorrector) Correct(points []Point) ([]Point, string) {
	transition := corrector.Transition(points)

	corrected := make([]Point, len(points))
	for idx, point := range points {
		corrected[idx] = Point{Quarter: point.Quarter}
		if point.Value == nil {
			continue
		}
		val := *point.Value
		if point.Quarter <= transition {
			val *= 1000
		}
		corrected[idx].Value = &val
	}

	return corrected, transition
}
