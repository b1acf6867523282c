// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stats aggregates the floorsheet: per symbol trading statistics and
// per broker turnover.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample of weighted values, such as trade rates weighted by quantity.
type Sample struct {
	values  []float64
	weights []float64
}

// NewSample creates a new empty sample.
func NewSample() *Sample {
	return &Sample{}
}

// Add a value with its weight. Values with non-positive weights are ignored.
func (s *Sample) Add(x, w float64) *Sample {
	if w <= 0 {
		return s
	}
	s.values = append(s.values, x)
	s.weights = append(s.weights, w)
	return s
}

// Len is the number of values in the sample.
func (s *Sample) Len() int { return len(s.values) }

// Mean weighted by the weights, zero for an empty sample.
func (s *Sample) Mean() float64 {
	if s.Len() == 0 {
		return 0
	}
	return stat.Mean(s.values, s.weights)
}

// StdDev is the weighted standard deviation; zero with fewer than two values.
func (s *Sample) StdDev() float64 {
	if s.Len() < 2 {
		return 0
	}
	return stat.StdDev(s.values, s.weights)
}

// Min value, zero for an empty sample.
func (s *Sample) Min() float64 {
	if s.Len() == 0 {
		return 0
	}
	return floats.Min(s.values)
}

// Max value, zero for an empty sample.
func (s *Sample) Max() float64 {
	if s.Len() == 0 {
		return 0
	}
	return floats.Max(s.values)
}

// Weight is the sum of the weights.
func (s *Sample) Weight() float64 {
	return floats.Sum(s.weights)
}
