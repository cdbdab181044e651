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
package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidQuarter = errors.New("invalid quarter key")
)

// QuarterForMonth returns the quarter key (YYYY-qN) for a year and month. The
// boolean is false when month is outside 1-12.
func QuarterForMonth(year, month int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}

	return fmt.Sprintf("%04d-q%d", year, (month-1)/3+1), true
}

// ParseQuarter splits a quarter key of the form YYYY-qN into its year and
// quarter number
func ParseQuarter(key string) (int, int, error) {
	yearStr, qStr, found := strings.Cut(key, "-q")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuarter, key)
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuarter, key)
	}

	quarter, err := strconv.Atoi(qStr)
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuarter, key)
	}

	return year, quarter, nil
}

// GenerateQuarters lists every quarter key from first to last inclusive,
// including quarters for which no filing exists
func GenerateQuarters(first, last string) ([]string, error) {
	firstYear, firstQ, err := ParseQuarter(first)
	if err != nil {
		return nil, err
	}

	lastYear, lastQ, err := ParseQuarter(last)
	if err != nil {
		return nil, err
	}

	quarters := make([]string, 0)
	for year := firstYear; year <= lastYear; year++ {
		startQ := 1
		if year == firstYear {
			startQ = firstQ
		}

		endQ := 4
		if year == lastYear {
			endQ = lastQ
		}

		for q := startQ; q <= endQ; q++ {
			quarters = append(quarters, fmt.Sprintf("%04d-q%d", year, q))
		}
	}

	return quarters, nil
}
