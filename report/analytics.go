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

import (
	"errors"
	"fmt"
	"sort"

	"github.com/penny-vault/pv13f/data"
)

var (
	ErrQuarterNotFound = errors.New("quarter not found")
	ErrSameQuarter     = errors.New("quarters to compare must differ")
	ErrNoData          = errors.New("series has no data")
)

const DefaultTopN = 20

type Position struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type Change struct {
	Key   string  `json:"key"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Ratio float64 `json:"ratio"`
}

type HistoryRow struct {
	Key    string     `json:"key"`
	Values []*float64 `json:"values"`
}

// History follows a set of keys over a contiguous range of quarters in
// ascending order
type History struct {
	Quarters []string      `json:"quarters"`
	Rows     []*HistoryRow `json:"rows"`
}

func quarterIndex(series *data.Series, quarter string) (int, error) {
	idx := series.QuarterIndex(quarter)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrQuarterNotFound, quarter)
	}
	return idx, nil
}

// TopHoldings returns the n largest values reported in quarter, largest
// first. Keys absent from the quarter are ignored.
func TopHoldings(series *data.Series, quarter string, n int) ([]*Position, error) {
	idx, err := quarterIndex(series, quarter)
	if err != nil {
		return nil, err
	}

	positions := make([]*Position, 0, len(series.Rows))
	for _, row := range series.Rows {
		if row.Values[idx] == nil {
			continue
		}
		positions = append(positions, &Position{Key: row.Key, Value: *row.Values[idx]})
	}

	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].Value != positions[j].Value {
			return positions[i].Value > positions[j].Value
		}
		return positions[i].Key < positions[j].Key
	})

	if n > 0 && len(positions) > n {
		positions = positions[:n]
	}

	return positions, nil
}

// Compare ranks the keys held in both quarters by to/from, largest first.
// Keys with a zero value in the from quarter have no ratio and are left out.
func Compare(series *data.Series, from, to string, n int) ([]*Change, error) {
	if from == to {
		return nil, fmt.Errorf("%w: %s", ErrSameQuarter, from)
	}

	fromIdx, err := quarterIndex(series, from)
	if err != nil {
		return nil, err
	}

	toIdx, err := quarterIndex(series, to)
	if err != nil {
		return nil, err
	}

	changes := make([]*Change, 0)
	for _, row := range series.Rows {
		fromVal, toVal := row.Values[fromIdx], row.Values[toIdx]
		if fromVal == nil || toVal == nil || *fromVal == 0 {
			continue
		}
		changes = append(changes, &Change{
			Key:   row.Key,
			From:  *fromVal,
			To:    *toVal,
			Ratio: *toVal / *fromVal,
		})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Ratio != changes[j].Ratio {
			return changes[i].Ratio > changes[j].Ratio
		}
		return changes[i].Key < changes[j].Key
	})

	if n > 0 && len(changes) > n {
		changes = changes[:n]
	}

	return changes, nil
}

// TopHistory selects the n largest keys of the most recent quarter and
// returns their values over every quarter from the first observed to the
// most recent, including quarters without filings
func TopHistory(series *data.Series, n int) (*History, error) {
	if len(series.Quarters) == 0 {
		return nil, ErrNoData
	}

	ascending := sortedQuarters(series.Quarters)
	quarters, err := data.GenerateQuarters(ascending[0], ascending[len(ascending)-1])
	if err != nil {
		return nil, err
	}

	top, err := TopHoldings(series, ascending[len(ascending)-1], n)
	if err != nil {
		return nil, err
	}

	rowsByKey := make(map[string]*data.SeriesRow, len(series.Rows))
	for _, row := range series.Rows {
		rowsByKey[row.Key] = row
	}

	history := &History{
		Quarters: quarters,
		Rows:     make([]*HistoryRow, 0, len(top)),
	}

	for _, position := range top {
		source := rowsByKey[position.Key]
		row := &HistoryRow{
			Key:    position.Key,
			Values: make([]*float64, len(quarters)),
		}
		for idx, quarter := range quarters {
			if col := series.QuarterIndex(quarter); col >= 0 {
				row.Values[idx] = source.Values[col]
			}
		}
		history.Rows = append(history.Rows, row)
	}

	return history, nil
}

// TotalValue sums every quarter of a value series, corrects the unit change
// and spreads the result over the full quarter range. Quarters without
// filings have no value.
func TotalValue(series *data.Series, corrector ScaleCorrector) ([]Point, string, error) {
	if len(series.Quarters) == 0 {
		return nil, "", ErrNoData
	}

	totals := series.Totals()
	ascending := sortedQuarters(series.Quarters)

	observed := make([]Point, 0, len(ascending))
	for _, quarter := range ascending {
		total := totals[quarter]
		observed = append(observed, Point{Quarter: quarter, Value: &total})
	}

	corrected, transition := corrector.Correct(observed)
	byQuarter := make(map[string]*float64, len(corrected))
	for _, point := range corrected {
		byQuarter[point.Quarter] = point.Value
	}

	quarters, err := data.GenerateQuarters(ascending[0], ascending[len(ascending)-1])
	if err != nil {
		return nil, "", err
	}

	points := make([]Point, 0, len(quarters))
	for _, quarter := range quarters {
		points = append(points, Point{Quarter: quarter, Value: byQuarter[quarter]})
	}

	return points, transition, nil
}

func sortedQuarters(quarters []string) []string {
	ascending := make([]string, len(quarters))
	copy(ascending, quarters)
	sort.Strings(ascending)
	return ascending
}
