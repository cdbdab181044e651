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
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

// pivot accumulates one wide table while the clean quarters are scanned
type pivot struct {
	series *data.Series
	rows   map[string]*data.SeriesRow
}

func newPivot(key data.MergeKey, target data.Target, quarters []string) *pivot {
	return &pivot{
		series: &data.Series{
			Key:      key,
			Target:   target,
			Quarters: quarters,
		},
		rows: make(map[string]*data.SeriesRow),
	}
}

func (p *pivot) add(rowKey string, quarterIdx int, val float64) {
	row, ok := p.rows[rowKey]
	if !ok {
		row = &data.SeriesRow{
			Key:    rowKey,
			Values: make([]*float64, len(p.series.Quarters)),
		}
		p.rows[rowKey] = row
	}

	if row.Values[quarterIdx] == nil {
		row.Values[quarterIdx] = new(float64)
	}
	*row.Values[quarterIdx] += val
}

func (p *pivot) finish() *data.Series {
	p.series.Rows = make([]*data.SeriesRow, 0, len(p.rows))
	for _, row := range p.rows {
		p.series.Rows = append(p.series.Rows, row)
	}

	sort.Slice(p.series.Rows, func(i, j int) bool {
		return p.series.Rows[i].Key < p.series.Rows[j].Key
	})

	return p.series
}

func mergeKeyOf(h *data.Holding, key data.MergeKey, canonical map[string]string) (string, bool) {
	switch key {
	case data.ByCusip:
		return h.Cusip, h.Cusip != ""
	case data.ByCanonical:
		name, ok := canonical[h.NameOfIssuer]
		return name, ok && name != ""
	default:
		return h.NameOfIssuer, h.NameOfIssuer != ""
	}
}

// Merge pivots every clean quarter into one wide table per merge key and
// target variable. Rows sharing a key within a quarter are summed. Columns
// run from the most recent quarter to the oldest and rows are sorted by key.
// Holdings whose issuer has no canonical name are left out of the name keyed
// tables.
func Merge(ctx context.Context, repo workspace.Repository, entity string) ([]*data.Series, error) {
	logger := zerolog.Ctx(ctx)

	quarters, err := repo.ListStage(entity, workspace.StageClean)
	if err != nil {
		return nil, err
	}

	if len(quarters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCleanData, entity)
	}

	identities, err := readMapping(repo, entity)
	if err != nil {
		return nil, err
	}
	canonical := identities.CanonicalNames()

	columns := make([]string, len(quarters))
	copy(columns, quarters)
	sort.Sort(sort.Reverse(sort.StringSlice(columns)))

	pivots := make([]*pivot, 0, len(data.MergeKeys)*len(data.Targets))
	for _, key := range data.MergeKeys {
		for _, target := range data.Targets {
			pivots = append(pivots, newPivot(key, target, columns))
		}
	}

	for quarterIdx, quarter := range columns {
		holdings, err := workspace.ReadHoldings(repo, entity, workspace.StageClean, quarter)
		if err != nil {
			return nil, err
		}

		for _, h := range holdings {
			for _, p := range pivots {
				rowKey, ok := mergeKeyOf(h, p.series.Key, canonical)
				if !ok {
					continue
				}
				p.add(rowKey, quarterIdx, p.series.Target.Of(h))
			}
		}
	}

	result := make([]*data.Series, 0, len(pivots))
	for _, p := range pivots {
		series := p.finish()
		if err := workspace.WriteSeries(repo, entity, series); err != nil {
			return nil, err
		}
		result = append(result, series)
	}

	logger.Debug().Str("CIK", entity).Int("NumQuarters", len(columns)).Int("NumSeries", len(result)).
		Msg("merged time series")

	return result, nil
}

// Rebuild recomputes the clean, mapping and merge stages of an entity from
// its raw filings
func Rebuild(ctx context.Context, repo workspace.Repository, entity string) error {
	if err := Aggregate(ctx, repo, entity); err != nil {
		return err
	}

	if _, err := ResolveIdentities(ctx, repo, entity); err != nil {
		return err
	}

	if _, err := Merge(ctx, repo, entity); err != nil {
		return err
	}

	return nil
}

// RebuildAll runs Rebuild for every entity in the workspace
func RebuildAll(ctx context.Context, repo workspace.Repository) ([]string, error) {
	entities, err := repo.ListEntities()
	if err != nil {
		return nil, err
	}

	for _, entity := range entities {
		if err := Rebuild(ctx, repo, entity); err != nil {
			return nil, fmt.Errorf("rebuild %s: %w", entity, err)
		}
	}

	return entities, nil
}
