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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownMergeKey = errors.New("unknown merge key")
	ErrUnknownTarget   = errors.New("unknown target variable")
)

// MergeKey selects how holdings are identified across quarters
type MergeKey string

const (
	ByIssuer    MergeKey = "nameOfIssuer"
	ByCusip     MergeKey = "cusip"
	ByCanonical MergeKey = "name"
)

// Target is the reported quantity tracked over time
type Target string

const (
	Proportion Target = "proportion"
	Shares     Target = "shares"
	Value      Target = "value"
)

var (
	MergeKeys = []MergeKey{ByIssuer, ByCusip, ByCanonical}
	Targets   = []Target{Proportion, Shares, Value}
)

func ParseMergeKey(s string) (MergeKey, error) {
	for _, k := range MergeKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMergeKey, s)
}

func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// Column is the holdings column that feeds the target variable
func (t Target) Column() string {
	switch t {
	case Proportion:
		return "portfolio %"
	case Shares:
		return "shrsOrPrnAmt_sshPrnamt"
	default:
		return "value"
	}
}

// Of extracts the target variable from a holding
func (t Target) Of(h *Holding) float64 {
	switch t {
	case Proportion:
		return h.PortfolioPercent
	case Shares:
		return float64(h.Shares)
	default:
		return float64(h.Value)
	}
}

// SeriesArtifact is the merge artifact name for a key and target pair
func SeriesArtifact(key MergeKey, target Target) string {
	return fmt.Sprintf("%s_to_%s", key, target)
}

// ParseSeriesArtifact reverses SeriesArtifact
func ParseSeriesArtifact(name string) (MergeKey, Target, error) {
	keyStr, targetStr, found := strings.Cut(name, "_to_")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownMergeKey, name)
	}

	key, err := ParseMergeKey(keyStr)
	if err != nil {
		return "", "", err
	}

	target, err := ParseTarget(targetStr)
	if err != nil {
		return "", "", err
	}

	return key, target, nil
}

// Series is a wide table: one row per key, one column per quarter, most
// recent quarter first. A nil cell means no holding under that key in that
// quarter.
type Series struct {
	Key      MergeKey
	Target   Target
	Quarters []string
	Rows     []*SeriesRow
}

type SeriesRow struct {
	Key    string
	Values []*float64
}

// QuarterIndex returns the column index of quarter or -1
func (series *Series) QuarterIndex(quarter string) int {
	for idx, q := range series.Quarters {
		if q == quarter {
			return idx
		}
	}
	return -1
}

// Totals sums every column, keyed by quarter
func (series *Series) Totals() map[string]float64 {
	totals := make(map[string]float64, len(series.Quarters))
	for idx, q := range series.Quarters {
		var total float64
		for _, row := range series.Rows {
			if v := row.Values[idx]; v != nil {
				total += *v
			}
		}
		totals[q] = total
	}
	return totals
}

// SaveDB replaces the published cells of the series for an entity
func (series *Series) SaveDB(ctx context.Context, tx pgx.Tx, cik string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM series WHERE cik = $1 AND merge_key = $2 AND target = $3`,
		cik, string(series.Key), string(series.Target)); err != nil {
		log.Error().Err(err).Str("CIK", cik).Msg("clearing series failed")
		return err
	}

	rows := make([][]any, 0, len(series.Rows)*len(series.Quarters))
	for _, row := range series.Rows {
		for idx, quarter := range series.Quarters {
			if row.Values[idx] == nil {
				continue
			}
			rows = append(rows, []any{cik, string(series.Key), string(series.Target), row.Key, quarter, *row.Values[idx]})
		}
	}

	_, err := tx.CopyFrom(ctx, pgx.Identifier{"series"},
		[]string{"cik", "merge_key", "target", "key", "quarter", "value"},
		pgx.CopyFromRows(rows))
	if err != nil {
		log.Error().Err(err).Str("CIK", cik).Str("Series", SeriesArtifact(series.Key, series.Target)).
			Msg("save series to DB failed")
		return err
	}

	return nil
}
