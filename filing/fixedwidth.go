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
package filing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/penny-vault/pv13f/data"
	"github.com/rs/zerolog"
)

// a ruler must delimit name, class, cusip, value and shares
const minColumnOffsets = 6

// FixedWidthExtractor parses the legacy text information table. Column
// widths are not declared anywhere in these filings, so they are inferred
// from a ruler row. Two conventions are recognized:
//
//	<S>  <C>        <C>       <C>      <C>        (marker style)
//	______________ ________ _________ ________     (underscore style)
//
// Rows that cannot be parsed are dropped one at a time; they never abort the
// rest of the table.
type FixedWidthExtractor struct{}

func (FixedWidthExtractor) Extract(ctx context.Context, payload string) (data.Holdings, error) {
	logger := zerolog.Ctx(ctx)

	rows := splitLines(payload)
	rulerIdx, offsets := findRuler(rows)
	if rulerIdx < 0 {
		return nil, fmt.Errorf("%w: no ruler row", ErrUnsupportedColumnLayout)
	}

	if len(offsets) < minColumnOffsets {
		return nil, fmt.Errorf("%w: ruler defines %d column boundaries", ErrUnsupportedColumnLayout, len(offsets))
	}

	holdings := make(data.Holdings, 0, len(rows)-rulerIdx)
	for idx, row := range rows[rulerIdx+1:] {
		holding, reason := parseFixedWidthRow([]rune(row), offsets)
		if holding == nil {
			if reason != "" {
				logger.Debug().Int("Line", rulerIdx+idx+2).Str("Reason", reason).Str("Row", row).Msg("skipping row")
			}
			continue
		}
		holdings = append(holdings, holding)
	}

	if len(holdings) == 0 {
		return nil, ErrNoHoldings
	}

	return finalize(holdings), nil
}

// findRuler returns the index of the ruler row and the column start offsets
// it defines. A marker style ruler wins over an underscore style ruler
// anywhere in the table.
func findRuler(rows []string) (int, []int) {
	for idx, row := range rows {
		if strings.Contains(row, "<S>") && strings.Contains(row, "<C>") {
			offsets := make([]int, 0)
			for pos, r := range []rune(row) {
				if r == '<' {
					offsets = append(offsets, pos)
				}
			}
			return idx, offsets
		}
	}

	for idx, row := range rows {
		if !isUnderscoreRuler(row) {
			continue
		}

		runes := []rune(row)
		offsets := []int{0}
		for pos := 0; pos+1 < len(runes); pos++ {
			if runes[pos] == ' ' && runes[pos+1] == '_' {
				offsets = append(offsets, pos)
				pos++
			}
		}
		return idx, offsets
	}

	return -1, nil
}

func isUnderscoreRuler(row string) bool {
	trimmed := strings.TrimSpace(row)
	if trimmed == "" {
		return false
	}

	for _, r := range trimmed {
		if r != '_' && r != ' ' {
			return false
		}
	}
	return true
}

// parseFixedWidthRow slices the first five columns out of a row. A nil
// holding means the row was skipped; reason is empty for rows that are simply
// too short to be data.
func parseFixedWidthRow(row []rune, offsets []int) (*data.Holding, string) {
	if len(row) < offsets[len(offsets)-1] {
		return nil, ""
	}

	fields := make([]string, 5)
	for col := range fields {
		fields[col] = strings.TrimSpace(runeSlice(row, offsets[col], offsets[col+1]))
	}

	name, class, cusip := fields[0], fields[1], fields[2]
	valueStr := strings.ReplaceAll(fields[3], ",", "")
	sharesStr := strings.ReplaceAll(fields[4], ",", "")

	for _, field := range []string{name, class, cusip, valueStr, sharesStr} {
		if field == "" {
			return nil, "empty field"
		}
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return nil, "value is not an integer"
	}

	shares, err := strconv.ParseInt(sharesStr, 10, 64)
	if err != nil {
		return nil, "share amount is not an integer"
	}

	if value < 0 || shares < 0 {
		return nil, "negative amount"
	}

	return &data.Holding{
		NameOfIssuer: name,
		TitleOfClass: class,
		Cusip:        cusip,
		Value:        value,
		Shares:       shares,
	}, ""
}

func runeSlice(row []rune, start, end int) string {
	if start > len(row) {
		return ""
	}
	if end > len(row) {
		end = len(row)
	}
	if end < start {
		return ""
	}
	return string(row[start:end])
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
