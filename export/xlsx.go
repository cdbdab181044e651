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
package export

import (
	"context"
	"path/filepath"

	"github.com/penny-vault/pv13f/data"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Workbook writes <base>.xlsx with one sheet per merge table. Each sheet has
// the merge key in column A and one column per quarter, newest first.
func (exp *Exporter) Workbook(ctx context.Context, entity string) (string, error) {
	logger := zerolog.Ctx(ctx)

	base, err := exp.BaseName(entity)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	first := ""
	for _, key := range data.MergeKeys {
		for _, target := range data.Targets {
			series, err := exp.catalog.Series(entity, key, target)
			if err != nil {
				return "", err
			}

			name, err := writeSheet(f, series)
			if err != nil {
				logger.Error().Err(err).Str("Sheet", data.SeriesArtifact(key, target)).Msg("write sheet failed")
				return "", err
			}

			if first == "" {
				first = name
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}

	active, err := f.GetSheetIndex(first)
	if err != nil {
		return "", err
	}
	f.SetActiveSheet(active)

	fn := filepath.Join(exp.OutDir, base+".xlsx")
	if err := f.SaveAs(fn); err != nil {
		logger.Error().Err(err).Str("FileName", fn).Msg("save workbook failed")
		return "", err
	}

	logger.Info().Str("FileName", fn).Msg("workbook written")
	return fn, nil
}

func writeSheet(f *excelize.File, series *data.Series) (string, error) {
	name := data.SeriesArtifact(series.Key, series.Target)
	if _, err := f.NewSheet(name); err != nil {
		return "", err
	}

	header := make([]any, 0, len(series.Quarters)+1)
	header = append(header, string(series.Key))
	for _, q := range series.Quarters {
		header = append(header, q)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return "", err
	}

	for rowIdx, row := range series.Rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return "", err
		}
		if err := f.SetCellStr(name, cell, row.Key); err != nil {
			return "", err
		}

		for colIdx, v := range row.Values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellFloat(name, cell, *v, -1, 64); err != nil {
				return "", err
			}
		}
	}

	return name, nil
}
