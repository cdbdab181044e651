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
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gosimple/slug"
	"github.com/penny-vault/pv13f/backblaze"
	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/figi"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
)

type Format string

const (
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatParquet, FormatXLSX:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Enricher resolves CUSIPs to listed securities. figi.Client satisfies it.
type Enricher interface {
	LookupCUSIPs(ctx context.Context, cusips []string) (map[string]*figi.OpenFigiAsset, error)
}

// Exporter writes the artifacts of an entity to files in OutDir. When an
// Enricher is set holdings are tagged with their ticker and composite FIGI.
type Exporter struct {
	OutDir   string
	Enricher Enricher

	catalog *report.Catalog
}

func NewExporter(repo workspace.Repository, outDir string) *Exporter {
	return &Exporter{
		OutDir:  outDir,
		catalog: report.NewCatalog(repo, report.NewScaleCorrector()),
	}
}

// BaseName is the file name prefix for an entity: the CIK followed by a
// slug of the company name
func (exp *Exporter) BaseName(entity string) (string, error) {
	name, err := exp.catalog.CompanyName(entity)
	if err != nil {
		return "", err
	}

	if s := slug.Make(name); s != "" {
		return entity + "-" + s, nil
	}
	return entity, nil
}

// Export writes the entity in the requested format and returns the paths of
// the files created
func (exp *Exporter) Export(ctx context.Context, entity string, format Format) ([]string, error) {
	switch format {
	case FormatParquet:
		return exp.Parquet(ctx, entity)
	case FormatXLSX:
		fn, err := exp.Workbook(ctx, entity)
		if err != nil {
			return nil, err
		}
		return []string{fn}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Parquet writes <base>-holdings.parquet and <base>-series.parquet
func (exp *Exporter) Parquet(ctx context.Context, entity string) ([]string, error) {
	base, err := exp.BaseName(entity)
	if err != nil {
		return nil, err
	}

	holdings, err := exp.holdingRows(ctx, entity)
	if err != nil {
		return nil, err
	}

	series, err := exp.seriesRows(entity)
	if err != nil {
		return nil, err
	}

	holdingsFn := filepath.Join(exp.OutDir, base+"-holdings.parquet")
	if err := saveToParquet(holdings, holdingsFn); err != nil {
		return nil, err
	}

	seriesFn := filepath.Join(exp.OutDir, base+"-series.parquet")
	if err := saveToParquet(series, seriesFn); err != nil {
		return nil, err
	}

	return []string{holdingsFn, seriesFn}, nil
}

func (exp *Exporter) holdingRows(ctx context.Context, entity string) ([]*HoldingRow, error) {
	quarters, err := exp.catalog.Quarters(entity, true)
	if err != nil {
		return nil, err
	}

	rows := make([]*HoldingRow, 0)
	for _, quarter := range quarters {
		holdings, err := workspace.ReadHoldings(exp.catalog.Repo, entity, workspace.StageClean, quarter)
		if err != nil {
			return nil, err
		}

		for _, h := range holdings {
			rows = append(rows, &HoldingRow{
				CIK:                  entity,
				Quarter:              quarter,
				NameOfIssuer:         h.NameOfIssuer,
				TitleOfClass:         h.TitleOfClass,
				Cusip:                h.Cusip,
				Value:                h.Value,
				Shares:               h.Shares,
				ShareType:            h.ShareType,
				InvestmentDiscretion: h.InvestmentDiscretion,
				OtherManager:         h.OtherManager,
				VotingSole:           h.VotingSole.Ptr(),
				VotingShared:         h.VotingShared.Ptr(),
				VotingNone:           h.VotingNone.Ptr(),
				PortfolioPercent:     h.PortfolioPercent,
			})
		}
	}

	if exp.Enricher != nil {
		if err := exp.enrich(ctx, rows); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

func (exp *Exporter) enrich(ctx context.Context, rows []*HoldingRow) error {
	unique := make(map[string]struct{})
	for _, row := range rows {
		if row.Cusip != "" {
			unique[row.Cusip] = struct{}{}
		}
	}

	cusips := make([]string, 0, len(unique))
	for cusip := range unique {
		cusips = append(cusips, cusip)
	}
	sort.Strings(cusips)

	assets, err := exp.Enricher.LookupCUSIPs(ctx, cusips)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("NumCusips", len(cusips)).Msg("figi lookup failed")
		return err
	}

	matched := 0
	for _, row := range rows {
		if asset := assets[row.Cusip]; asset != nil {
			row.Ticker = asset.Ticker
			row.CompositeFigi = asset.CompositeFIGI
			matched++
		}
	}

	zerolog.Ctx(ctx).Info().Int("NumCusips", len(cusips)).Int("NumMatched", matched).Msg("enriched holdings")
	return nil
}

func (exp *Exporter) seriesRows(entity string) ([]*SeriesRow, error) {
	rows := make([]*SeriesRow, 0)
	for _, key := range data.MergeKeys {
		for _, target := range data.Targets {
			series, err := exp.catalog.Series(entity, key, target)
			if err != nil {
				return nil, err
			}

			for _, row := range series.Rows {
				for idx, quarter := range series.Quarters {
					if row.Values[idx] == nil {
						continue
					}
					rows = append(rows, &SeriesRow{
						MergeKey: string(key),
						Target:   string(target),
						Key:      row.Key,
						Quarter:  quarter,
						Value:    *row.Values[idx],
					})
				}
			}
		}
	}
	return rows, nil
}

// Upload copies the exported files to the configured backblaze bucket under
// a directory named after the entity
func Upload(ctx context.Context, entity string, files []string) error {
	logger := zerolog.Ctx(ctx)
	if !backblaze.Configured() {
		logger.Debug().Msg("backblaze credentials not configured; skipping upload")
		return nil
	}

	for _, fn := range files {
		if err := backblaze.Upload(fn, "", entity); err != nil {
			return err
		}
	}

	return nil
}
