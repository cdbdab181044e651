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
package workspace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pv13f/data"
)

var (
	ErrMalformedSeries = errors.New("malformed series artifact")
)

// WriteFiling stores the metadata of one filing event as
// meta/{quarter}_{filedDate}.json
func WriteFiling(repo Repository, filing *data.Filing) error {
	return repo.WriteStage(filing.CIK, StageMeta, filing.ArtifactName(), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(filing)
	})
}

func ReadFiling(repo Repository, entity, name string) (*data.Filing, error) {
	fh, err := repo.ReadStage(entity, StageMeta, name)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	filing := &data.Filing{}
	if err := json.NewDecoder(fh).Decode(filing); err != nil {
		return nil, fmt.Errorf("decode %s/%s/%s: %w", entity, StageMeta, name, err)
	}

	return filing, nil
}

// ReadFilings returns every filing event of the entity, oldest first
func ReadFilings(repo Repository, entity string) ([]*data.Filing, error) {
	names, err := repo.ListStage(entity, StageMeta)
	if err != nil {
		return nil, err
	}

	filings := make([]*data.Filing, 0, len(names))
	for _, name := range names {
		filing, err := ReadFiling(repo, entity, name)
		if err != nil {
			return nil, err
		}
		filings = append(filings, filing)
	}

	return filings, nil
}

func WriteHoldings(repo Repository, entity string, stage Stage, name string, holdings data.Holdings) error {
	return repo.WriteStage(entity, stage, name, func(w io.Writer) error {
		return gocsv.Marshal(&holdings, w)
	})
}

func ReadHoldings(repo Repository, entity string, stage Stage, name string) (data.Holdings, error) {
	fh, err := repo.ReadStage(entity, stage, name)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	holdings := make(data.Holdings, 0)
	if err := gocsv.Unmarshal(fh, &holdings); err != nil {
		return nil, fmt.Errorf("decode %s/%s/%s: %w", entity, stage, name, err)
	}

	return holdings, nil
}

// StreamHoldings calls fn for each row of a holdings artifact without
// loading the table into memory
func StreamHoldings(repo Repository, entity string, stage Stage, name string, fn func(data.Holding)) error {
	fh, err := repo.ReadStage(entity, stage, name)
	if err != nil {
		return err
	}
	defer fh.Close()

	if err := gocsv.UnmarshalToCallback(fh, fn); err != nil {
		return fmt.Errorf("decode %s/%s/%s: %w", entity, stage, name, err)
	}

	return nil
}

// CopyArtifact copies an artifact byte for byte
func CopyArtifact(repo Repository, entity string, from Stage, fromName string, to Stage, toName string) error {
	fh, err := repo.ReadStage(entity, from, fromName)
	if err != nil {
		return err
	}
	defer fh.Close()

	return repo.WriteStage(entity, to, toName, func(w io.Writer) error {
		_, err := io.Copy(w, fh)
		return err
	})
}

func WriteIdentities(repo Repository, entity string, identities data.Identities) error {
	return repo.WriteStage(entity, StageMapping, data.IdentityArtifact, func(w io.Writer) error {
		return gocsv.Marshal(&identities, w)
	})
}

func ReadIdentities(repo Repository, entity string) (data.Identities, error) {
	fh, err := repo.ReadStage(entity, StageMapping, data.IdentityArtifact)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	identities := make(data.Identities, 0)
	if err := gocsv.Unmarshal(fh, &identities); err != nil {
		return nil, fmt.Errorf("decode %s/%s/%s: %w", entity, StageMapping, data.IdentityArtifact, err)
	}

	return identities, nil
}

// WriteSeries stores a wide table: the merge key column followed by one
// column per quarter. Absent cells are left empty.
func WriteSeries(repo Repository, entity string, series *data.Series) error {
	return repo.WriteStage(entity, StageMerge, data.SeriesArtifact(series.Key, series.Target), func(w io.Writer) error {
		writer := csv.NewWriter(w)

		header := append([]string{string(series.Key)}, series.Quarters...)
		if err := writer.Write(header); err != nil {
			return err
		}

		record := make([]string, len(header))
		for _, row := range series.Rows {
			record[0] = row.Key
			for idx, val := range row.Values {
				record[idx+1] = ""
				if val != nil {
					record[idx+1] = strconv.FormatFloat(*val, 'f', -1, 64)
				}
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}

		writer.Flush()
		return writer.Error()
	})
}

func ReadSeries(repo Repository, entity string, key data.MergeKey, target data.Target) (*data.Series, error) {
	fh, err := repo.ReadStage(entity, StageMerge, data.SeriesArtifact(key, target))
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSeries, err)
	}

	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != string(key) {
		return nil, fmt.Errorf("%w: missing %q header", ErrMalformedSeries, key)
	}

	series := &data.Series{
		Key:      key,
		Target:   target,
		Quarters: records[0][1:],
		Rows:     make([]*data.SeriesRow, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := &data.SeriesRow{
			Key:    record[0],
			Values: make([]*float64, len(series.Quarters)),
		}
		for idx, cell := range record[1:] {
			if cell == "" {
				continue
			}
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q in row %q", ErrMalformedSeries, cell, row.Key)
			}
			row.Values[idx] = &val
		}
		series.Rows = append(series.Rows, row)
	}

	return series, nil
}
