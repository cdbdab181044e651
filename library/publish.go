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
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

var (
	ErrNotMerged = errors.New("entity has not been merged")
)

// Snapshot is everything the library stores for one entity, read from the
// workspace in one pass
type Snapshot struct {
	CIK        string
	Filings    []*data.Filing
	Holdings   map[string]data.Holdings
	Identities data.Identities
	Series     []*data.Series
}

// NumHoldings counts holdings across all quarters
func (snapshot *Snapshot) NumHoldings() int {
	count := 0
	for _, holdings := range snapshot.Holdings {
		count += len(holdings)
	}
	return count
}

// LoadSnapshot reads the meta, clean, mapping and merge stages of an entity
func LoadSnapshot(repo workspace.Repository, entity string) (*Snapshot, error) {
	exists, err := repo.EntityExists(entity)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", workspace.ErrEntityNotFound, entity)
	}

	snapshot := &Snapshot{
		CIK:      entity,
		Holdings: make(map[string]data.Holdings),
	}

	if snapshot.Filings, err = workspace.ReadFilings(repo, entity); err != nil {
		return nil, err
	}

	quarters, err := repo.ListStage(entity, workspace.StageClean)
	if err != nil {
		return nil, err
	}

	for _, quarter := range quarters {
		holdings, err := workspace.ReadHoldings(repo, entity, workspace.StageClean, quarter)
		if err != nil {
			return nil, err
		}
		snapshot.Holdings[quarter] = holdings
	}

	snapshot.Identities, err = workspace.ReadIdentities(repo, entity)
	if errors.Is(err, workspace.ErrArtifactNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotMerged, entity)
	}
	if err != nil {
		return nil, err
	}

	for _, key := range data.MergeKeys {
		for _, target := range data.Targets {
			series, err := workspace.ReadSeries(repo, entity, key, target)
			if errors.Is(err, workspace.ErrArtifactNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrNotMerged, entity)
			}
			if err != nil {
				return nil, err
			}
			snapshot.Series = append(snapshot.Series, series)
		}
	}

	return snapshot, nil
}

// Publish replaces everything stored for the snapshot's entity in a single
// transaction
func (myLibrary *Library) Publish(ctx context.Context, snapshot *Snapshot) error {
	logger := zerolog.Ctx(ctx)

	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("could not begin transaction")
		return err
	}
	defer tx.Rollback(ctx)

	for _, filing := range snapshot.Filings {
		if err := filing.SaveDB(ctx, tx); err != nil {
			return err
		}
	}

	for quarter, holdings := range snapshot.Holdings {
		if err := holdings.SaveDB(ctx, tx, snapshot.CIK, quarter); err != nil {
			return err
		}
	}

	if err := snapshot.Identities.SaveDB(ctx, tx, snapshot.CIK); err != nil {
		return err
	}

	for _, series := range snapshot.Series {
		if err := series.SaveDB(ctx, tx, snapshot.CIK); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Str("CIK", snapshot.CIK).Msg("could not commit transaction")
		return err
	}

	logger.Info().Str("CIK", snapshot.CIK).Int("NumFilings", len(snapshot.Filings)).
		Int("NumQuarters", len(snapshot.Holdings)).Int("NumHoldings", snapshot.NumHoldings()).
		Msg("published entity")

	return nil
}
