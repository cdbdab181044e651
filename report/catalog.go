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
	"github.com/penny-vault/pv13f/workspace"
)

// Entity is a workspace entry as shown in listings
type Entity struct {
	CIK      string   `json:"cik"`
	Name     string   `json:"name"`
	Quarters []string `json:"quarters"`
}

// Catalog answers questions about the entities stored in a workspace
type Catalog struct {
	Repo      workspace.Repository
	Corrector ScaleCorrector
}

func NewCatalog(repo workspace.Repository, corrector ScaleCorrector) *Catalog {
	return &Catalog{
		Repo:      repo,
		Corrector: corrector,
	}
}

func (catalog *Catalog) checkEntity(entity string) error {
	exists, err := catalog.Repo.EntityExists(entity)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", workspace.ErrEntityNotFound, entity)
	}
	return nil
}

func (catalog *Catalog) Entities() ([]*Entity, error) {
	ciks, err := catalog.Repo.ListEntities()
	if err != nil {
		return nil, err
	}

	entities := make([]*Entity, 0, len(ciks))
	for _, cik := range ciks {
		name, err := catalog.CompanyName(cik)
		if err != nil {
			return nil, err
		}

		quarters, err := catalog.Quarters(cik, true)
		if err != nil {
			return nil, err
		}

		entities = append(entities, &Entity{
			CIK:      cik,
			Name:     name,
			Quarters: quarters,
		})
	}

	return entities, nil
}

// Quarters lists the quarters with clean holdings
func (catalog *Catalog) Quarters(entity string, ascending bool) ([]string, error) {
	if err := catalog.checkEntity(entity); err != nil {
		return nil, err
	}

	quarters, err := catalog.Repo.ListStage(entity, workspace.StageClean)
	if err != nil {
		return nil, err
	}

	if !ascending {
		sort.Sort(sort.Reverse(sort.StringSlice(quarters)))
	}

	return quarters, nil
}

// CompanyName is the conformed name of the most recent filing event, or an
// empty string when no metadata is stored
func (catalog *Catalog) CompanyName(entity string) (string, error) {
	if err := catalog.checkEntity(entity); err != nil {
		return "", err
	}

	names, err := catalog.Repo.ListStage(entity, workspace.StageMeta)
	if err != nil {
		return "", err
	}

	if len(names) == 0 {
		return "", nil
	}

	filing, err := workspace.ReadFiling(catalog.Repo, entity, names[len(names)-1])
	if err != nil {
		return "", err
	}

	return filing.CompanyName, nil
}

func (catalog *Catalog) Series(entity string, key data.MergeKey, target data.Target) (*data.Series, error) {
	if err := catalog.checkEntity(entity); err != nil {
		return nil, err
	}

	series, err := workspace.ReadSeries(catalog.Repo, entity, key, target)
	if errors.Is(err, workspace.ErrArtifactNotFound) {
		return nil, fmt.Errorf("%w: %s has not been merged", ErrNoData, entity)
	}
	return series, err
}

func (catalog *Catalog) TopHoldings(entity string, key data.MergeKey, quarter string, n int) ([]*Position, error) {
	series, err := catalog.Series(entity, key, data.Proportion)
	if err != nil {
		return nil, err
	}
	return TopHoldings(series, quarter, n)
}

func (catalog *Catalog) Compare(entity string, key data.MergeKey, from, to string, n int) ([]*Change, error) {
	series, err := catalog.Series(entity, key, data.Proportion)
	if err != nil {
		return nil, err
	}
	return Compare(series, from, to, n)
}

func (catalog *Catalog) History(entity string, key data.MergeKey, n int) (*History, error) {
	series, err := catalog.Series(entity, key, data.Proportion)
	if err != nil {
		return nil, err
	}
	return TopHistory(series, n)
}

func (catalog *Catalog) TotalValue(entity string, key data.MergeKey) ([]Point, string, error) {
	series, err := catalog.Series(entity, key, data.Value)
	if err != nil {
		return nil, "", err
	}
	return TotalValue(series, catalog.Corrector)
}
