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
	"strings"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

// Aggregate collapses the raw filings of each quarter into a single clean
// table. A quarter filed once is copied through unchanged. When a quarter
// was amended the rows of every filing are concatenated in file name order
// and the last row seen for each issuer wins.
func Aggregate(ctx context.Context, repo workspace.Repository, entity string) error {
	logger := zerolog.Ctx(ctx).With().Str("CIK", entity).Logger()

	names, err := repo.ListStage(entity, workspace.StageRaw)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingRawData, entity)
	}

	quarters := make([]string, 0)
	filesByQuarter := make(map[string][]string)
	for _, name := range names {
		quarter, _, _ := strings.Cut(name, "_")
		if _, ok := filesByQuarter[quarter]; !ok {
			quarters = append(quarters, quarter)
		}
		filesByQuarter[quarter] = append(filesByQuarter[quarter], name)
	}

	for _, quarter := range quarters {
		files := filesByQuarter[quarter]
		if len(files) == 1 {
			if err := workspace.CopyArtifact(repo, entity, workspace.StageRaw, files[0], workspace.StageClean, quarter); err != nil {
				return err
			}
			continue
		}

		combined := make(data.Holdings, 0)
		for _, name := range files {
			holdings, err := workspace.ReadHoldings(repo, entity, workspace.StageRaw, name)
			if err != nil {
				return err
			}
			combined = append(combined, holdings...)
		}

		deduped := combined.DedupByIssuer()
		deduped.ComputePortfolioPercent()
		deduped.SortByIssuer()

		logger.Debug().Str("Quarter", quarter).Int("NumFilings", len(files)).Int("NumRows", len(combined)).
			Int("NumHoldings", len(deduped)).Msg("merged amended quarter")

		if err := workspace.WriteHoldings(repo, entity, workspace.StageClean, quarter, deduped); err != nil {
			return err
		}
	}

	return nil
}
