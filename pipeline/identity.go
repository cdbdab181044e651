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
	"errors"
	"fmt"
	"sort"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

type identityKey struct {
	name, class, cusip string
}

// ResolveIdentities builds the canonical name mapping for an entity. Every
// clean table is streamed so only the distinct (issuer, class, cusip)
// triples are held in memory. The canonical name of a cusip is the
// alphabetically smallest issuer name ever reported for it, which makes the
// mapping independent of the order quarters are read in.
func ResolveIdentities(ctx context.Context, repo workspace.Repository, entity string) (data.Identities, error) {
	logger := zerolog.Ctx(ctx)

	quarters, err := repo.ListStage(entity, workspace.StageClean)
	if err != nil {
		return nil, err
	}

	if len(quarters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCleanData, entity)
	}

	seen := make(map[identityKey]struct{})
	for _, quarter := range quarters {
		err := workspace.StreamHoldings(repo, entity, workspace.StageClean, quarter, func(h data.Holding) {
			if h.NameOfIssuer == "" || h.TitleOfClass == "" || h.Cusip == "" {
				return
			}
			seen[identityKey{h.NameOfIssuer, h.TitleOfClass, h.Cusip}] = struct{}{}
		})
		if err != nil {
			return nil, err
		}
	}

	identities := make(data.Identities, 0, len(seen))
	for key := range seen {
		identities = append(identities, &data.Identity{
			NameOfIssuer: key.name,
			TitleOfClass: key.class,
			Cusip:        key.cusip,
		})
	}

	sort.Slice(identities, func(i, j int) bool {
		a, b := identities[i], identities[j]
		if a.NameOfIssuer != b.NameOfIssuer {
			return a.NameOfIssuer < b.NameOfIssuer
		}
		if a.TitleOfClass != b.TitleOfClass {
			return a.TitleOfClass < b.TitleOfClass
		}
		return a.Cusip < b.Cusip
	})

	canonical := make(map[string]string)
	for _, identity := range identities {
		if _, ok := canonical[identity.Cusip]; !ok {
			canonical[identity.Cusip] = identity.NameOfIssuer
		}
		identity.Name = canonical[identity.Cusip]
	}

	if err := workspace.WriteIdentities(repo, entity, identities); err != nil {
		return nil, err
	}

	logger.Debug().Str("CIK", entity).Int("NumIdentities", len(identities)).Int("NumSecurities", len(canonical)).
		Msg("resolved identities")

	return identities, nil
}

func readMapping(repo workspace.Repository, entity string) (data.Identities, error) {
	identities, err := workspace.ReadIdentities(repo, entity)
	if errors.Is(err, workspace.ErrArtifactNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingMapping, entity)
	}
	return identities, err
}
