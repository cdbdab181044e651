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
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv13f/filing"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

// Outcome records what happened to one document of an import
type Outcome struct {
	Filename string
	CIK      string
	Quarter  string
	Encoding string
	Holdings int
	Err      error
}

func (outcome *Outcome) MarshalZerologObject(e *zerolog.Event) {
	e.Str("FileName", outcome.Filename)
	e.Str("CIK", outcome.CIK)
	e.Str("Quarter", outcome.Quarter)
	e.Str("Encoding", outcome.Encoding)
	e.Int("NumHoldings", outcome.Holdings)
	if outcome.Err != nil {
		e.Str("Error", outcome.Err.Error())
	}
}

type Result struct {
	RunID    uuid.UUID
	Entities []string
	Outcomes []*Outcome
	Duration time.Duration
}

// Importer runs a batch of documents through every pipeline stage. The
// workspace of an entity must not be touched by two imports at once.
type Importer struct {
	Repo workspace.Repository
}

func NewImporter(repo workspace.Repository) *Importer {
	return &Importer{
		Repo: repo,
	}
}

// Import extracts each document into the raw stage, removes entities left
// without any raw holdings and rebuilds the derived stages of the rest.
// Problems with individual documents are recorded in the outcomes and do
// not stop the batch; storage errors and stage ordering errors do.
func (imp *Importer) Import(ctx context.Context, docs []filing.Document) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:    uuid.New(),
		Entities: []string{},
		Outcomes: make([]*Outcome, 0, len(docs)),
	}

	logger := zerolog.Ctx(ctx).With().Str("RunID", result.RunID.String()).Logger()
	ctx = logger.WithContext(ctx)

	touched := make(map[string]struct{})
	for _, doc := range docs {
		outcome, err := imp.importDocument(ctx, doc, touched)
		if err != nil {
			return nil, err
		}

		if outcome.Err != nil {
			logger.Warn().Object("Outcome", outcome).Msg("skipping document")
		} else {
			logger.Debug().Object("Outcome", outcome).Msg("extracted document")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	survivors, err := imp.cleanup(ctx, touched)
	if err != nil {
		return nil, err
	}

	for _, entity := range survivors {
		if err := Rebuild(ctx, imp.Repo, entity); err != nil {
			logger.Error().Err(err).Str("CIK", entity).Msg("rebuilding entity failed")
			return nil, err
		}
	}

	result.Entities = survivors
	result.Duration = time.Since(start)

	logger.Info().Int("NumDocuments", len(docs)).Strs("Entities", survivors).Dur("Duration", result.Duration).
		Msg("import finished")

	return result, nil
}

// importDocument returns an error only for failures that should abort the
// batch
func (imp *Importer) importDocument(ctx context.Context, doc filing.Document, touched map[string]struct{}) (*Outcome, error) {
	outcome := &Outcome{Filename: doc.Filename}

	meta, err := filing.ExtractMetadata(doc.Text)
	if meta != nil {
		outcome.CIK = meta.CIK
		outcome.Quarter = meta.Quarter
	}
	if err != nil {
		outcome.Err = err
		return outcome, nil
	}

	if err := filing.CheckMetadata(meta); err != nil {
		outcome.Err = err
		return outcome, nil
	}

	if !workspace.IsEntityID(meta.CIK) {
		outcome.Err = filing.ErrMissingEntity
		return outcome, nil
	}

	payload, err := filing.Classify(doc.Text)
	if err != nil {
		outcome.Err = err
		return outcome, nil
	}
	outcome.Encoding = payload.Encoding.String()

	touched[meta.CIK] = struct{}{}
	if err := workspace.WriteFiling(imp.Repo, meta); err != nil {
		return nil, err
	}

	holdings, err := filing.ExtractorFor(payload.Encoding).Extract(ctx, payload.Text)
	if err != nil {
		outcome.Err = err
		return outcome, nil
	}

	if err := workspace.WriteHoldings(imp.Repo, meta.CIK, workspace.StageRaw, meta.ArtifactName(), holdings); err != nil {
		return nil, err
	}

	outcome.Holdings = len(holdings)
	return outcome, nil
}

// cleanup deletes every touched entity that ends the batch without raw
// holdings and returns the remaining entities sorted
func (imp *Importer) cleanup(ctx context.Context, touched map[string]struct{}) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	survivors := make([]string, 0, len(touched))
	for entity := range touched {
		exists, err := imp.Repo.EntityExists(entity)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}

		raw, err := imp.Repo.ListStage(entity, workspace.StageRaw)
		if err != nil {
			return nil, err
		}

		if len(raw) == 0 {
			logger.Warn().Str("CIK", entity).Msg("no holdings were extracted for entity; removing its workspace")
			if err := imp.Repo.DeleteEntity(entity); err != nil {
				return nil, err
			}
			continue
		}

		survivors = append(survivors, entity)
	}

	sort.Strings(survivors)
	return survivors, nil
}
