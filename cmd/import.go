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
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pv13f/filing"
	"github.com/penny-vault/pv13f/healthcheck"
	"github.com/penny-vault/pv13f/pipeline"
	"github.com/penny-vault/pv13f/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <path...>",
	Short: "Import 13F submissions from files or directories",
	Long: `Every file found under the given paths is treated as one full 13F
submission. Holdings are extracted into the workspace and the clean, mapping
and merge stages of each affected manager are rebuilt.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProvider(commandContext(), "directory", args)
	},
}

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <provider> [args...]",
	Short: "Download 13F submissions from a provider and import them",
	Long: `fetch retrieves submissions from a provider and imports them exactly like
the import command. For example:

	pv13f fetch edgar 1067983

downloads every 13F-HR filing of CIK 1067983 from EDGAR. Accession numbers
may follow the CIK to limit the download to specific filings.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProvider(commandContext(), args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runProvider(ctx context.Context, providerName string, args []string) {
	check := healthcheck.New("")
	if err := check.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("could not signal start to healthchecks")
	}

	docs, err := loadDocuments(ctx, providerName, args)
	if err != nil {
		_ = check.Fail(ctx, err.Error())
		log.Fatal().Err(err).Str("Provider", providerName).Msg("could not load documents")
	}

	result, err := runImport(ctx, docs)
	if err != nil {
		_ = check.Fail(ctx, err.Error())
		log.Fatal().Err(err).Msg("import failed")
	}

	if err := check.Success(ctx, fmt.Sprintf("imported %d documents for %d entities", len(docs), len(result.Entities))); err != nil {
		log.Warn().Err(err).Msg("could not signal success to healthchecks")
	}
}

func loadDocuments(ctx context.Context, providerName string, args []string) ([]filing.Document, error) {
	src, err := provider.Lookup(providerName)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	docs, err := src.Documents(ctx, args)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("Provider", src.Name()).Int("NumDocuments", len(docs)).
		Str("RunTime", durafmt.Parse(time.Since(startTime)).String()).Msg("loaded documents")
	return docs, nil
}

func runImport(ctx context.Context, docs []filing.Document) (*pipeline.Result, error) {
	importer := pipeline.NewImporter(openRepository())
	result, err := importer.Import(ctx, docs)
	if err != nil {
		return nil, err
	}

	skipped := 0
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			skipped++
		}
	}

	log.Info().Str("RunID", result.RunID.String()).Int("NumDocuments", len(docs)).Int("NumSkipped", skipped).
		Strs("Entities", result.Entities).Str("RunTime", durafmt.Parse(result.Duration).String()).
		Msg("successfully imported documents")

	return result, nil
}
