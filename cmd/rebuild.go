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
	"github.com/penny-vault/pv13f/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rebuildCmd represents the rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild [cik...]",
	Short: "Recompute the clean, mapping and merge stages from raw holdings",
	Long: `rebuild reruns quarter aggregation, identity resolution and the time series
merge for the named entities, or for every entity in the workspace when no
CIK is given. Raw holdings and filing metadata are left untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()
		repo := openRepository()

		if len(args) == 0 {
			entities, err := pipeline.RebuildAll(ctx, repo)
			if err != nil {
				log.Fatal().Err(err).Msg("rebuild failed")
			}
			log.Info().Int("NumEntities", len(entities)).Msg("rebuilt workspace")
			return
		}

		for _, entity := range args {
			if err := pipeline.Rebuild(ctx, repo, entity); err != nil {
				log.Fatal().Err(err).Str("CIK", entity).Msg("rebuild failed")
			}
			log.Info().Str("CIK", entity).Msg("rebuilt entity")
		}
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
