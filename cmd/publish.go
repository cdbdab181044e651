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
	"github.com/penny-vault/pv13f/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish [cik...]",
	Short: "Copy workspace artifacts into the PostgreSQL library",
	Long: `publish replaces the filings, holdings, identities and merged series
stored in the library for each named entity with the current contents of the
workspace. Every entity is written in its own transaction. When no CIK is
given every entity in the workspace is published.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()
		repo := openRepository()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		entities := args
		if len(entities) == 0 {
			if entities, err = repo.ListEntities(); err != nil {
				log.Fatal().Err(err).Msg("could not list entities")
			}
		}

		for _, entity := range entities {
			snapshot, err := library.LoadSnapshot(repo, entity)
			if err != nil {
				log.Fatal().Err(err).Str("CIK", entity).Msg("could not read entity")
			}

			if err := myLibrary.Publish(ctx, snapshot); err != nil {
				log.Fatal().Err(err).Str("CIK", entity).Msg("publish failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
