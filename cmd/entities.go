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
	"fmt"

	"github.com/penny-vault/pv13f/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// entitiesCmd represents the entities command
var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List the managers stored in the workspace",
	Run: func(cmd *cobra.Command, args []string) {
		catalog := report.NewCatalog(openRepository(), scaleCorrector())

		entities, err := catalog.Entities()
		if err != nil {
			log.Fatal().Err(err).Msg("could not list entities")
		}

		rows := make([][]string, 0, len(entities))
		for _, entity := range entities {
			first, last := "-", "-"
			if len(entity.Quarters) > 0 {
				first = entity.Quarters[0]
				last = entity.Quarters[len(entity.Quarters)-1]
			}
			rows = append(rows, []string{entity.CIK, entity.Name, first, last, fmt.Sprintf("%d", len(entity.Quarters))})
		}

		printTable("", []string{"CIK", "Name", "First", "Last", "Quarters"}, rows, 4)
	},
}

func init() {
	rootCmd.AddCommand(entitiesCmd)
}
